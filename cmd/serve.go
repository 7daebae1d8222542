package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/server"
	"github.com/teemow/calendar-agent/internal/tools"
)

func newServeCmd() *cobra.Command {
	var (
		cfg         *Config
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio.

The server exposes the same calendar tools the chat assistant uses
(list_events, create_event, update_event, delete_event and search_event) to
any MCP client.

Metrics:
  With INSTRUMENTATION_ENABLED=true and the prometheus exporter, --metrics-addr
  (or METRICS_ADDR) serves /metrics, /healthz and /readyz on a dedicated port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}
			return runServe(cfg, metricsAddr)
		},
	}

	cfg = addConfigFlags(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address, e.g. :9090. Empty disables it. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg *Config, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the MCP protocol; logs go to stderr.
	logger := logging.New(os.Stderr, cfg.Debug)

	provider, err := newInstrumentation(shutdownCtx)
	if err != nil {
		return err
	}

	serverContext, err := newServerContext(shutdownCtx, cfg, provider, logger)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return err
	}

	var metricsServer *server.MetricsServer
	if metricsAddr != "" {
		metricsServer, err = startMetricsServer(metricsAddr, provider, serverContext, logger)
		if err != nil {
			_ = serverContext.Shutdown(context.Background())
			return err
		}
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(ctx); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer(serverContext.Registry())
	logger.Info("serving calendar tools over stdio", "tools", serverContext.Registry().Names())

	return runStdioServer(shutdownCtx, mcpSrv)
}

// newMCPServer exposes the registry's tools on an MCP server.
func newMCPServer(registry *tools.Registry) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("calendar-agent", version,
		mcpserver.WithToolCapabilities(true),
	)
	tools.RegisterMCPTools(mcpSrv, registry)
	return mcpSrv
}

func startMetricsServer(addr string, provider *instrumentation.Provider, sc *server.ServerContext, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  server.NewHealthChecker(sc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Give a failing listener a moment to report.
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("metrics server failed to start: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	logger.Info("metrics server started", "addr", metricsServer.Addr())
	return metricsServer, nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
