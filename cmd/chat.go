package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calendar-agent/internal/agent"
	"github.com/teemow/calendar-agent/internal/llm"
	"github.com/teemow/calendar-agent/internal/logging"
)

func newChatCmd() *cobra.Command {
	var cfg *Config

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the calendar assistant on the terminal",
		Long: `Start an interactive conversation with the calendar assistant.

Type requests such as "what's on my calendar tomorrow?" or "move my dentist
appointment to Friday at 3pm". Type 'exit' or 'quit' (or press Ctrl-D) to end
the session.

The OpenAI API key is read from OPENAI_API_KEY, or from the file named by
--api-key-file. Google access needs a token created with 'calendar-agent auth'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg); err != nil {
				return err
			}
			return runChat(cfg)
		},
	}

	cfg = addConfigFlags(cmd)
	return cmd
}

func runChat(cfg *Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.New(os.Stderr, cfg.Debug)

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return err
	}

	provider, err := newInstrumentation(ctx)
	if err != nil {
		return err
	}

	sc, err := newServerContext(ctx, cfg, provider, logger)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sc.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", logging.Err(err))
		}
	}()

	model, err := llm.NewOpenAIModel(llm.OpenAIConfig{
		APIKey:  apiKey,
		Model:   cfg.Model,
		BaseURL: cfg.OpenAIBaseURL,
		Metrics: sc.Metrics(),
		Logger:  logger.With("component", "llm"),
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	loop, err := agent.New(agent.Config{
		Model:          model,
		Tools:          sc.Registry(),
		MaxToolRounds:  cfg.MaxToolRounds,
		RequestTimeout: cfg.RequestTimeout,
		Clock:          sc.Calendar().Clock(),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	if err := loop.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
