package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/search"
	"github.com/teemow/calendar-agent/internal/tools"
)

// Config holds the dependencies of a ServerContext.
type Config struct {
	// Calendar is the authenticated calendar gateway.
	Calendar *calendar.Client

	// CalendarID is the calendar the tools operate on. Empty means "primary".
	CalendarID string

	// Search tunes the search_event tool.
	Search search.Options

	// Provider supplies metrics. Nil disables instrumentation.
	Provider *instrumentation.Provider

	Logger *slog.Logger
}

// ServerContext holds the components shared by every front end.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	calendar *calendar.Client
	search   *search.Engine
	registry *tools.Registry
	provider *instrumentation.Provider
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext builds the search engine and tool registry on top of the
// calendar gateway.
func NewServerContext(ctx context.Context, cfg Config) (*ServerContext, error) {
	if cfg.Calendar == nil {
		return nil, errors.New("calendar client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var metrics *instrumentation.Metrics
	if cfg.Provider != nil {
		metrics = cfg.Provider.Metrics()
	}

	engine := search.NewEngine(cfg.Calendar,
		search.WithOptions(cfg.Search),
		search.WithClock(cfg.Calendar.Clock()),
		search.WithMetrics(metrics),
		search.WithLogger(logging.NewSlogAdapter(logger.With("component", "search"))),
	)
	registry := tools.NewRegistry(cfg.Calendar, engine,
		tools.WithCalendarID(cfg.CalendarID),
		tools.WithMetrics(metrics),
		tools.WithLogger(logger.With("component", "tools")),
	)

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		calendar: cfg.Calendar,
		search:   engine,
		registry: registry,
		provider: cfg.Provider,
	}, nil
}

// Context returns the server context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Calendar returns the calendar gateway.
func (sc *ServerContext) Calendar() *calendar.Client {
	return sc.calendar
}

// Search returns the search engine.
func (sc *ServerContext) Search() *search.Engine {
	return sc.search
}

// Registry returns the tool registry.
func (sc *ServerContext) Registry() *tools.Registry {
	return sc.registry
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// Provider returns the instrumentation provider, which may be nil.
func (sc *ServerContext) Provider() *instrumentation.Provider {
	return sc.provider
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and flushes instrumentation.
func (sc *ServerContext) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	if sc.provider != nil {
		if err := sc.provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown instrumentation: %w", err)
		}
	}
	return nil
}
