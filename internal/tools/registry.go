package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/search"
)

// Gateway is the set of calendar operations the tools route to.
type Gateway interface {
	ListEvents(ctx context.Context, opts calendar.ListOptions) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, calendarID string, payload *gcal.Event) (*calendar.Created, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, payload *gcal.Event) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) (string, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
}

// Searcher resolves a keyword to events.
type Searcher interface {
	Search(ctx context.Context, keyword, calendarID string) (search.Result, error)
}

// Handler executes one tool with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) Result

type entry struct {
	tool    mcp.Tool
	handler Handler
}

// Registry is the static mapping from tool name to schema and handler.
type Registry struct {
	gateway    Gateway
	searcher   Searcher
	calendarID string
	metrics    *instrumentation.Metrics
	logger     *slog.Logger

	entries map[string]entry
	order   []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithCalendarID sets the calendar every tool operates on. The default is "primary".
func WithCalendarID(id string) Option {
	return func(r *Registry) {
		if id != "" {
			r.calendarID = id
		}
	}
}

// WithMetrics records every dispatch on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates the registry of calendar tools. searcher may be nil, in
// which case search_event is not offered.
func NewRegistry(gateway Gateway, searcher Searcher, opts ...Option) *Registry {
	r := &Registry{
		gateway:    gateway,
		searcher:   searcher,
		calendarID: calendar.DefaultCalendarID,
		logger:     slog.Default(),
		entries:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerCalendarTools()
	return r
}

func (r *Registry) register(tool mcp.Tool, handler Handler) {
	if _, exists := r.entries[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
}

// Tools returns the schemas of all registered tools in registration order.
func (r *Registry) Tools() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Dispatch routes a tool call. It never returns a Go error: unknown tools,
// bad arguments and gateway failures all come back as the error variant so
// the model can read them.
func (r *Registry) Dispatch(ctx context.Context, name, callID string, args json.RawMessage) Result {
	ctx, span := instrumentation.StartToolSpan(ctx, name, callID)
	start := time.Now()

	var res Result
	e, ok := r.entries[name]
	if !ok {
		res = errorResult(KindUnknownTool, fmt.Errorf("%w: %q", ErrUnknownTool, name))
	} else {
		res = e.handler(ctx, args)
	}

	duration := time.Since(start)
	status := instrumentation.StatusSuccess
	var spanErr error
	if res.IsError() {
		status = instrumentation.StatusError
		spanErr = fmt.Errorf("%s: %s", res.Kind, res.Error)
	}
	r.metrics.RecordToolInvocation(ctx, name, status, duration)
	instrumentation.EndSpan(span, spanErr)

	r.logger.Info("tool dispatched",
		logging.Tool(name),
		logging.CallID(callID),
		logging.Status(string(res.Status)),
		logging.Duration(duration))
	if res.IsError() {
		r.logger.Warn("tool failed", logging.Tool(name), slog.String("kind", res.Kind), slog.String(logging.KeyError, res.Error))
	}
	return res
}

// decodeArgs unmarshals raw into v. Empty input is treated as an empty object.
func decodeArgs(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func invalidArgs(err error) Result {
	return errorResult(KindInvalidArguments, err)
}

func missingArg(field string) Result {
	return invalidArgs(fmt.Errorf("%w: %s is required", ErrInvalidArguments, field))
}
