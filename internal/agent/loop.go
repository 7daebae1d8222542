package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/llm"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/timeutil"
	"github.com/teemow/calendar-agent/internal/tools"
)

// DefaultMaxToolRounds bounds the model calls made for one user message.
const DefaultMaxToolRounds = 10

// EmptyReply is shown when the model answers with neither text nor tool calls.
const EmptyReply = "(the assistant returned an empty response)"

// ErrToolRoundsExceeded is returned by Turn when the model keeps calling tools
// past the configured limit.
var ErrToolRoundsExceeded = errors.New("too many consecutive tool rounds")

// Dispatcher runs tool calls. *tools.Registry implements it.
type Dispatcher interface {
	Tools() []mcp.Tool
	Dispatch(ctx context.Context, name, callID string, args json.RawMessage) tools.Result
}

// Config configures a Loop.
type Config struct {
	Model llm.Model
	Tools Dispatcher

	// MaxToolRounds defaults to DefaultMaxToolRounds.
	MaxToolRounds int

	// RequestTimeout bounds each model call and each tool dispatch. Zero means no limit.
	RequestTimeout time.Duration

	Clock  timeutil.Clock
	Logger *slog.Logger
}

// Loop is the orchestration state of one conversation.
type Loop struct {
	model     llm.Model
	tools     Dispatcher
	maxRounds int
	timeout   time.Duration
	session   string
	logger    *slog.Logger

	history  []llm.Message
	awaiting bool
}

// New starts a conversation. The history opens with the developer prompt.
func New(cfg Config) (*Loop, error) {
	if cfg.Model == nil {
		return nil, errors.New("model is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := uuid.NewString()
	return &Loop{
		model:     cfg.Model,
		tools:     cfg.Tools,
		maxRounds: maxRounds,
		timeout:   cfg.RequestTimeout,
		session:   session,
		logger:    logging.WithSession(logger, session),
		history:   []llm.Message{llm.DeveloperMessage(DeveloperPrompt(cfg.Clock))},
	}, nil
}

// Session returns the session ID attached to every log record.
func (l *Loop) Session() string {
	return l.session
}

// History returns a copy of the conversation so far.
func (l *Loop) History() []llm.Message {
	return append([]llm.Message(nil), l.history...)
}

// Awaiting reports whether the last model response still waits on tool results.
func (l *Loop) Awaiting() bool {
	return l.awaiting
}

// Turn handles one user message and returns the assistant's reply.
//
// Every tool call in a model response is answered by exactly one tool result
// with the same call ID before the model is called again. A model failure is
// returned as an error; the history stays consistent and the next Turn can
// proceed.
func (l *Loop) Turn(ctx context.Context, input string) (string, error) {
	l.history = append(l.history, llm.UserMessage(input))
	l.awaiting = false

	for round := 1; ; round++ {
		if round > l.maxRounds {
			l.awaiting = false
			l.logger.Warn("tool round limit reached", slog.Int("max_tool_rounds", l.maxRounds))
			return "", fmt.Errorf("%w (limit %d)", ErrToolRoundsExceeded, l.maxRounds)
		}

		res, err := l.respond(ctx)
		if err != nil {
			l.awaiting = false
			return "", err
		}
		if strings.TrimSpace(res.Text) == "" && len(res.ToolCalls) == 0 {
			// The chat API rejects assistant entries with neither content nor tool calls.
			l.history = append(l.history, llm.AssistantMessage(&llm.Response{Text: EmptyReply}))
			l.awaiting = false
			l.logger.Warn("model returned neither text nor tool calls")
			return EmptyReply, nil
		}
		l.history = append(l.history, llm.AssistantMessage(res))

		for _, call := range res.ToolCalls {
			l.history = append(l.history, llm.ToolResultMessage(call.ID, l.dispatch(ctx, call)))
		}

		if strings.TrimSpace(res.Text) != "" {
			l.awaiting = false
			return res.Text, nil
		}
		l.awaiting = true
	}
}

func (l *Loop) respond(ctx context.Context) (*llm.Response, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	ctx, span := instrumentation.StartModelSpan(ctx, l.session)
	res, err := l.model.Respond(ctx, l.history, l.tools.Tools())
	instrumentation.EndSpan(span, err)
	if err != nil {
		l.logger.Error("model call failed", logging.Err(err))
		return nil, err
	}

	l.logger.Debug("model responded",
		slog.Int("tool_calls", len(res.ToolCalls)),
		slog.Bool("has_text", strings.TrimSpace(res.Text) != ""))
	return res, nil
}

func (l *Loop) dispatch(ctx context.Context, call llm.ToolCall) string {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	res := l.tools.Dispatch(ctx, call.Name, call.ID, json.RawMessage(call.Arguments))
	return res.JSON()
}

func (l *Loop) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout > 0 {
		return context.WithTimeout(ctx, l.timeout)
	}
	return context.WithCancel(ctx)
}
