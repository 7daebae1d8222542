package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-5"

// OpenAIConfig configures an OpenAIModel.
type OpenAIConfig struct {
	APIKey string
	Model  string

	// BaseURL points the client at an OpenAI-compatible endpoint. Empty means api.openai.com.
	BaseURL string

	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// OpenAIModel talks to the OpenAI chat completions API.
type OpenAIModel struct {
	client  *openai.Client
	model   string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewOpenAIModel creates a model client.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIModel{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		metrics: cfg.Metrics,
		logger:  logger,
	}, nil
}

// Name returns the configured model name.
func (m *OpenAIModel) Name() string {
	return m.model
}

// Respond sends the whole history and the tool schemas and returns the first choice.
func (m *OpenAIModel) Respond(ctx context.Context, history []Message, tools []mcp.Tool) (*Response, error) {
	defs, err := toOpenAITools(tools)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(history),
		Tools:    defs,
	}

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	m.metrics.RecordModelCall(ctx, m.model, status, duration)
	m.logger.Debug("model call",
		logging.Operation("model.respond"),
		slog.String("model", m.model),
		slog.Int("messages", len(history)),
		logging.Status(status),
		logging.Duration(duration),
		logging.Err(err))

	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	msg := resp.Choices[0].Message
	out := &Response{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toOpenAIMessages(history []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		m := openai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case RoleDeveloper:
			m.Role = openai.ChatMessageRoleSystem
		case RoleUser:
			m.Role = openai.ChatMessageRoleUser
		case RoleAssistant:
			m.Role = openai.ChatMessageRoleAssistant
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		case RoleTool:
			m.Role = openai.ChatMessageRoleTool
			m.ToolCallID = msg.ToolCallID
		default:
			m.Role = string(msg.Role)
		}
		out = append(out, m)
	}
	return out
}

func toOpenAITools(tools []mcp.Tool) ([]openai.Tool, error) {
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		params, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema of tool %s: %w", tool.Name, err)
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return out, nil
}
