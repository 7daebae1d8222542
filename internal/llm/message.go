package llm

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Role tags a conversation entry.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a request from the model to run a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation history.
//
// Assistant entries may carry tool calls; tool entries carry the ID of the
// call they answer in ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Response is what the model produced for one request.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Model is a language model that can call tools.
type Model interface {
	Respond(ctx context.Context, history []Message, tools []mcp.Tool) (*Response, error)
}

// DeveloperMessage builds the instruction entry that opens a session.
func DeveloperMessage(content string) Message {
	return Message{Role: RoleDeveloper, Content: content}
}

// UserMessage builds a user entry.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds the entry recording a model response.
func AssistantMessage(res *Response) Message {
	return Message{Role: RoleAssistant, Content: res.Text, ToolCalls: res.ToolCalls}
}

// ToolResultMessage builds the entry answering the tool call callID.
func ToolResultMessage(callID, payload string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: payload}
}
