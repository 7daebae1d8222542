package tools

import (
	"encoding/json"
	"errors"

	"github.com/teemow/calendar-agent/internal/calendar"
)

// Status tags the variant of a Result.
type Status string

const (
	StatusEvents Status = "events"
	StatusEmpty  Status = "empty"
	StatusOK     Status = "ok"
	StatusError  Status = "error"
)

// Error kinds produced by the registry itself. Gateway failures use the
// calendar.ErrorKind values.
const (
	KindUnknownTool      = "unknown_tool"
	KindInvalidArguments = "invalid_arguments"
)

var (
	// ErrUnknownTool is returned for a tool name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments wraps every argument decoding or validation failure.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Result is the payload of one tool call, serialized into the tool-result
// entry the model reads.
type Result struct {
	Status  Status           `json:"status"`
	Match   string           `json:"match,omitempty"`
	Events  []calendar.Event `json:"events,omitempty"`
	ID      string           `json:"id,omitempty"`
	Link    string           `json:"link,omitempty"`
	Event   *calendar.Event  `json:"event,omitempty"`
	Message string           `json:"message,omitempty"`
	Kind    string           `json:"kind,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// IsError reports whether the result is the error variant.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// JSON serializes the result.
func (r Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Only reachable if an event carries unencodable metadata.
		return `{"status":"error","kind":"internal","error":"could not encode tool result"}`
	}
	return string(data)
}

func eventsResult(events []calendar.Event, match string) Result {
	if len(events) == 0 {
		return Result{Status: StatusEmpty}
	}
	return Result{Status: StatusEvents, Events: events, Match: match}
}

func okResult(message string) Result {
	return Result{Status: StatusOK, Message: message}
}

func errorResult(kind string, err error) Result {
	return Result{Status: StatusError, Kind: kind, Error: err.Error()}
}

func gatewayError(err error) Result {
	return errorResult(string(calendar.KindOf(err)), err)
}
