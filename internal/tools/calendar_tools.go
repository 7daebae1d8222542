package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/timeutil"
)

// Tool names.
const (
	ListEventsTool  = "list_events"
	CreateEventTool = "create_event"
	UpdateEventTool = "update_event"
	DeleteEventTool = "delete_event"
	GetEventTool    = "get_event"
	SearchEventTool = "search_event"
)

// eventProperties describes the Google Calendar event resource fields the
// model is expected to fill in. Other resource fields are passed through.
var eventProperties = map[string]any{
	"summary":     map[string]any{"type": "string", "description": "Event title"},
	"description": map[string]any{"type": "string", "description": "Event description"},
	"location":    map[string]any{"type": "string", "description": "Event location"},
	"colorId":     map[string]any{"type": "string", "description": "Event color ID ('1' to '11', '11' is red)"},
	"start": map[string]any{
		"type":        "object",
		"description": "Start as {dateTime, timeZone} for timed events or {date} for all-day events",
		"properties": map[string]any{
			"dateTime": map[string]any{"type": "string", "description": "RFC3339 timestamp"},
			"date":     map[string]any{"type": "string", "description": "YYYY-MM-DD"},
			"timeZone": map[string]any{"type": "string", "description": "IANA time zone name"},
		},
	},
	"end": map[string]any{
		"type":        "object",
		"description": "End, same shape as start",
		"properties": map[string]any{
			"dateTime": map[string]any{"type": "string", "description": "RFC3339 timestamp"},
			"date":     map[string]any{"type": "string", "description": "YYYY-MM-DD"},
			"timeZone": map[string]any{"type": "string", "description": "IANA time zone name"},
		},
	},
	"recurrence": map[string]any{
		"type":        "array",
		"description": "RRULE lines, e.g. 'RRULE:FREQ=DAILY'",
		"items":       map[string]any{"type": "string"},
	},
	"reminders": map[string]any{
		"type":        "object",
		"description": "{useDefault, overrides: [{method, minutes}]}; useDefault false with no overrides removes reminders",
	},
}

func (r *Registry) registerCalendarTools() {
	r.register(mcp.NewTool(ListEventsTool,
		mcp.WithDescription("List upcoming calendar events ordered by start time"),
		mcp.WithString("start_date",
			mcp.Description("Lower bound (RFC3339, e.g. '2025-01-15T00:00:00-05:00'). Defaults to now."),
		),
		mcp.WithString("end_date",
			mcp.Description("Upper bound (RFC3339). Empty means no upper bound."),
		),
		mcp.WithNumber("max_amount",
			mcp.Description("Maximum number of events to return (default 20). Use 1 for 'my next event'."),
		),
	), r.handleListEvents)

	r.register(mcp.NewTool(CreateEventTool,
		mcp.WithDescription("Create a calendar event (supports recurrence, colors and reminders)"),
		mcp.WithObject("event",
			mcp.Required(),
			mcp.Description("Google Calendar event resource"),
			mcp.Properties(eventProperties),
		),
	), r.handleCreateEvent)

	r.register(mcp.NewTool(UpdateEventTool,
		mcp.WithDescription("Update an existing calendar event; only the supplied fields change"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithObject("event",
			mcp.Required(),
			mcp.Description("Event fields to change"),
			mcp.Properties(eventProperties),
		),
	), r.handleUpdateEvent)

	r.register(mcp.NewTool(DeleteEventTool,
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	), r.handleDeleteEvent)

	r.register(mcp.NewTool(GetEventTool,
		mcp.WithDescription("Get a single calendar event by ID, e.g. to check it after an update"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to fetch"),
		),
	), r.handleGetEvent)

	if r.searcher != nil {
		r.register(mcp.NewTool(SearchEventTool,
			mcp.WithDescription("Find events in the coming year by a keyword from their title or description; tolerates typos"),
			mcp.WithString("keyword",
				mcp.Required(),
				mcp.Description("Word or phrase to look for, e.g. 'dentist'"),
			),
		), r.handleSearchEvent)
	}
}

type listEventsArgs struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	MaxAmount *float64 `json:"max_amount"`
}

func (r *Registry) handleListEvents(ctx context.Context, raw json.RawMessage) Result {
	var args listEventsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}

	bounds := []struct{ field, value string }{
		{"start_date", args.StartDate},
		{"end_date", args.EndDate},
	}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		if _, err := timeutil.Parse(b.value); err != nil {
			return invalidArgs(fmt.Errorf("%w: %s must be an RFC3339 timestamp or YYYY-MM-DD date, got %q", ErrInvalidArguments, b.field, b.value))
		}
	}

	var maxResults int64
	if args.MaxAmount != nil {
		n := *args.MaxAmount
		if n < 1 || n != math.Trunc(n) {
			return invalidArgs(fmt.Errorf("%w: max_amount must be a positive integer", ErrInvalidArguments))
		}
		maxResults = int64(n)
	}

	events, err := r.gateway.ListEvents(ctx, calendar.ListOptions{
		CalendarID: r.calendarID,
		Start:      args.StartDate,
		End:        args.EndDate,
		MaxResults: maxResults,
	})
	if err != nil {
		return gatewayError(err)
	}
	return eventsResult(events, "")
}

type eventArgs struct {
	EventID string      `json:"eventId"`
	Event   *gcal.Event `json:"event"`
}

func (r *Registry) handleCreateEvent(ctx context.Context, raw json.RawMessage) Result {
	var args eventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}
	if args.Event == nil {
		return missingArg("event")
	}

	created, err := r.gateway.CreateEvent(ctx, r.calendarID, args.Event)
	if err != nil {
		return gatewayError(err)
	}
	return Result{
		Status:  StatusOK,
		Message: created.Status,
		ID:      created.ID,
		Link:    created.Link,
		Event:   &created.Event,
	}
}

func (r *Registry) handleUpdateEvent(ctx context.Context, raw json.RawMessage) Result {
	var args eventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}
	if strings.TrimSpace(args.EventID) == "" {
		return missingArg("eventId")
	}
	if args.Event == nil {
		return missingArg("event")
	}

	msg, err := r.gateway.UpdateEvent(ctx, r.calendarID, args.EventID, args.Event)
	if err != nil {
		return gatewayError(err)
	}
	return okResult(msg)
}

func (r *Registry) handleDeleteEvent(ctx context.Context, raw json.RawMessage) Result {
	var args eventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}
	if strings.TrimSpace(args.EventID) == "" {
		return missingArg("eventId")
	}

	msg, err := r.gateway.DeleteEvent(ctx, r.calendarID, args.EventID)
	if err != nil {
		return gatewayError(err)
	}
	return okResult(msg)
}

func (r *Registry) handleGetEvent(ctx context.Context, raw json.RawMessage) Result {
	var args eventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}
	if strings.TrimSpace(args.EventID) == "" {
		return missingArg("eventId")
	}

	event, err := r.gateway.GetEvent(ctx, r.calendarID, args.EventID)
	if err != nil {
		return gatewayError(err)
	}
	return Result{Status: StatusOK, ID: event.ID, Link: event.HTMLLink, Event: event}
}

type searchEventArgs struct {
	Keyword string `json:"keyword"`
}

func (r *Registry) handleSearchEvent(ctx context.Context, raw json.RawMessage) Result {
	var args searchEventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return invalidArgs(err)
	}
	keyword := strings.TrimSpace(args.Keyword)
	if keyword == "" {
		return missingArg("keyword")
	}

	res, err := r.searcher.Search(ctx, keyword, r.calendarID)
	if err != nil {
		return gatewayError(err)
	}
	return eventsResult(res.Events, string(res.Match))
}
