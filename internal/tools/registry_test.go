package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/calendar/calendartest"
	"github.com/teemow/calendar-agent/internal/search"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newTestRegistry(t *testing.T, fake *calendartest.Server) *Registry {
	t.Helper()
	client := fake.Client(t, calendar.WithClock(fixedClock))
	engine := search.NewEngine(client, search.WithClock(fixedClock))
	return NewRegistry(client, engine)
}

func dispatch(t *testing.T, r *Registry, name, args string) Result {
	t.Helper()
	return r.Dispatch(context.Background(), name, "call_1", json.RawMessage(args))
}

func TestRegistry_Tools(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	assert.Equal(t, []string{ListEventsTool, CreateEventTool, UpdateEventTool, DeleteEventTool, GetEventTool, SearchEventTool}, r.Names())

	tools := r.Tools()
	require.Len(t, tools, 6)
	assert.Equal(t, []string{"event"}, tools[1].InputSchema.Required)
	assert.ElementsMatch(t, []string{"eventId", "event"}, tools[2].InputSchema.Required)
	assert.Equal(t, []string{"eventId"}, tools[3].InputSchema.Required)
	assert.Equal(t, []string{"eventId"}, tools[4].InputSchema.Required)
	assert.Contains(t, tools[0].InputSchema.Properties, "max_amount")
}

func TestRegistry_WithoutSearcher(t *testing.T) {
	fake := calendartest.NewServer(t)
	r := NewRegistry(fake.Client(t), nil)

	assert.NotContains(t, r.Names(), SearchEventTool)
	res := dispatch(t, r, SearchEventTool, `{"keyword":"x"}`)
	assert.Equal(t, KindUnknownTool, res.Kind)
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	res := dispatch(t, r, "launch_rocket", `{}`)
	assert.True(t, res.IsError())
	assert.Equal(t, KindUnknownTool, res.Kind)
	assert.Contains(t, res.Error, "launch_rocket")
}

func TestDispatch_ListEvents(t *testing.T) {
	fake := calendartest.NewServer(t,
		calendartest.Timed("Dentist appt", "", now.Add(2*time.Hour)),
		calendartest.Timed("Lunch", "", now.Add(4*time.Hour)),
	)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, ListEventsTool, `{"max_amount": 1}`)
	require.Equal(t, StatusEvents, res.Status)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Dentist appt", res.Events[0].Summary)
	assert.Equal(t, "1", fake.Requests()[0].Query.Get("maxResults"))
}

func TestDispatch_ListEvents_Empty(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	res := dispatch(t, r, ListEventsTool, ``)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.JSONEq(t, `{"status":"empty"}`, res.JSON())
}

func TestDispatch_ListEvents_InvalidArguments(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	tests := []struct {
		name string
		args string
	}{
		{"malformed json", `{"max_amount":`},
		{"wrong type", `{"max_amount":"five"}`},
		{"fractional amount", `{"max_amount":1.5}`},
		{"zero amount", `{"max_amount":0}`},
		{"bad start", `{"start_date":"next tuesday"}`},
		{"bad end", `{"end_date":"2025-13-45"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := dispatch(t, r, ListEventsTool, tt.args)
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, KindInvalidArguments, res.Kind)
		})
	}
}

func TestDispatch_ListEvents_TransportError(t *testing.T) {
	fake := calendartest.NewServer(t)
	fake.FailWith(http.StatusServiceUnavailable)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, ListEventsTool, `{}`)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, string(calendar.KindTransport), res.Kind)
}

func TestDispatch_CreateEvent(t *testing.T) {
	fake := calendartest.NewServer(t)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, CreateEventTool, `{"event":{
		"summary":"test",
		"colorId":"3",
		"start":{"dateTime":"2025-03-02T12:00:00Z","timeZone":"UTC"},
		"end":{"dateTime":"2025-03-02T13:00:00Z","timeZone":"UTC"},
		"reminders":{"useDefault":false,"overrides":[{"method":"popup","minutes":30}]}
	}}`)
	require.Equal(t, StatusOK, res.Status, res.Error)
	assert.Equal(t, "success", res.Message)
	assert.NotEmpty(t, res.ID)
	assert.NotEmpty(t, res.Link)
	require.NotNil(t, res.Event)
	assert.Equal(t, "3", res.Event.ColorID)

	stored := fake.Events(calendar.DefaultCalendarID)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Reminders)
	require.Len(t, stored[0].Reminders.Overrides, 1)
	assert.Equal(t, int64(30), stored[0].Reminders.Overrides[0].Minutes)
}

func TestDispatch_CreateEvent_MissingEvent(t *testing.T) {
	fake := calendartest.NewServer(t)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, CreateEventTool, `{}`)
	assert.Equal(t, KindInvalidArguments, res.Kind)
	assert.Contains(t, res.Error, "event is required")
	assert.Empty(t, fake.Requests())
}

func TestDispatch_UpdateEvent(t *testing.T) {
	seed := calendartest.Timed("test", "", now.Add(24*time.Hour))
	fake := calendartest.NewServer(t, seed)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, UpdateEventTool, `{"eventId":"`+seed.Id+`","event":{"summary":"free time","colorId":"11"}}`)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "Updated event: "+seed.Id, res.Message)

	stored := fake.Events(calendar.DefaultCalendarID)
	assert.Equal(t, "free time", stored[0].Summary)
	assert.Equal(t, "11", stored[0].ColorId)
}

func TestDispatch_UpdateEvent_MissingID(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	res := dispatch(t, r, UpdateEventTool, `{"event":{"summary":"x"}}`)
	assert.Equal(t, KindInvalidArguments, res.Kind)
	assert.Contains(t, res.Error, "eventId is required")
}

func TestDispatch_DeleteEvent(t *testing.T) {
	seed := calendartest.Timed("test", "", now.Add(24*time.Hour))
	fake := calendartest.NewServer(t, seed)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, DeleteEventTool, `{"eventId":"`+seed.Id+`"}`)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "Deleted event: "+seed.Id, res.Message)
	assert.Empty(t, fake.Events(calendar.DefaultCalendarID))
}

func TestDispatch_DeleteEvent_NotFound(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	res := dispatch(t, r, DeleteEventTool, `{"eventId":"does-not-exist"}`)
	assert.True(t, res.IsError())
	assert.Equal(t, string(calendar.KindNotFound), res.Kind)
	assert.Contains(t, res.Error, "could not delete event")
}

func TestDispatch_GetEvent(t *testing.T) {
	seed := calendartest.Timed("Dentist appt", "bring x-rays", now.Add(24*time.Hour))
	fake := calendartest.NewServer(t, seed)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, GetEventTool, `{"eventId":"`+seed.Id+`"}`)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, seed.Id, res.ID)
	assert.Equal(t, seed.HtmlLink, res.Link)
	require.NotNil(t, res.Event)
	assert.Equal(t, "Dentist appt", res.Event.Summary)
	assert.Equal(t, "bring x-rays", res.Event.Description)
}

func TestDispatch_GetEvent_Errors(t *testing.T) {
	r := newTestRegistry(t, calendartest.NewServer(t))

	res := dispatch(t, r, GetEventTool, `{}`)
	assert.Equal(t, KindInvalidArguments, res.Kind)
	assert.Contains(t, res.Error, "eventId is required")

	res = dispatch(t, r, GetEventTool, `{"eventId":"does-not-exist"}`)
	assert.True(t, res.IsError())
	assert.Equal(t, string(calendar.KindNotFound), res.Kind)
}

func TestDispatch_SearchEvent(t *testing.T) {
	fake := calendartest.NewServer(t,
		calendartest.Timed("Dentist appt", "", now.Add(24*time.Hour)),
		calendartest.Timed("Lunch", "", now.Add(48*time.Hour)),
	)
	r := newTestRegistry(t, fake)

	res := dispatch(t, r, SearchEventTool, `{"keyword":"Dentist"}`)
	require.Equal(t, StatusEvents, res.Status)
	assert.Equal(t, string(search.MatchExact), res.Match)
	require.Len(t, res.Events, 1)

	res = dispatch(t, r, SearchEventTool, `{"keyword":"Dentst"}`)
	require.Equal(t, StatusEvents, res.Status)
	assert.Equal(t, string(search.MatchClose), res.Match)
	assert.Equal(t, "Dentist appt", res.Events[0].Summary)

	res = dispatch(t, r, SearchEventTool, `{"keyword":"Board meeting"}`)
	assert.Equal(t, StatusEmpty, res.Status)

	res = dispatch(t, r, SearchEventTool, `{"keyword":"  "}`)
	assert.Equal(t, KindInvalidArguments, res.Kind)
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, string) (search.Result, error) {
	return search.Result{}, errors.New("timeout")
}

func TestDispatch_SearchEvent_Failure(t *testing.T) {
	fake := calendartest.NewServer(t)
	r := NewRegistry(fake.Client(t), failingSearcher{})

	res := dispatch(t, r, SearchEventTool, `{"keyword":"dentist"}`)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, string(calendar.KindTransport), res.Kind)
}

func TestRegistry_WithCalendarID(t *testing.T) {
	fake := calendartest.NewServer(t)
	r := NewRegistry(fake.Client(t), nil, WithCalendarID("work@example.com"))

	res := dispatch(t, r, ListEventsTool, `{}`)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Equal(t, "/calendars/work@example.com/events", fake.Requests()[0].Path)
}

func TestMCPHandler(t *testing.T) {
	seed := calendartest.Timed("Dentist appt", "", now.Add(24*time.Hour))
	r := newTestRegistry(t, calendartest.NewServer(t, seed))

	req := mcp.CallToolRequest{}
	req.Params.Name = SearchEventTool
	req.Params.Arguments = map[string]any{"keyword": "dentist"}

	result, err := r.mcpHandler(SearchEventTool)(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"status":"events"`)

	req.Params.Arguments = map[string]any{}
	result, err = r.mcpHandler(DeleteEventTool)(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
