// Package calendartest provides an in-memory fake of the Google Calendar v3
// events API for tests.
package calendartest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calendar-agent/internal/calendar"
)

// Request is one call received by the fake.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Server is a fake Calendar API backed by an in-memory event store.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	events   map[string][]*gcal.Event
	nextID   int
	requests []Request
	failCode int
}

// NewServer starts a fake seeded with events in the "primary" calendar.
// The server is closed when the test ends.
func NewServer(t testing.TB, events ...*gcal.Event) *Server {
	t.Helper()

	s := &Server{events: map[string][]*gcal.Event{}}
	for _, ev := range events {
		s.add(calendar.DefaultCalendarID, ev)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// Service returns a Calendar API service pointed at the fake.
func (s *Server) Service(t testing.TB) *gcal.Service {
	t.Helper()

	svc, err := gcal.NewService(context.Background(),
		option.WithEndpoint(s.srv.URL+"/"),
		option.WithHTTPClient(s.srv.Client()),
	)
	if err != nil {
		t.Fatalf("failed to create calendar service: %v", err)
	}
	return svc
}

// Client returns a gateway client pointed at the fake.
func (s *Server) Client(t testing.TB, opts ...calendar.Option) *calendar.Client {
	t.Helper()

	client, err := calendar.NewClient(s.Service(t), opts...)
	if err != nil {
		t.Fatalf("failed to create calendar client: %v", err)
	}
	return client
}

// FailWith makes every subsequent request fail with the given HTTP status.
// Zero restores normal behavior.
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCode = code
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Events returns a snapshot of a calendar's events.
func (s *Server) Events(calendarID string) []*gcal.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*gcal.Event(nil), s.events[calendarID]...)
}

func (s *Server) add(calendarID string, ev *gcal.Event) *gcal.Event {
	if ev.Id == "" {
		s.nextID++
		ev.Id = "evt" + strconv.Itoa(s.nextID)
	}
	if ev.HtmlLink == "" {
		ev.HtmlLink = "https://www.google.com/calendar/event?eid=" + ev.Id
	}
	s.events[calendarID] = append(s.events[calendarID], ev)
	return ev
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()})

	if s.failCode != 0 {
		writeError(w, s.failCode, http.StatusText(s.failCode))
		return
	}

	// calendars/{calendarId}/events[/{eventId}]
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "calendars" || parts[2] != "events" {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	calendarID := parts[1]

	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			s.list(w, r, calendarID)
		case http.MethodPost:
			s.insert(w, r, calendarID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		}
		return
	}

	eventID := parts[3]
	idx := s.find(calendarID, eventID)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.events[calendarID][idx])
	case http.MethodPatch:
		s.patch(w, r, s.events[calendarID][idx])
	case http.MethodDelete:
		evs := s.events[calendarID]
		s.events[calendarID] = append(evs[:idx:idx], evs[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (s *Server) find(calendarID, eventID string) int {
	for i, ev := range s.events[calendarID] {
		if ev.Id == eventID {
			return i
		}
	}
	return -1
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, calendarID string) {
	q := r.URL.Query()

	timeMin, minErr := time.Parse(time.RFC3339, q.Get("timeMin"))
	timeMax, maxErr := time.Parse(time.RFC3339, q.Get("timeMax"))
	if q.Get("timeMin") != "" && minErr != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	var items []*gcal.Event
	for _, ev := range s.events[calendarID] {
		start, ok := startOf(ev)
		if ok && minErr == nil && start.Before(timeMin) {
			continue
		}
		if ok && maxErr == nil && !start.Before(timeMax) {
			continue
		}
		items = append(items, ev)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, _ := startOf(items[i])
		b, _ := startOf(items[j])
		return a.Before(b)
	})

	if n, err := strconv.Atoi(q.Get("maxResults")); err == nil && n >= 0 && n < len(items) {
		items = items[:n]
	}

	writeJSON(w, &gcal.Events{Kind: "calendar#events", Items: items})
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request, calendarID string) {
	var ev gcal.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if ev.Start == nil || ev.End == nil {
		writeError(w, http.StatusBadRequest, "Missing end time.")
		return
	}
	writeJSON(w, s.add(calendarID, &ev))
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, ev *gcal.Event) {
	var in gcal.Event
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	if in.Summary != "" {
		ev.Summary = in.Summary
	}
	if in.Description != "" {
		ev.Description = in.Description
	}
	if in.Location != "" {
		ev.Location = in.Location
	}
	if in.ColorId != "" {
		ev.ColorId = in.ColorId
	}
	if in.Start != nil {
		ev.Start = in.Start
	}
	if in.End != nil {
		ev.End = in.End
	}
	if in.Reminders != nil {
		ev.Reminders = in.Reminders
	}
	if len(in.Recurrence) > 0 {
		ev.Recurrence = in.Recurrence
	}
	if len(in.Attendees) > 0 {
		ev.Attendees = in.Attendees
	}
	writeJSON(w, ev)
}

func startOf(ev *gcal.Event) (time.Time, bool) {
	if ev.Start == nil {
		return time.Time{}, false
	}
	if ev.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		return t, err == nil
	}
	t, err := time.Parse("2006-01-02", ev.Start.Date)
	return t, err == nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, message)
}

// Timed builds an event starting at start and lasting one hour.
func Timed(summary, description string, start time.Time) *gcal.Event {
	return &gcal.Event{
		Summary:     summary,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         &gcal.EventDateTime{DateTime: start.Add(time.Hour).Format(time.RFC3339), TimeZone: "UTC"},
	}
}
