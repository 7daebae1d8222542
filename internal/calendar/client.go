package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/logging"
	"github.com/teemow/calendar-agent/internal/timeutil"
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	clock   timeutil.Clock
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the clock used to resolve "now".
func WithClock(clock timeutil.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithMetrics records every API call on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewService creates the Calendar API service on top of an authenticated HTTP client.
func NewService(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*calendar.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return svc, nil
}

// NewClient creates a gateway around svc.
func NewClient(svc *calendar.Service, opts ...Option) (*Client, error) {
	if svc == nil {
		return nil, fmt.Errorf("calendar service cannot be nil")
	}

	c := &Client{svc: svc, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now returns the current time in the calendar boundary format.
func (c *Client) Now() string {
	return timeutil.Now(c.clock)
}

// Clock returns the clock the client resolves "now" with.
func (c *Client) Clock() timeutil.Clock {
	return c.clock
}

// ListEvents returns events ordered by start time. Recurring events are
// expanded into single instances. An empty slice means no events matched.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) ([]Event, error) {
	calendarID := calendarIDOrDefault(opts.CalendarID)

	start := opts.Start
	if start == "" {
		start = c.Now()
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	var items []*calendar.Event
	err := c.observe(ctx, instrumentation.OperationList, calendarID, func(ctx context.Context) error {
		call := c.svc.Events.List(calendarID).
			TimeMin(normalizeTimestamp(start)).
			MaxResults(maxResults).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if opts.End != "" {
			call = call.TimeMax(normalizeTimestamp(opts.End))
		}

		res, err := call.Do()
		if err != nil {
			return err
		}
		items = res.Items
		return nil
	})
	if err != nil {
		return nil, newError("get events", err)
	}

	events := make([]Event, 0, len(items))
	for _, item := range items {
		events = append(events, toEvent(item))
	}
	return events, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	calendarID = calendarIDOrDefault(calendarID)

	var ev *calendar.Event
	err := c.observe(ctx, instrumentation.OperationGet, calendarID, func(ctx context.Context) error {
		var err error
		ev, err = c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, newError("get event", err)
	}

	event := toEvent(ev)
	return &event, nil
}

// CreateEvent inserts payload as a new event. The service assigns its ID.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, payload *calendar.Event) (*Created, error) {
	calendarID = calendarIDOrDefault(calendarID)
	if payload == nil {
		return nil, &Error{Op: "create event", Kind: KindInvalid, Err: errors.New("event payload is required")}
	}

	var created *calendar.Event
	err := c.observe(ctx, instrumentation.OperationCreate, calendarID, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Events.Insert(calendarID, payload).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, newError("create event", err)
	}

	c.logger.Info("event created", logging.Calendar(calendarID), logging.EventID(created.Id))
	return &Created{
		Status: "success",
		Link:   created.HtmlLink,
		Event:  toEvent(created),
		ID:     created.Id,
	}, nil
}

// UpdateEvent changes the fields present in payload; everything else is kept.
func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, payload *calendar.Event) (string, error) {
	calendarID = calendarIDOrDefault(calendarID)
	if eventID == "" {
		return "", &Error{Op: "update event", Kind: KindInvalid, Err: errors.New("event ID is required")}
	}
	if payload == nil {
		return "", &Error{Op: "update event", Kind: KindInvalid, Err: errors.New("event payload is required")}
	}

	err := c.observe(ctx, instrumentation.OperationUpdate, calendarID, func(ctx context.Context) error {
		_, err := c.svc.Events.Patch(calendarID, eventID, payload).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", newError("update event", err)
	}

	c.logger.Info("event updated", logging.Calendar(calendarID), logging.EventID(eventID))
	return "Updated event: " + eventID, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) (string, error) {
	calendarID = calendarIDOrDefault(calendarID)
	if eventID == "" {
		return "", &Error{Op: "delete event", Kind: KindInvalid, Err: errors.New("event ID is required")}
	}

	err := c.observe(ctx, instrumentation.OperationDelete, calendarID, func(ctx context.Context) error {
		return c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return "", newError("delete event", err)
	}

	c.logger.Info("event deleted", logging.Calendar(calendarID), logging.EventID(eventID))
	return "Deleted event: " + eventID, nil
}

// observe runs fn inside a span and records its duration and outcome.
func (c *Client) observe(ctx context.Context, operation, calendarID string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation, calendarID)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, duration)
	instrumentation.EndSpan(span, err)

	c.logger.Debug("calendar api call",
		logging.Operation("calendar."+operation),
		logging.Calendar(calendarID),
		logging.Status(status),
		logging.Duration(duration),
		logging.Err(err))
	return err
}

func calendarIDOrDefault(id string) string {
	if id == "" {
		return DefaultCalendarID
	}
	return id
}

// normalizeTimestamp turns plain dates into RFC 3339 midnight local time.
// Unparseable values are passed through for the API to reject.
func normalizeTimestamp(s string) string {
	t, err := timeutil.Parse(s)
	if err != nil {
		return s
	}
	return timeutil.Format(t)
}
