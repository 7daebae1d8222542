package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultCalendarID is used whenever no calendar is named.
const DefaultCalendarID = "primary"

// Event is the slice of a Google Calendar event the agent works with.
// Nested metadata uses the API types so it is carried through unmodified.
type Event struct {
	ID               string                    `json:"id"`
	ETag             string                    `json:"etag,omitempty"`
	Summary          string                    `json:"summary,omitempty"`
	Description      string                    `json:"description,omitempty"`
	Location         string                    `json:"location,omitempty"`
	Status           string                    `json:"status,omitempty"`
	ColorID          string                    `json:"colorId,omitempty"`
	Start            *calendar.EventDateTime   `json:"start,omitempty"`
	End              *calendar.EventDateTime   `json:"end,omitempty"`
	Creator          *calendar.EventCreator    `json:"creator,omitempty"`
	Organizer        *calendar.EventOrganizer  `json:"organizer,omitempty"`
	Attendees        []*calendar.EventAttendee `json:"attendees,omitempty"`
	Recurrence       []string                  `json:"recurrence,omitempty"`
	RecurringEventID string                    `json:"recurringEventId,omitempty"`
	Reminders        *calendar.EventReminders  `json:"reminders,omitempty"`
	EventType        string                    `json:"eventType,omitempty"`
	HTMLLink         string                    `json:"htmlLink,omitempty"`
}

// ListOptions selects the events returned by ListEvents.
type ListOptions struct {
	// CalendarID defaults to "primary".
	CalendarID string

	// Start is the lower bound (RFC 3339 or YYYY-MM-DD). Empty means now.
	Start string

	// End is the upper bound. Empty means unbounded.
	End string

	// MaxResults defaults to DefaultMaxResults.
	MaxResults int64
}

// DefaultMaxResults is the page size used when ListOptions.MaxResults is zero.
const DefaultMaxResults = 20

// MaxPageSize is the largest page the Calendar API returns.
const MaxPageSize = 2500

// Created is the outcome of a successful CreateEvent.
type Created struct {
	Status string `json:"status"`
	Link   string `json:"link"`
	Event  Event  `json:"event"`
	ID     string `json:"id"`
}

// toEvent converts an API event. A nil event yields the zero Event.
func toEvent(ev *calendar.Event) Event {
	if ev == nil {
		return Event{}
	}
	return Event{
		ID:               ev.Id,
		ETag:             ev.Etag,
		Summary:          ev.Summary,
		Description:      ev.Description,
		Location:         ev.Location,
		Status:           ev.Status,
		ColorID:          ev.ColorId,
		Start:            ev.Start,
		End:              ev.End,
		Creator:          ev.Creator,
		Organizer:        ev.Organizer,
		Attendees:        ev.Attendees,
		Recurrence:       ev.Recurrence,
		RecurringEventID: ev.RecurringEventId,
		Reminders:        ev.Reminders,
		EventType:        ev.EventType,
		HTMLLink:         ev.HtmlLink,
	}
}
