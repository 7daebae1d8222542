package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested during authorization.
// Full calendar access is needed to create, update and delete events.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}
