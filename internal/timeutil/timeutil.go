package timeutil

import (
	"os"
	"time"
)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

// Layout is the timestamp format used at the calendar boundary.
const Layout = time.RFC3339

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Now returns the current local time truncated to seconds, formatted as RFC 3339
// with the local UTC offset (e.g. 2025-03-04T10:15:00-05:00).
func Now(c Clock) string {
	return Format(c.now())
}

// Horizon returns the instant the given number of years after now.
func Horizon(c Clock, years int) string {
	return Format(c.now().AddDate(years, 0, 0))
}

// Format renders t in the calendar boundary format.
func Format(t time.Time) string {
	return t.Truncate(time.Second).Format(Layout)
}

// Parse accepts either an RFC 3339 timestamp or a plain date (YYYY-MM-DD).
func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// ZoneName returns the label of the local timezone: the TZ environment
// variable when it names a location, otherwise the zone abbreviation.
func ZoneName(c Clock) string {
	if tz := os.Getenv("TZ"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz
		}
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	name, _ := c.now().Zone()
	return name
}
