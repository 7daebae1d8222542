// Package timeutil resolves "now" and relative horizons into the RFC 3339
// timestamps the Google Calendar API expects.
//
// Every helper takes a Clock so callers evaluate the current time when the
// request is made, never when a default value is set up.
package timeutil
