package calendar

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// KindTransport covers network failures, timeouts and unexpected server errors.
	KindTransport ErrorKind = "transport"
	// KindNotFound means the event or calendar does not exist (or was already deleted).
	KindNotFound ErrorKind = "not_found"
	// KindInvalid means the service rejected the request payload.
	KindInvalid ErrorKind = "invalid_request"
	// KindUnauthorized means the credentials lack access.
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is returned by every Client operation.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("could not %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a gateway error, or KindTransport for any other error.
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindTransport
}

func newError(op string, err error) *Error {
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return KindTransport
	}

	switch apiErr.Code {
	case http.StatusNotFound, http.StatusGone:
		return KindNotFound
	case http.StatusBadRequest:
		return KindInvalid
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	default:
		return KindTransport
	}
}
