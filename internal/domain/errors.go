package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedStats reports a daily-statistics export whose header or
// required columns are missing. It is distinct from row-level problems,
// which are skipped: a malformed file must propagate so the caller can fall
// back to the static event list.
var ErrMalformedStats = errors.New("malformed daily statistics")

// StatusError reports a non-2xx response from one of the external feeds,
// carrying the status code and reason for the caller's logs.
type StatusError struct {
	Feed   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s feed: unexpected status %d %s", e.Feed, e.Code, e.Status)
}
