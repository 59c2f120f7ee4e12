package calendar

import (
	"fmt"
	"time"
)

// InvalidRangeError reports a request whose end does not come after its
// start. It is raised before any network call is made.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range: end %s is not after start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// PermissionDeniedError signals the calendar rejected our credentials for
// the attempted operation.
type PermissionDeniedError struct {
	Op  string
	Err error
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("calendar permission denied during %s: %v", e.Op, e.Err)
}

func (e *PermissionDeniedError) Unwrap() error { return e.Err }

// UpstreamUnavailableError signals a transient upstream failure such as a
// network error, timeout, or 5xx from the Calendar API.
type UpstreamUnavailableError struct {
	Op  string
	Err error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("calendar unavailable during %s: %v", e.Op, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }
