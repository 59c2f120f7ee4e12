package calendar

import (
	"context"
	"time"

	"tailortalk/models"
)

// CalendarService answers availability queries and books events against a
// single Google calendar.
type CalendarService interface {
	// CheckAvailability reports whether the half-open interval
	// [start, end) overlaps any existing event.
	CheckAvailability(ctx context.Context, start, end time.Time) (*models.AvailabilityResult, error)

	// CreateEvent books the requested event and returns its upstream ID.
	// Calls are not idempotent; identical requests create distinct events.
	CreateEvent(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
}
