package models

import "time"

// EventSummary is the subset of a calendar event surfaced to the agent
// when reporting conflicts.
type EventSummary struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityResult reports whether a half-open interval [start, end)
// overlaps any existing event on the calendar.
type AvailabilityResult struct {
	Busy              bool           `json:"busy"`
	ConflictingEvents []EventSummary `json:"conflicting_events,omitempty"`
}

// BookingRequest describes the event to create. Start and End are
// already validated and timezone-aware by the time they reach the
// calendar layer.
type BookingRequest struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BookingResult is returned after a successful insert. EventID is the
// upstream identifier; two identical requests yield two results with
// distinct IDs.
type BookingResult struct {
	EventID      string `json:"event_id"`
	HTMLLink     string `json:"html_link,omitempty"`
	Confirmation string `json:"confirmation"`
}
