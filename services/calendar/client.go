package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"tailortalk/models"
	"tailortalk/utils"
)

// eventsAPI is the slice of the Calendar events API the service touches.
// Production wires googleEventsAPI; tests substitute a fake.
type eventsAPI interface {
	List(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (*calendar.Events, error)
	Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
}

// googleEventsAPI adapts *calendar.Service to eventsAPI.
type googleEventsAPI struct {
	svc *calendar.Service
}

func (g *googleEventsAPI) List(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (*calendar.Events, error) {
	// timeMin/timeMax bound the query to events overlapping the interval;
	// SingleEvents expands recurring series into concrete instances.
	return g.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
}

func (g *googleEventsAPI) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
}

// DefaultCalendarService implements CalendarService against the Google
// Calendar v3 API.
type DefaultCalendarService struct {
	API        eventsAPI
	CalendarID string
	Timezone   *time.Location
}

// NewDefaultCalendarService wires the service around an authenticated
// *calendar.Service, typically from NewService.
func NewDefaultCalendarService(svc *calendar.Service, calendarID string, tz *time.Location) *DefaultCalendarService {
	return &DefaultCalendarService{
		API:        &googleEventsAPI{svc: svc},
		CalendarID: calendarID,
		Timezone:   tz,
	}
}

// CheckAvailability reports whether [start, end) overlaps any event on the
// calendar. The range is validated before any network call is made.
func (s *DefaultCalendarService) CheckAvailability(ctx context.Context, start, end time.Time) (*models.AvailabilityResult, error) {
	if !end.After(start) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	events, err := s.API.List(ctx, s.CalendarID, start, end)
	if err != nil {
		return nil, mapGoogleError("availability check", err)
	}

	result := &models.AvailabilityResult{Busy: len(events.Items) > 0}
	for _, item := range events.Items {
		result.ConflictingEvents = append(result.ConflictingEvents, toEventSummary(item, s.Timezone))
	}
	return result, nil
}

// CreateEvent books req on the calendar. Every call inserts a fresh event;
// re-sending an identical request yields a second event with its own ID.
func (s *DefaultCalendarService) CreateEvent(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	if !req.End.After(req.Start) {
		return nil, &InvalidRangeError{Start: req.Start, End: req.End}
	}

	event := &calendar.Event{
		Summary: req.Title,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: s.Timezone.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: s.Timezone.String(),
		},
	}

	created, err := s.API.Insert(ctx, s.CalendarID, event)
	if err != nil {
		return nil, mapGoogleError("event insert", err)
	}

	utils.GetLogger().Info("Event booked",
		zap.String("event_id", created.Id),
		zap.String("title", req.Title),
	)

	confirmation := fmt.Sprintf("Success! The appointment %q has been booked for %s.",
		req.Title, req.Start.In(s.Timezone).Format("Monday, January 2 at 3:04 PM"))
	if created.HtmlLink != "" {
		confirmation += " Event link: " + created.HtmlLink
	}

	return &models.BookingResult{
		EventID:      created.Id,
		HTMLLink:     created.HtmlLink,
		Confirmation: confirmation,
	}, nil
}

// mapGoogleError folds API failures into the package error types. 401 and
// 403 mean our credentials lack access; 404 is included because the API
// reports calendars we cannot see as not found. Everything else is treated
// as transient.
func mapGoogleError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return &PermissionDeniedError{Op: op, Err: err}
		}
	}
	return &UpstreamUnavailableError{Op: op, Err: err}
}

// toEventSummary flattens an API event into the shape surfaced to the
// agent when reporting conflicts.
func toEventSummary(event *calendar.Event, tz *time.Location) models.EventSummary {
	summary := models.EventSummary{Title: event.Summary}
	if summary.Title == "" {
		summary.Title = "(untitled)"
	}
	summary.Start = parseEventTime(event.Start, tz)
	summary.End = parseEventTime(event.End, tz)
	return summary
}

// parseEventTime handles both timed (DateTime) and all-day (Date) events.
func parseEventTime(edt *calendar.EventDateTime, tz *time.Location) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t.In(tz)
		}
		return time.Time{}
	}
	if t, err := time.ParseInLocation("2006-01-02", edt.Date, tz); err == nil {
		return t
	}
	return time.Time{}
}
