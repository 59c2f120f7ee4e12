package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"tailortalk/models"
	"tailortalk/services/calendar"
)

const (
	checkAvailabilityToolName = "check_calendar_availability"
	bookAppointmentToolName   = "book_appointment"
)

// CheckAvailabilityTool lets the model probe the calendar for conflicts
// before committing to a booking.
type CheckAvailabilityTool struct {
	Calendar        calendar.CalendarService
	Timezone        *time.Location
	DefaultDuration time.Duration
}

func (t *CheckAvailabilityTool) Name() string { return checkAvailabilityToolName }

func (t *CheckAvailabilityTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        checkAvailabilityToolName,
		Description: "Check whether a time slot is free in the calendar. Returns the conflicting events when the slot is busy.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"start_time": {
					Type:        genai.TypeString,
					Format:      "date-time",
					Description: "Slot start in ISO 8601 format, e.g. 2025-07-04T11:00:00+05:30.",
				},
				"end_time": {
					Type:        genai.TypeString,
					Format:      "date-time",
					Description: "Slot end in ISO 8601 format. Defaults to one hour after start_time.",
				},
			},
			Required: []string{"start_time"},
		},
	}
}

func (t *CheckAvailabilityTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	start, end, err := extractRange(args, t.Timezone, t.DefaultDuration, t.Name())
	if err != nil {
		return "", err
	}

	result, err := t.Calendar.CheckAvailability(ctx, start, end)
	if err != nil {
		return "", err
	}

	if !result.Busy {
		return fmt.Sprintf("The slot starting at %s on %s is free.",
			start.In(t.Timezone).Format("3:04 PM"),
			start.In(t.Timezone).Format("Monday, January 2"),
		), nil
	}

	titles := make([]string, 0, len(result.ConflictingEvents))
	for _, ev := range result.ConflictingEvents {
		titles = append(titles, "'"+ev.Title+"'")
	}
	return fmt.Sprintf("The requested time slot is busy. It conflicts with: %s.", strings.Join(titles, ", ")), nil
}

// BookAppointmentTool creates events on behalf of the user. Booking is
// not idempotent; the system prompt instructs the model to call it once
// per confirmed request.
type BookAppointmentTool struct {
	Calendar        calendar.CalendarService
	Timezone        *time.Location
	DefaultDuration time.Duration
}

func (t *BookAppointmentTool) Name() string { return bookAppointmentToolName }

func (t *BookAppointmentTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        bookAppointmentToolName,
		Description: "Book an appointment in the calendar. Creates a new event every time it is called.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {
					Type:        genai.TypeString,
					Description: "Title or summary of the appointment.",
				},
				"start_time": {
					Type:        genai.TypeString,
					Format:      "date-time",
					Description: "Appointment start in ISO 8601 format, e.g. 2025-07-04T11:00:00+05:30.",
				},
				"end_time": {
					Type:        genai.TypeString,
					Format:      "date-time",
					Description: "Appointment end in ISO 8601 format. Defaults to one hour after start_time.",
				},
			},
			Required: []string{"title", "start_time"},
		},
	}
}

func (t *BookAppointmentTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	title, err := stringArg(args, "title", t.Name())
	if err != nil {
		return "", err
	}
	start, end, err := extractRange(args, t.Timezone, t.DefaultDuration, t.Name())
	if err != nil {
		return "", err
	}

	result, err := t.Calendar.CreateEvent(ctx, models.BookingRequest{
		Title: title,
		Start: start,
		End:   end,
	})
	if err != nil {
		return "", err
	}
	return result.Confirmation, nil
}

// stringArg fetches a required string argument from the model's raw args.
func stringArg(args map[string]any, key, tool string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", &MalformedToolCallError{Tool: tool, Reason: key + " is required"}
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &MalformedToolCallError{Tool: tool, Reason: key + " must be a non-empty string"}
	}
	return strings.TrimSpace(s), nil
}

// extractRange parses start_time and the optional end_time, defaulting
// the end to start plus the configured event duration.
func extractRange(args map[string]any, tz *time.Location, defaultDuration time.Duration, tool string) (time.Time, time.Time, error) {
	startStr, err := stringArg(args, "start_time", tool)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := parseTime(startStr, tz)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedToolCallError{Tool: tool, Reason: "start_time: " + err.Error()}
	}

	end := start.Add(defaultDuration)
	if raw, ok := args["end_time"]; ok {
		endStr, ok := raw.(string)
		if !ok {
			return time.Time{}, time.Time{}, &MalformedToolCallError{Tool: tool, Reason: "end_time must be a string"}
		}
		if trimmed := strings.TrimSpace(endStr); trimmed != "" {
			end, err = parseTime(trimmed, tz)
			if err != nil {
				return time.Time{}, time.Time{}, &MalformedToolCallError{Tool: tool, Reason: "end_time: " + err.Error()}
			}
		}
	}
	return start, end, nil
}

// parseTime accepts RFC 3339 stamps and falls back to offset-less ISO
// 8601, interpreted in the agent timezone.
func parseTime(s string, tz *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, tz); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO 8601 timestamp: %q", s)
}
