package calendar

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"tailortalk/models"
)

// fakeEventsAPI records calls and plays back scripted responses.
type fakeEventsAPI struct {
	listCalls   int
	insertCalls int

	listResult *calendar.Events
	listErr    error

	inserted  []*calendar.Event
	insertErr error
}

func (f *fakeEventsAPI) List(ctx context.Context, calendarID string, timeMin, timeMax time.Time) (*calendar.Events, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &calendar.Events{}, nil
}

func (f *fakeEventsAPI) Insert(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, event)
	created := *event
	created.Id = fmt.Sprintf("evt-%d", f.insertCalls)
	created.HtmlLink = "https://calendar.google.com/event?eid=" + created.Id
	return &created, nil
}

var testZone = time.FixedZone("IST", 5*3600+30*60)

func newTestService(api eventsAPI) *DefaultCalendarService {
	return &DefaultCalendarService{
		API:        api,
		CalendarID: "primary",
		Timezone:   testZone,
	}
}

func TestCheckAvailabilityInvalidRange(t *testing.T) {
	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)

	tests := []struct {
		name string
		end  time.Time
	}{
		{name: "end equals start", end: start},
		{name: "end before start", end: start.Add(-time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeEventsAPI{}
			svc := newTestService(api)

			result, err := svc.CheckAvailability(context.Background(), start, tt.end)

			var rangeErr *InvalidRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Nil(t, result)
			assert.Equal(t, 0, api.listCalls, "invalid range must not reach the network")
		})
	}
}

func TestCheckAvailabilityFree(t *testing.T) {
	api := &fakeEventsAPI{}
	svc := newTestService(api)

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)
	result, err := svc.CheckAvailability(context.Background(), start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.False(t, result.Busy)
	assert.Empty(t, result.ConflictingEvents)
	assert.Equal(t, 1, api.listCalls)
}

func TestCheckAvailabilityBusy(t *testing.T) {
	api := &fakeEventsAPI{
		listResult: &calendar.Events{
			Items: []*calendar.Event{
				{
					Summary: "Standup",
					Start:   &calendar.EventDateTime{DateTime: "2025-07-04T11:00:00+05:30"},
					End:     &calendar.EventDateTime{DateTime: "2025-07-04T11:30:00+05:30"},
				},
				{
					Start: &calendar.EventDateTime{Date: "2025-07-04"},
					End:   &calendar.EventDateTime{Date: "2025-07-05"},
				},
			},
		},
	}
	svc := newTestService(api)

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)
	result, err := svc.CheckAvailability(context.Background(), start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.True(t, result.Busy)
	require.Len(t, result.ConflictingEvents, 2)
	assert.Equal(t, "Standup", result.ConflictingEvents[0].Title)
	assert.Equal(t, "(untitled)", result.ConflictingEvents[1].Title)
}

func TestCreateEvent(t *testing.T) {
	api := &fakeEventsAPI{}
	svc := newTestService(api)

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)
	result, err := svc.CreateEvent(context.Background(), models.BookingRequest{
		Title: "Dentist",
		Start: start,
		End:   start.Add(time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, "evt-1", result.EventID)
	assert.Contains(t, result.Confirmation, "Dentist")
	assert.Contains(t, result.Confirmation, "Event link:")
	assert.Contains(t, result.Confirmation, result.HTMLLink)

	require.Len(t, api.inserted, 1)
	inserted := api.inserted[0]
	assert.Equal(t, "Dentist", inserted.Summary)
	assert.Equal(t, start.Format(time.RFC3339), inserted.Start.DateTime)
	assert.Equal(t, testZone.String(), inserted.Start.TimeZone)
	assert.Equal(t, start.Add(time.Hour).Format(time.RFC3339), inserted.End.DateTime)
}

func TestCreateEventNotIdempotent(t *testing.T) {
	api := &fakeEventsAPI{}
	svc := newTestService(api)

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)
	req := models.BookingRequest{Title: "Dentist", Start: start, End: start.Add(time.Hour)}

	first, err := svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, api.insertCalls, "identical requests must both reach the API")
	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestCreateEventInvalidRange(t *testing.T) {
	api := &fakeEventsAPI{}
	svc := newTestService(api)

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)
	_, err := svc.CreateEvent(context.Background(), models.BookingRequest{
		Title: "Dentist",
		Start: start,
		End:   start,
	})

	var rangeErr *InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 0, api.insertCalls)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		upstream   error
		wantDenied bool
	}{
		{name: "401 unauthorized", upstream: &googleapi.Error{Code: 401}, wantDenied: true},
		{name: "403 forbidden", upstream: &googleapi.Error{Code: 403}, wantDenied: true},
		{name: "404 hidden calendar", upstream: &googleapi.Error{Code: 404}, wantDenied: true},
		{name: "500 server error", upstream: &googleapi.Error{Code: 500}, wantDenied: false},
		{name: "network failure", upstream: errors.New("dial tcp: connection refused"), wantDenied: false},
	}

	start := time.Date(2025, 7, 4, 11, 0, 0, 0, testZone)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeEventsAPI{listErr: tt.upstream})

			_, err := svc.CheckAvailability(context.Background(), start, start.Add(time.Hour))
			require.Error(t, err)

			var denied *PermissionDeniedError
			var unavailable *UpstreamUnavailableError
			if tt.wantDenied {
				assert.ErrorAs(t, err, &denied)
			} else {
				assert.ErrorAs(t, err, &unavailable)
			}
		})
	}
}

func TestParseEventTime(t *testing.T) {
	tests := []struct {
		name string
		edt  *calendar.EventDateTime
		want time.Time
	}{
		{
			name: "timed event",
			edt:  &calendar.EventDateTime{DateTime: "2025-07-04T11:00:00+05:30"},
			want: time.Date(2025, 7, 4, 11, 0, 0, 0, testZone),
		},
		{
			name: "all-day event",
			edt:  &calendar.EventDateTime{Date: "2025-07-04"},
			want: time.Date(2025, 7, 4, 0, 0, 0, 0, testZone),
		},
		{name: "nil", edt: nil, want: time.Time{}},
		{
			name: "garbage",
			edt:  &calendar.EventDateTime{DateTime: "not a time"},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseEventTime(tt.edt, testZone)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}
