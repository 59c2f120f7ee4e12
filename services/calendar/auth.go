package calendar

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewService builds an authenticated Calendar API client. When
// credentialsFile is set it must point at a service account key JSON;
// otherwise Application Default Credentials are used, which covers both
// GOOGLE_APPLICATION_CREDENTIALS and workload identity on GCP.
func NewService(ctx context.Context, credentialsFile string) (*calendar.Service, error) {
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, calendar.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		svc, err := calendar.NewService(ctx, option.WithCredentials(creds))
		if err != nil {
			return nil, fmt.Errorf("create calendar service: %w", err)
		}
		return svc, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}
