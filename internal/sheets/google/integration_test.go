//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"timetracker/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_MirrorFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	opts := Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if opts.CredentialsJSON == "" && opts.CredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, opts, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	id := "integration-" + time.Now().Format("20060102150405")
	e := core.TimeEntry{ID: id, Title: "Integration test", Date: core.FormatDate(time.Now()), Duration: 5, Category: core.DefaultCategory, UpdatedAt: time.Now()}

	ref, err := client.Upsert(ctx, e)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	t.Logf("Mirrored to %s", ref)

	e.Progress = 100
	e.Completed = true
	if _, err := client.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	removed, err := client.Remove(ctx, id)
	if err != nil || !removed {
		t.Fatalf("Remove: %v, %v", removed, err)
	}
}
