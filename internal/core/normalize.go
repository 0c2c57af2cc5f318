package core

import (
	"strings"
	"time"
)

// NormalizeCategory returns the stored category, or DefaultCategory when blank.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return DefaultCategory
	}
	return c
}

// Normalize canonicalizes a record read from any store. Every read path
// goes through here so callers never see missing defaults.
func Normalize(e TimeEntry) TimeEntry {
	e.Category = NormalizeCategory(e.Category)
	if e.Progress < 0 {
		e.Progress = 0
	}
	if e.Progress > MaxProgress {
		e.Progress = MaxProgress
	}
	if e.Duration < 0 {
		e.Duration = 0
	}
	if !e.CreatedAt.IsZero() {
		e.CreatedAt = e.CreatedAt.UTC()
	}
	if !e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.UpdatedAt.UTC()
	}
	return e
}

// NormalizeInput applies the write-path defaults and builds a new entry
// stamped at now. Completed is set when the caller asks for it or when
// progress reaches 100.
func NormalizeInput(in EntryInput, now time.Time) TimeEntry {
	e := TimeEntry{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Duration:    in.Duration,
		Category:    NormalizeCategory(in.Category),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if in.Progress != nil {
		e.Progress = *in.Progress
	}
	if in.Completed != nil {
		e.Completed = *in.Completed
	}
	if e.Progress == MaxProgress {
		e.Completed = true
	}
	return e
}

// EntryUpdate is the field set written by a full update. Progress and
// Completed stay nil when the caller did not supply them, leaving the
// stored values untouched.
type EntryUpdate struct {
	Title       string
	Description string
	Date        string
	Duration    int
	Category    string
	Progress    *int
	Completed   *bool
	UpdatedAt   time.Time
}

// NormalizeUpdate applies the write-path defaults for a full update.
func NormalizeUpdate(in EntryInput, now time.Time) EntryUpdate {
	return EntryUpdate{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Duration:    in.Duration,
		Category:    NormalizeCategory(in.Category),
		Progress:    in.Progress,
		Completed:   in.Completed,
		UpdatedAt:   now.UTC(),
	}
}
