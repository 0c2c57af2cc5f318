package sheets

import (
	"context"

	"timetracker/internal/core"
)

// EntryMirror keeps a spreadsheet copy of the time entries, one row per entry
// keyed by the entry id in the first column.
type EntryMirror interface {
	// Upsert writes the entry's row, replacing an existing row with the same id.
	Upsert(ctx context.Context, e core.TimeEntry) (rowRef string, err error)
	// Remove deletes the row for id. It reports false when no row matched.
	Remove(ctx context.Context, id string) (bool, error)
	// ListIDs returns the ids of every mirrored row in sheet order.
	ListIDs(ctx context.Context) ([]string, error)
}
