package sheets

import (
	"fmt"
	"strings"
	"time"

	"timetracker/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Date", "Title", "Description", "Category", "Minutes", "Duration", "Progress", "Completed", "Updated At"}

// Columns is the number of cells in a mirrored row.
var Columns = len(Header)

// EncodeRow renders an entry as sheet cells in Header order.
func EncodeRow(e core.TimeEntry) []any {
	updated := ""
	if !e.UpdatedAt.IsZero() {
		updated = e.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		e.ID,
		e.Date,
		e.Title,
		e.Description,
		e.Category,
		e.Duration,
		core.FormatDuration(e.Duration),
		e.Progress,
		e.Completed,
		updated,
	}
}

// RowID returns the entry id held by a row, or "" for blank and header rows.
func RowID(row []any) string {
	if len(row) == 0 {
		return ""
	}
	id := strings.TrimSpace(fmt.Sprint(row[0]))
	if strings.EqualFold(id, fmt.Sprint(Header[0])) {
		return ""
	}
	return id
}

// LastColumn returns the spreadsheet column letter of the last mirrored cell.
func LastColumn() string {
	return string(rune('A' + Columns - 1))
}
