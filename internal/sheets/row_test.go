package sheets

import (
	"testing"
	"time"

	"timetracker/internal/core"
)

func TestEncodeRow(t *testing.T) {
	e := core.TimeEntry{
		ID:        "abc",
		Title:     "Write spec",
		Date:      "2024-01-10",
		Duration:  90,
		Category:  "Documentation",
		Progress:  40,
		UpdatedAt: time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC),
	}
	row := EncodeRow(e)
	if len(row) != Columns {
		t.Fatalf("row has %d cells, want %d", len(row), Columns)
	}
	if row[0] != "abc" || row[5] != 90 || row[6] != "1h 30m" || row[8] != false {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[9] != "2024-01-10T09:30:00Z" {
		t.Fatalf("updated at = %v", row[9])
	}
	if RowID(row) != "abc" {
		t.Fatalf("RowID = %q", RowID(row))
	}
}

func TestRowID(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		want string
	}{
		{"empty", nil, ""},
		{"header", Header, ""},
		{"padded", []any{"  x1 "}, "x1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowID(tt.row); got != tt.want {
				t.Errorf("RowID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLastColumn(t *testing.T) {
	if got := LastColumn(); got != "J" {
		t.Fatalf("LastColumn() = %q", got)
	}
}
