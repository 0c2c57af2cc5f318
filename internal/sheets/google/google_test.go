package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"timetracker/internal/core"
	ports "timetracker/internal/sheets"
)

// fakeSheet keeps rows in memory and understands the ranges the client builds.
type fakeSheet struct {
	rows    [][]any
	gets    int
	getErr  error
	deleted []int
}

func rowFromRange(rng string) int {
	// 'Sheet'!A5:J5
	cell := rng[strings.Index(rng, "!")+2:]
	n, _ := strconv.Atoi(cell[:strings.Index(cell, ":")])
	return n
}

func (f *fakeSheet) Get(_ context.Context, _ string) ([][]any, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([][]any, len(f.rows))
	for i, r := range f.rows {
		if len(r) > 0 {
			out[i] = []any{r[0]}
		}
	}
	return out, nil
}

func (f *fakeSheet) Update(_ context.Context, rng string, rows [][]any) error {
	row := rowFromRange(rng)
	for len(f.rows) < row {
		f.rows = append(f.rows, nil)
	}
	f.rows[row-1] = rows[0]
	return nil
}

func (f *fakeSheet) Append(_ context.Context, _ string, rows [][]any) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeSheet) DeleteRow(_ context.Context, _ string, row int) error {
	f.deleted = append(f.deleted, row)
	f.rows = append(f.rows[:row-1], f.rows[row:]...)
	return nil
}

func entry(id, title string) core.TimeEntry {
	return core.TimeEntry{ID: id, Title: title, Date: "2024-01-10", Duration: 30, Category: core.DefaultCategory}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet", CredentialsFile: t.TempDir() + "/nope.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestClient_UpsertWritesHeaderThenAppends(t *testing.T) {
	sheet := &fakeSheet{}
	c := newClient(sheet, "", nil)
	ctx := context.Background()

	ref, err := c.Upsert(ctx, entry("a", "First"))
	if err != nil {
		t.Fatal(err)
	}
	if ref != "'Time Entries'!A2:J2" {
		t.Errorf("ref = %q", ref)
	}
	if len(sheet.rows) != 2 || sheet.rows[0][0] != "ID" || sheet.rows[1][0] != "a" {
		t.Fatalf("unexpected rows: %v", sheet.rows)
	}

	if _, err := c.Upsert(ctx, entry("b", "Second")); err != nil {
		t.Fatal(err)
	}
	if len(sheet.rows) != 3 || sheet.rows[2][0] != "b" {
		t.Fatalf("unexpected rows: %v", sheet.rows)
	}
}

func TestClient_UpsertReplacesExistingRow(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{ports.Header, ports.EncodeRow(entry("a", "Old")), ports.EncodeRow(entry("b", "Other"))}}
	c := newClient(sheet, "Log", nil)

	ref, err := c.Upsert(context.Background(), entry("a", "New"))
	if err != nil {
		t.Fatal(err)
	}
	if ref != "'Log'!A2:J2" {
		t.Errorf("ref = %q", ref)
	}
	if len(sheet.rows) != 3 || sheet.rows[1][2] != "New" {
		t.Fatalf("row not replaced: %v", sheet.rows)
	}
}

func TestClient_IndexIsCachedUntilInvalidated(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{ports.Header, ports.EncodeRow(entry("a", "A"))}}
	c := newClient(sheet, "", nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Upsert(ctx, entry("a", fmt.Sprint("A", i))); err != nil {
			t.Fatal(err)
		}
	}
	if sheet.gets != 1 {
		t.Fatalf("in-place updates should reuse the index, got %d reads", sheet.gets)
	}

	if _, err := c.Upsert(ctx, entry("b", "B")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Upsert(ctx, entry("b", "B2")); err != nil {
		t.Fatal(err)
	}
	if sheet.gets != 2 {
		t.Fatalf("append should invalidate the index, got %d reads", sheet.gets)
	}
	if len(sheet.rows) != 3 || sheet.rows[2][2] != "B2" {
		t.Fatalf("unexpected rows: %v", sheet.rows)
	}
}

func TestClient_IndexExpires(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{ports.Header}}
	c := newClient(sheet, "", nil)
	c.cacheValidDuration = time.Millisecond

	if _, _, err := c.index(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, _, err := c.index(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sheet.gets != 2 {
		t.Fatalf("expired index should be reloaded, got %d reads", sheet.gets)
	}
}

func TestClient_Remove(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{ports.Header, ports.EncodeRow(entry("a", "A")), ports.EncodeRow(entry("b", "B"))}}
	c := newClient(sheet, "", nil)
	ctx := context.Background()

	removed, err := c.Remove(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Remove() = %v, %v", removed, err)
	}
	if len(sheet.deleted) != 1 || sheet.deleted[0] != 2 {
		t.Fatalf("deleted rows = %v", sheet.deleted)
	}

	// Rows shifted; b must now be found on row 2.
	removed, err = c.Remove(ctx, "b")
	if err != nil || !removed || sheet.deleted[1] != 2 {
		t.Fatalf("Remove(b) = %v, %v, deleted=%v", removed, err, sheet.deleted)
	}

	removed, err = c.Remove(ctx, "missing")
	if err != nil || removed {
		t.Fatalf("Remove(missing) = %v, %v", removed, err)
	}
}

func TestClient_ListIDs(t *testing.T) {
	sheet := &fakeSheet{rows: [][]any{ports.Header, ports.EncodeRow(entry("a", "A")), {}, ports.EncodeRow(entry("c", "C"))}}
	c := newClient(sheet, "", nil)

	ids, err := c.ListIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("ListIDs() = %v", ids)
	}
}

func TestClient_ReadErrorsAreWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := newClient(&fakeSheet{getErr: boom}, "", nil)
	ctx := context.Background()

	if _, err := c.Upsert(ctx, entry("a", "A")); !errors.Is(err, boom) {
		t.Errorf("Upsert error = %v", err)
	}
	if _, err := c.Remove(ctx, "a"); !errors.Is(err, boom) {
		t.Errorf("Remove error = %v", err)
	}
	if _, err := c.ListIDs(ctx); !errors.Is(err, boom) {
		t.Errorf("ListIDs error = %v", err)
	}
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{}
	if _, err := c.Upsert(context.Background(), entry("a", "A")); err == nil {
		t.Error("expected error without service")
	}
	if _, err := c.Upsert(context.Background(), core.TimeEntry{}); err == nil {
		t.Error("expected error")
	}
}

func TestBuildIndex(t *testing.T) {
	index := buildIndex([][]any{ports.Header, {"a"}, {}, {"b"}, {"a"}})
	if len(index) != 2 || index["a"] != 2 || index["b"] != 4 {
		t.Fatalf("buildIndex() = %v", index)
	}
}

func TestQuotedSheet(t *testing.T) {
	c := newClient(nil, "Bob's log", nil)
	if got := c.idColumn(); got != "'Bob''s log'!A:A" {
		t.Fatalf("idColumn() = %q", got)
	}
}
