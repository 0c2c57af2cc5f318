package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"timetracker/internal/amqp"
	"timetracker/internal/core"
	applog "timetracker/internal/log"
	sheetsmem "timetracker/internal/sheets/memory"
	"timetracker/internal/store"
	"timetracker/internal/store/memory"
)

type failingMirror struct {
	*sheetsmem.Mirror
	err error
}

func (f failingMirror) Upsert(context.Context, core.TimeEntry) (string, error) {
	return "", f.err
}

type brokenReader struct {
	store.Reader
	err error
}

func (b brokenReader) FindOne(context.Context, string) (core.TimeEntry, error) {
	return core.TimeEntry{}, b.err
}

func (b brokenReader) Find(context.Context, store.Filter, store.SortOrder) ([]core.TimeEntry, error) {
	return nil, b.err
}

func insert(t *testing.T, s *memory.Store, title, date string) string {
	t.Helper()
	id, err := s.Insert(context.Background(), core.NormalizeInput(core.EntryInput{Title: title, Date: date, Duration: 30}, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func msg(action core.ChangeAction, id string) *amqp.EntryChangedMessage {
	return amqp.NewEntryChangedMessage(action, id)
}

func TestHandleEntryChanged_UpsertAndDelete(t *testing.T) {
	s := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(s, mirror, applog.Discard())
	ctx := context.Background()

	id := insert(t, s, "Write spec", "2024-01-10")
	if err := w.HandleEntryChanged(ctx, msg(core.ActionCreated, id)); err != nil {
		t.Fatal(err)
	}
	row, ok := mirror.Row(id)
	if !ok || row[2] != "Write spec" || row[4] != core.DefaultCategory {
		t.Fatalf("row not mirrored: %v", row)
	}

	if _, err := s.SetProgress(ctx, id, 100, true, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEntryChanged(ctx, msg(core.ActionProgress, id)); err != nil {
		t.Fatal(err)
	}
	row, _ = mirror.Row(id)
	if row[7] != 100 || row[8] != true {
		t.Fatalf("progress not mirrored: %v", row)
	}

	if err := w.HandleEntryChanged(ctx, msg(core.ActionDeleted, id)); err != nil {
		t.Fatal(err)
	}
	if _, ok := mirror.Row(id); ok {
		t.Fatal("row should be removed")
	}
}

func TestHandleEntryChanged_MissingEntryRemovesRow(t *testing.T) {
	s := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(s, mirror, applog.Discard())
	ctx := context.Background()

	id := insert(t, s, "Short lived", "2024-01-10")
	if err := w.HandleEntryChanged(ctx, msg(core.ActionCreated, id)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}

	// An update event delivered after the delete must not resurrect the row.
	if err := w.HandleEntryChanged(ctx, msg(core.ActionUpdated, id)); err != nil {
		t.Fatal(err)
	}
	if _, ok := mirror.Row(id); ok {
		t.Fatal("row should be removed")
	}
}

func TestHandleEntryChanged_Errors(t *testing.T) {
	boom := errors.New("store down")
	w := NewSyncWorker(brokenReader{err: boom}, sheetsmem.New(), applog.Discard())
	if err := w.HandleEntryChanged(context.Background(), msg(core.ActionUpdated, "x")); !errors.Is(err, boom) {
		t.Fatalf("store fault should be returned for requeue, got %v", err)
	}

	s := memory.New()
	id := insert(t, s, "Task", "2024-01-10")
	sheetErr := errors.New("quota exceeded")
	w = NewSyncWorker(s, failingMirror{Mirror: sheetsmem.New(), err: sheetErr}, applog.Discard())
	if err := w.HandleEntryChanged(context.Background(), msg(core.ActionCreated, id)); !errors.Is(err, sheetErr) {
		t.Fatalf("mirror fault should be returned, got %v", err)
	}
}

func TestResync(t *testing.T) {
	s := memory.New()
	mirror := sheetsmem.New()
	w := NewSyncWorker(s, mirror, applog.Discard())
	ctx := context.Background()

	a := insert(t, s, "Alpha", "2024-01-01")
	b := insert(t, s, "Beta", "2024-01-02")
	if _, err := mirror.Upsert(ctx, core.TimeEntry{ID: "orphan"}); err != nil {
		t.Fatal(err)
	}

	stats, err := w.Resync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (SyncStats{Upserted: 2, Removed: 1}) {
		t.Fatalf("stats = %+v", stats)
	}
	ids, _ := mirror.ListIDs(ctx)
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("mirrored ids = %v", ids)
	}

	// A second pass is idempotent.
	stats, _ = w.Resync(ctx)
	if stats != (SyncStats{Upserted: 2}) {
		t.Fatalf("second pass stats = %+v", stats)
	}
}

func TestResync_CountsFailures(t *testing.T) {
	s := memory.New()
	insert(t, s, "Alpha", "2024-01-01")
	w := NewSyncWorker(s, failingMirror{Mirror: sheetsmem.New(), err: errors.New("quota")}, applog.Discard())

	stats, err := w.Resync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.Upserted != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	w = NewSyncWorker(brokenReader{err: errors.New("down")}, sheetsmem.New(), applog.Discard())
	if _, err := w.Resync(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestRunPeriodicResyncStopsOnCancel(t *testing.T) {
	s := memory.New()
	id := insert(t, s, "Alpha", "2024-01-01")
	mirror := sheetsmem.New()
	w := NewSyncWorker(s, mirror, applog.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunPeriodicResync(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := mirror.Row(id); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("startup resync did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodicResync did not return after cancel")
	}
}
