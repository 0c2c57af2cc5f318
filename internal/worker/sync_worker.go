package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timetracker/internal/amqp"
	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/sheets"
	"timetracker/internal/store"
)

// SyncWorker mirrors time entries from the store into a spreadsheet.
type SyncWorker struct {
	store  store.Reader
	mirror sheets.EntryMirror
	logger *applog.Logger
}

// SyncStats summarizes one full resync pass.
type SyncStats struct {
	Upserted int
	Removed  int
	Failed   int
}

func NewSyncWorker(r store.Reader, mirror sheets.EntryMirror, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &SyncWorker{
		store:  r,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEntryChanged applies one change event to the mirror. The entry is
// re-read from the store, so replayed or reordered events converge on the
// current state. A returned error requeues the message.
func (w *SyncWorker) HandleEntryChanged(ctx context.Context, msg *amqp.EntryChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing entry changed message",
		applog.FieldEntryID, msg.EntryID,
		applog.FieldAction, msg.Action,
		"message_id", msg.MessageID)

	if msg.Action == core.ActionDeleted {
		return w.remove(ctx, msg.EntryID)
	}

	e, err := w.store.FindOne(ctx, msg.EntryID)
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrInvalidID):
		// Deleted after the event was published.
		return w.remove(ctx, msg.EntryID)
	case err != nil:
		return fmt.Errorf("get entry from store: %w", err)
	}
	return w.upsert(ctx, core.Normalize(e))
}

// Resync upserts every stored entry and removes rows whose entry no longer
// exists. It recovers from lost messages and worker downtime.
func (w *SyncWorker) Resync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	entries, err := w.store.Find(ctx, store.Filter{}, store.DateAsc)
	if err != nil {
		return stats, fmt.Errorf("list entries: %w", err)
	}

	live := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		live[e.ID] = struct{}{}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := w.upsert(ctx, core.Normalize(e)); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync entry", applog.FieldEntryID, e.ID, applog.FieldError, err)
			stats.Failed++
			continue
		}
		stats.Upserted++
	}

	ids, err := w.mirror.ListIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list mirrored rows: %w", err)
	}
	for _, id := range ids {
		if _, ok := live[id]; ok || id == "" {
			continue
		}
		if err := w.remove(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove orphan row", applog.FieldEntryID, id, applog.FieldError, err)
			stats.Failed++
			continue
		}
		stats.Removed++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"upserted", stats.Upserted,
		"removed", stats.Removed,
		"errors", stats.Failed)
	return stats, nil
}

// RunPeriodicResync resyncs once immediately and then every interval until
// ctx is done. A non-positive interval only runs the startup pass.
func (w *SyncWorker) RunPeriodicResync(ctx context.Context, interval time.Duration) {
	if _, err := w.Resync(ctx); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup resync failed", applog.FieldError, err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Resync(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic resync failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) upsert(ctx context.Context, e core.TimeEntry) error {
	ref, err := w.mirror.Upsert(ctx, e)
	if err != nil {
		return fmt.Errorf("upsert row: %w", err)
	}
	w.logger.DebugContext(ctx, "Mirrored entry",
		applog.FieldEntryID, e.ID,
		"sheets_ref", ref,
		applog.FieldMinutes, e.Duration)
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, id string) error {
	removed, err := w.mirror.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("remove row: %w", err)
	}
	w.logger.DebugContext(ctx, "Removed mirrored entry", applog.FieldEntryID, id, "removed", removed)
	return nil
}
