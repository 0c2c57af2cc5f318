package services

import (
	"context"
	"errors"

	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/store"
)

// Repository serves canonicalized time entries. Storage faults are logged
// and turned into empty or not-found results. The Fetch variants return the
// same empty result together with the fault, for callers such as caches
// that must not keep it.
type Repository struct {
	store  store.Reader
	logger *applog.StructuredLogger
}

func NewRepository(r store.Reader, logger *applog.Logger) *Repository {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Repository{
		store:  r,
		logger: applog.NewStructuredLogger(logger.WithComponent(applog.ComponentRepository)),
	}
}

// ListAll returns every entry, newest date first.
func (r *Repository) ListAll(ctx context.Context) []core.TimeEntry {
	entries, _ := r.FetchAll(ctx)
	return entries
}

// FetchAll is ListAll reporting storage faults.
func (r *Repository) FetchAll(ctx context.Context) ([]core.TimeEntry, error) {
	return r.find(ctx, store.Filter{}, store.DateDesc)
}

// ListByDateRange returns entries with start <= date <= end, oldest first.
func (r *Repository) ListByDateRange(ctx context.Context, start, end string) []core.TimeEntry {
	entries, _ := r.FetchByDateRange(ctx, start, end)
	return entries
}

func (r *Repository) FetchByDateRange(ctx context.Context, start, end string) ([]core.TimeEntry, error) {
	if start != "" && end != "" && start > end {
		return []core.TimeEntry{}, nil
	}
	return r.find(ctx, store.Filter{From: start, To: end}, store.DateAsc)
}

// ListIncomplete returns entries not yet marked completed, newest date first.
func (r *Repository) ListIncomplete(ctx context.Context) []core.TimeEntry {
	entries, _ := r.FetchIncomplete(ctx)
	return entries
}

func (r *Repository) FetchIncomplete(ctx context.Context) ([]core.TimeEntry, error) {
	return r.find(ctx, store.Filter{IncompleteOnly: true}, store.DateDesc)
}

// GetByID returns the entry and true, or false when it does not exist,
// the id is malformed, or the store failed.
func (r *Repository) GetByID(ctx context.Context, id string) (core.TimeEntry, bool) {
	e, err := r.store.FindOne(ctx, id)
	if err != nil {
		r.logLookupError(ctx, "Failed to fetch time entry", id, err)
		return core.TimeEntry{}, false
	}
	return core.Normalize(e), true
}

// GetProgress returns only the progress fields of an entry.
func (r *Repository) GetProgress(ctx context.Context, id string) (core.TaskProgress, bool) {
	p, err := r.store.FindProgress(ctx, id)
	if err != nil {
		r.logLookupError(ctx, "Failed to fetch task progress", id, err)
		return core.TaskProgress{}, false
	}
	n := core.Normalize(core.TimeEntry{Progress: p.Progress, Completed: p.Completed})
	return core.TaskProgress{Progress: n.Progress, Completed: n.Completed}, true
}

func (r *Repository) find(ctx context.Context, f store.Filter, order store.SortOrder) ([]core.TimeEntry, error) {
	raw, err := r.store.Find(ctx, f, order)
	if err != nil {
		r.logger.LogError(ctx, "Failed to fetch time entries", err, applog.OpList,
			applog.NewFields().WithErrorType(applog.ErrorTypeDatabase))
		return []core.TimeEntry{}, err
	}
	out := make([]core.TimeEntry, len(raw))
	for i, e := range raw {
		out[i] = core.Normalize(e)
	}
	return out, nil
}

func (r *Repository) logLookupError(ctx context.Context, msg, id string, err error) {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrInvalidID) {
		r.logger.Logger().DebugContext(ctx, "Time entry not found", applog.FieldEntryID, id, applog.FieldError, err)
		return
	}
	r.logger.LogError(ctx, msg, err, applog.OpRead,
		applog.NewFields().WithEntryID(id).WithErrorType(applog.ErrorTypeDatabase))
}
