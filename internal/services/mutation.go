package services

import (
	"context"
	"errors"
	"time"

	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/store"
)

// Messages surfaced to callers. Root causes stay in the logs.
const (
	msgCreateFailed   = "Failed to create time entry"
	msgUpdateFailed   = "Failed to update time entry"
	msgDeleteFailed   = "Failed to delete time entry"
	msgProgressFailed = "Failed to update task progress"
	msgNotFound       = "Time entry not found"
	msgNoChange       = "No changes applied"
)

// Invalidator drops cached views after a successful mutation.
type Invalidator interface {
	InvalidateEntry(id string)
}

// Publisher announces entry changes to other processes.
type Publisher interface {
	PublishEntryChanged(ctx context.Context, action core.ChangeAction, id string) error
}

// Result is the outcome of a mutation. NotFound is set when no document
// matched the id and Unchanged when one matched but nothing was modified,
// so transports can tell both apart from a storage fault.
type Result struct {
	Success   bool   `json:"success"`
	ID        string `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
	NotFound  bool   `json:"-"`
	Unchanged bool   `json:"-"`
}

// Mutator is the only writer of time entries.
type Mutator struct {
	store       store.Writer
	invalidator Invalidator
	publisher   Publisher
	logger      *applog.StructuredLogger
	now         func() time.Time
}

// NewMutator wires the write path. invalidator and publisher may be nil.
func NewMutator(w store.Writer, invalidator Invalidator, publisher Publisher, logger *applog.Logger) *Mutator {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Mutator{
		store:       w,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      applog.NewStructuredLogger(logger.WithComponent(applog.ComponentMutator)),
		now:         time.Now,
	}
}

// Create validates and stores a new entry. The returned error is always a
// *core.ValidationError; storage faults come back as an unsuccessful Result.
func (m *Mutator) Create(ctx context.Context, in core.EntryInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	e := core.NormalizeInput(in, m.now())

	id, err := m.store.Insert(ctx, e)
	if err != nil {
		m.logger.LogError(ctx, "Failed to create time entry", err, applog.OpCreate,
			applog.NewFields().WithEntry(e.Title, e.Date, e.Duration, e.Category).WithErrorType(applog.ErrorTypeDatabase))
		return Result{Error: msgCreateFailed}, nil
	}

	m.logger.LogEntryCreated(ctx, id, e.Title, e.Date, e.Duration, e.Category)
	m.afterMutation(ctx, core.ActionCreated, id)
	return Result{Success: true, ID: id}, nil
}

// Update replaces the editable fields of id. Progress and completed are
// only written when supplied. Success means a document was modified.
func (m *Mutator) Update(ctx context.Context, id string, in core.EntryInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	res, err := m.store.Update(ctx, id, core.NormalizeUpdate(in, m.now()))
	return m.updateResult(ctx, id, res, err, applog.OpUpdate, core.ActionUpdated, msgUpdateFailed), nil
}

// SetProgress writes only progress, completed and updatedAt. Completed is
// stored as given, not derived from progress.
func (m *Mutator) SetProgress(ctx context.Context, id string, progress int, completed bool) (Result, error) {
	if err := core.ProgressValidationError(progress); err != nil {
		return Result{}, err
	}
	res, err := m.store.SetProgress(ctx, id, progress, completed, m.now().UTC())
	return m.updateResult(ctx, id, res, err, applog.OpSetProgress, core.ActionProgress, msgProgressFailed), nil
}

// Delete removes id. A missing id is an unsuccessful Result, not a fault.
func (m *Mutator) Delete(ctx context.Context, id string) Result {
	removed, err := m.store.Delete(ctx, id)
	if errors.Is(err, core.ErrInvalidID) {
		return Result{ID: id, Error: msgNotFound, NotFound: true}
	}
	if err != nil {
		m.logger.LogError(ctx, "Failed to delete time entry", err, applog.OpDelete,
			applog.NewFields().WithEntryID(id).WithErrorType(applog.ErrorTypeDatabase))
		return Result{ID: id, Error: msgDeleteFailed}
	}
	if !removed {
		return Result{ID: id, Error: msgNotFound, NotFound: true}
	}

	m.logger.Logger().InfoContext(ctx, "Time entry deleted", applog.FieldEntryID, id, applog.FieldOperation, applog.OpDelete)
	m.afterMutation(ctx, core.ActionDeleted, id)
	return Result{Success: true, ID: id}
}

func (m *Mutator) updateResult(ctx context.Context, id string, res store.UpdateResult, err error,
	op string, action core.ChangeAction, failMsg string) Result {
	if errors.Is(err, core.ErrInvalidID) {
		return Result{ID: id, Error: msgNotFound, NotFound: true}
	}
	if err != nil {
		m.logger.LogError(ctx, failMsg, err, op,
			applog.NewFields().WithEntryID(id).WithErrorType(applog.ErrorTypeDatabase))
		return Result{ID: id, Error: failMsg}
	}
	if res.Matched == 0 {
		return Result{ID: id, Error: msgNotFound, NotFound: true}
	}
	if res.Modified == 0 {
		return Result{ID: id, Error: msgNoChange, Unchanged: true}
	}

	m.logger.Logger().InfoContext(ctx, "Time entry updated", applog.FieldEntryID, id, applog.FieldOperation, op)
	m.afterMutation(ctx, action, id)
	return Result{Success: true, ID: id}
}

func (m *Mutator) afterMutation(ctx context.Context, action core.ChangeAction, id string) {
	if m.invalidator != nil {
		m.invalidator.InvalidateEntry(id)
	}
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishEntryChanged(ctx, action, id); err != nil {
		m.logger.LogError(ctx, "Failed to publish entry change", err, applog.OpPublish,
			applog.NewFields().WithEntryID(id).WithErrorType(applog.ErrorTypeNetwork))
	}
}
