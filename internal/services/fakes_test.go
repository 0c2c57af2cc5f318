package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

var errStoreDown = errors.New("store unavailable")

// failingStore fails every call with err.
type failingStore struct{ err error }

func (f failingStore) Ping(context.Context) error { return f.err }
func (f failingStore) Find(context.Context, store.Filter, store.SortOrder) ([]core.TimeEntry, error) {
	return nil, f.err
}
func (f failingStore) FindOne(context.Context, string) (core.TimeEntry, error) {
	return core.TimeEntry{}, f.err
}
func (f failingStore) FindProgress(context.Context, string) (core.TaskProgress, error) {
	return core.TaskProgress{}, f.err
}
func (f failingStore) Insert(context.Context, core.TimeEntry) (string, error) { return "", f.err }
func (f failingStore) Update(context.Context, string, core.EntryUpdate) (store.UpdateResult, error) {
	return store.UpdateResult{}, f.err
}
func (f failingStore) SetProgress(context.Context, string, int, bool, time.Time) (store.UpdateResult, error) {
	return store.UpdateResult{}, f.err
}
func (f failingStore) Delete(context.Context, string) (bool, error) { return false, f.err }
func (f failingStore) SumByCategory(context.Context) ([]core.CategoryTotal, error) {
	return nil, f.err
}
func (f failingStore) SumByDay(context.Context, string) ([]core.DailyTotal, error) {
	return nil, f.err
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) InvalidateEntry(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

type publishedEvent struct {
	action core.ChangeAction
	id     string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishEntryChanged(_ context.Context, action core.ChangeAction, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{action: action, id: id})
	return p.err
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// unchangedStore matches every update without modifying anything.
type unchangedStore struct{ failingStore }

func (unchangedStore) Update(context.Context, string, core.EntryUpdate) (store.UpdateResult, error) {
	return store.UpdateResult{Matched: 1}, nil
}
func (unchangedStore) SetProgress(context.Context, string, int, bool, time.Time) (store.UpdateResult, error) {
	return store.UpdateResult{Matched: 1}, nil
}
