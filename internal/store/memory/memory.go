package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps entries in process memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]core.TimeEntry
	now     func() time.Time
}

func New() *Store {
	return &Store{entries: make(map[string]core.TimeEntry), now: time.Now}
}

// NewFromSeed builds a store pre-loaded from a TOML seed file. A missing
// or empty path yields an empty store; a malformed file is an error.
func NewFromSeed(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	inputs, err := store.LoadSeed(path)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, err := s.Insert(context.Background(), core.NormalizeInput(in, s.now())); err != nil {
			return nil, err
		}
	}
	slog.Info("Seeded memory store", "path", path, "entries", len(inputs))
	return s, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Find(_ context.Context, f store.Filter, order store.SortOrder) ([]core.TimeEntry, error) {
	s.mu.RLock()
	out := make([]core.TimeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if match(e, f) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			if order == store.DateAsc {
				return a.Date < b.Date
			}
			return a.Date > b.Date
		}
		if order == store.DateAsc {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

func match(e core.TimeEntry, f store.Filter) bool {
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	if f.IncompleteOnly && e.Completed {
		return false
	}
	return true
}

func (s *Store) FindOne(_ context.Context, id string) (core.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return core.TimeEntry{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) FindProgress(ctx context.Context, id string) (core.TaskProgress, error) {
	e, err := s.FindOne(ctx, id)
	if err != nil {
		return core.TaskProgress{}, err
	}
	return core.TaskProgress{Progress: e.Progress, Completed: e.Completed}, nil
}

func (s *Store) Insert(_ context.Context, e core.TimeEntry) (string, error) {
	e.ID = uuid.NewString()
	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
	return e.ID, nil
}

func (s *Store) Update(_ context.Context, id string, u core.EntryUpdate) (store.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return store.UpdateResult{}, nil
	}
	e.Title = u.Title
	e.Description = u.Description
	e.Date = u.Date
	e.Duration = u.Duration
	e.Category = u.Category
	if u.Progress != nil {
		e.Progress = *u.Progress
	}
	if u.Completed != nil {
		e.Completed = *u.Completed
	}
	e.UpdatedAt = u.UpdatedAt
	s.entries[id] = e
	return store.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (s *Store) SetProgress(_ context.Context, id string, progress int, completed bool, at time.Time) (store.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return store.UpdateResult{}, nil
	}
	e.Progress = progress
	e.Completed = completed
	e.UpdatedAt = at
	s.entries[id] = e
	return store.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

func (s *Store) SumByCategory(_ context.Context) ([]core.CategoryTotal, error) {
	s.mu.RLock()
	totals := make(map[string]int)
	for _, e := range s.entries {
		totals[core.NormalizeCategory(e.Category)] += e.Duration
	}
	s.mu.RUnlock()

	out := make([]core.CategoryTotal, 0, len(totals))
	for c, d := range totals {
		out = append(out, core.CategoryTotal{Category: c, TotalDuration: d})
	}
	core.SortCategoryTotals(out)
	return out, nil
}

func (s *Store) SumByDay(_ context.Context, since string) ([]core.DailyTotal, error) {
	s.mu.RLock()
	totals := make(map[string]int)
	for _, e := range s.entries {
		if e.Date >= since {
			totals[e.Date] += e.Duration
		}
	}
	s.mu.RUnlock()

	out := make([]core.DailyTotal, 0, len(totals))
	for d, total := range totals {
		out = append(out, core.DailyTotal{Date: d, TotalDuration: total})
	}
	core.SortDailyTotals(out)
	return out, nil
}
