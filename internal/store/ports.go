package store

import (
	"context"
	"time"

	"timetracker/internal/core"
)

// SortOrder selects the date ordering of Find results.
type SortOrder int

const (
	DateDesc SortOrder = iota
	DateAsc
)

// Filter restricts Find results. Zero values mean "unbounded".
type Filter struct {
	From           string // inclusive YYYY-MM-DD lower bound
	To             string // inclusive YYYY-MM-DD upper bound
	IncompleteOnly bool
}

// UpdateResult mirrors the matched/modified counters of a single-document update.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Ports for outbound adapters.
type (
	// Reader serves the read primitives. Records are returned as stored;
	// canonicalization is the caller's job.
	Reader interface {
		Find(ctx context.Context, f Filter, order SortOrder) ([]core.TimeEntry, error)
		// FindOne returns core.ErrNotFound for a missing id and
		// core.ErrInvalidID for an id the backend cannot parse.
		FindOne(ctx context.Context, id string) (core.TimeEntry, error)
		FindProgress(ctx context.Context, id string) (core.TaskProgress, error)
	}

	Writer interface {
		// Insert stores e and returns the store-assigned id. e.ID is ignored.
		Insert(ctx context.Context, e core.TimeEntry) (string, error)
		Update(ctx context.Context, id string, u core.EntryUpdate) (UpdateResult, error)
		SetProgress(ctx context.Context, id string, progress int, completed bool, at time.Time) (UpdateResult, error)
		Delete(ctx context.Context, id string) (bool, error)
	}

	// Aggregator groups and sums durations inside the backend.
	Aggregator interface {
		SumByCategory(ctx context.Context) ([]core.CategoryTotal, error)
		// SumByDay sums durations per date for dates >= since, date ascending.
		SumByDay(ctx context.Context, since string) ([]core.DailyTotal, error)
	}

	// Store is the full record store accessor handed out by the backend factory.
	Store interface {
		Reader
		Writer
		Aggregator
		Ping(ctx context.Context) error
	}
)
