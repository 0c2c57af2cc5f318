package services

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"timetracker/internal/core"
	applog "timetracker/internal/log"
	"timetracker/internal/store"
)

// AggregationStore is what the Aggregator needs from the backend.
type AggregationStore interface {
	store.Aggregator
	Find(ctx context.Context, f store.Filter, order store.SortOrder) ([]core.TimeEntry, error)
}

// Aggregator computes grouped duration summaries. Same fail-soft policy
// as Repository: any fault yields an empty result.
type Aggregator struct {
	store  AggregationStore
	logger *applog.StructuredLogger
	now    func() time.Time
}

func NewAggregator(s AggregationStore, logger *applog.Logger) *Aggregator {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Aggregator{
		store:  s,
		logger: applog.NewStructuredLogger(logger.WithComponent(applog.ComponentAggregator)),
		now:    time.Now,
	}
}

// GroupByCategory sums durations per category, largest total first.
func (a *Aggregator) GroupByCategory(ctx context.Context) []core.CategoryTotal {
	rows, _ := a.FetchCategoryTotals(ctx)
	return rows
}

// FetchCategoryTotals is GroupByCategory reporting storage faults.
func (a *Aggregator) FetchCategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := a.store.SumByCategory(ctx)
	if err != nil {
		a.logger.LogError(ctx, "Failed to aggregate by category", err, applog.OpAggregate,
			applog.NewFields().WithErrorType(applog.ErrorTypeDatabase))
		return []core.CategoryTotal{}, err
	}
	return core.MergeCategoryTotals(rows), nil
}

// GroupByDay sums durations per date for dates on or after today minus
// windowDays (UTC), oldest first. Days without entries are omitted.
func (a *Aggregator) GroupByDay(ctx context.Context, windowDays int) []core.DailyTotal {
	rows, _ := a.FetchDailyTotals(ctx, windowDays)
	return rows
}

// FetchDailyTotals is GroupByDay reporting storage faults.
func (a *Aggregator) FetchDailyTotals(ctx context.Context, windowDays int) ([]core.DailyTotal, error) {
	rows, err := a.store.SumByDay(ctx, core.WindowStart(a.now(), windowDays))
	if err != nil {
		a.logger.LogError(ctx, "Failed to aggregate by day", err, applog.OpAggregate,
			applog.NewFields().WithErrorType(applog.ErrorTypeDatabase))
		return []core.DailyTotal{}, err
	}
	if rows == nil {
		rows = []core.DailyTotal{}
	}
	core.SortDailyTotals(rows)
	return rows, nil
}

// Dashboard rolls up the window totals and task completion counts.
func (a *Aggregator) Dashboard(ctx context.Context, windowDays int) core.DashboardSummary {
	summary, _ := a.FetchDashboard(ctx, windowDays)
	return summary
}

// FetchDashboard is Dashboard reporting storage faults. On a fault the
// summary carries only the window size.
func (a *Aggregator) FetchDashboard(ctx context.Context, windowDays int) (core.DashboardSummary, error) {
	if windowDays < 0 {
		windowDays = 0
	}
	summary := core.DashboardSummary{WindowDays: windowDays}

	var (
		daily   []core.DailyTotal
		entries []core.TimeEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = a.store.SumByDay(gctx, core.WindowStart(a.now(), windowDays))
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = a.store.Find(gctx, store.Filter{}, store.DateDesc)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.LogError(ctx, "Failed to build dashboard summary", err, applog.OpAggregate,
			applog.NewFields().WithErrorType(applog.ErrorTypeDatabase))
		return summary, err
	}

	// A day with only zero-minute entries still counts as active.
	summary.ActiveDays = len(daily)
	for _, d := range daily {
		summary.TotalMinutes += d.TotalDuration
	}
	summary.TotalHours = core.Hours(summary.TotalMinutes)
	if summary.ActiveDays > 0 {
		avg := float64(summary.TotalMinutes) / float64(summary.ActiveDays) / 60
		summary.AverageDailyHours = math.Round(avg*10) / 10
	}

	summary.TotalTasks = len(entries)
	for _, e := range entries {
		if e.Completed {
			summary.CompletedTasks++
		}
	}
	return summary, nil
}
