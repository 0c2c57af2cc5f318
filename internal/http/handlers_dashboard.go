package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"timetracker/internal/core"
)

// handleDailyTotals serves per-day totals for the trailing window.
// ?fill=true adds zero rows for days without entries.
func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	days, err := ParseWindowDays(r.URL.Query(), s.windowDays)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	rows, err := cached(r.Context(), s, s.dailyCache, strconv.Itoa(days), func(ctx context.Context) ([]core.DailyTotal, error) {
		return s.aggregator.FetchDailyTotals(ctx, days)
	})
	if err != nil {
		rows = []core.DailyTotal{}
	}
	if parseBool(r.URL.Query().Get("fill")) {
		rows = core.FillMissingDays(rows, time.Now(), days)
	}
	NewJSONResponse().Field("data", rows).Write(w)
}

func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	rows, err := cached(r.Context(), s, s.categoryCache, "all", s.aggregator.FetchCategoryTotals)
	if err != nil {
		rows = []core.CategoryTotal{}
	}
	NewJSONResponse().Field("data", rows).Write(w)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	days, err := ParseWindowDays(r.URL.Query(), s.windowDays)
	if err != nil {
		ValidationErrorResponse(err).Write(w)
		return
	}

	summary, err := cached(r.Context(), s, s.summaryCache, strconv.Itoa(days), func(ctx context.Context) (core.DashboardSummary, error) {
		return s.aggregator.FetchDashboard(ctx, days)
	})
	if err != nil {
		summary = core.DashboardSummary{WindowDays: days}
	}
	NewJSONResponse().
		Field("data", summary).
		Field("totalFormatted", core.FormatDuration(summary.TotalMinutes)).
		Write(w)
}

// handleOpenTasks lists entries that are not completed yet.
func (s *Server) handleOpenTasks(w http.ResponseWriter, r *http.Request) {
	entries, err := cached(r.Context(), s, s.entriesCache, "incomplete", s.repo.FetchIncomplete)
	if err != nil {
		entries = []core.TimeEntry{}
	}
	NewJSONResponse().Field("data", entries).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Field("data", core.Categories).Write(w)
}
