package core

import (
	"math"
	"sort"
	"time"
)

// CategoryTotal is the summed duration of all entries sharing a category.
type CategoryTotal struct {
	Category      string `json:"category"`
	TotalDuration int    `json:"totalDuration"`
}

// DailyTotal is the summed duration of all entries logged on one date.
type DailyTotal struct {
	Date          string `json:"date"`
	TotalDuration int    `json:"totalDuration"`
}

// DashboardSummary rolls up the figures shown on the dashboard cards.
type DashboardSummary struct {
	WindowDays        int     `json:"windowDays"`
	TotalMinutes      int     `json:"totalMinutes"`
	TotalHours        float64 `json:"totalHours"`
	ActiveDays        int     `json:"activeDays"`
	AverageDailyHours float64 `json:"averageDailyHours"`
	CompletedTasks    int     `json:"completedTasks"`
	TotalTasks        int     `json:"totalTasks"`
}

// SortCategoryTotals orders rows by total descending, then by name.
func SortCategoryTotals(rows []CategoryTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalDuration != rows[j].TotalDuration {
			return rows[i].TotalDuration > rows[j].TotalDuration
		}
		return rows[i].Category < rows[j].Category
	})
}

// SortDailyTotals orders rows by date ascending.
func SortDailyTotals(rows []DailyTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
}

// MergeCategoryTotals folds rows that normalize to the same category.
// Stores may group blank and missing categories separately.
func MergeCategoryTotals(rows []CategoryTotal) []CategoryTotal {
	idx := make(map[string]int, len(rows))
	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		name := NormalizeCategory(r.Category)
		if i, ok := idx[name]; ok {
			out[i].TotalDuration += r.TotalDuration
			continue
		}
		idx[name] = len(out)
		out = append(out, CategoryTotal{Category: name, TotalDuration: r.TotalDuration})
	}
	SortCategoryTotals(out)
	return out
}

// WindowStart returns the first date included in a trailing window of
// days ending today (UTC).
func WindowStart(now time.Time, days int) string {
	if days < 0 {
		days = 0
	}
	return FormatDate(now.UTC().AddDate(0, 0, -days))
}

// FillMissingDays returns one row per day for the days ending today,
// taking totals from rows and zero elsewhere.
func FillMissingDays(rows []DailyTotal, now time.Time, days int) []DailyTotal {
	if days <= 0 {
		return []DailyTotal{}
	}
	byDate := make(map[string]int, len(rows))
	for _, r := range rows {
		byDate[r.Date] += r.TotalDuration
	}
	today := now.UTC()
	out := make([]DailyTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := FormatDate(today.AddDate(0, 0, -i))
		out = append(out, DailyTotal{Date: d, TotalDuration: byDate[d]})
	}
	return out
}

// Hours converts minutes to hours rounded to one decimal place.
func Hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
