// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

// Run exercises s against the common store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mk := func(title, date string, dur int, cat string, offset time.Duration) core.TimeEntry {
		return core.TimeEntry{
			Title: title, Date: date, Duration: dur, Category: cat,
			CreatedAt: base.Add(offset), UpdatedAt: base.Add(offset),
		}
	}

	ids := map[string]string{}
	for i, e := range []core.TimeEntry{
		mk("Write spec", "2024-01-10", 90, "Documentation", 0),
		mk("Review", "2024-01-08", 30, "Development", time.Minute),
		mk("Sketch", "2024-01-12", 45, "Design", 2*time.Minute),
		mk("Pairing", "2024-01-10", 60, "Development", 3*time.Minute),
	} {
		id, err := s.Insert(ctx, e)
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if id == "" {
			t.Fatalf("insert %d returned empty id", i)
		}
		ids[e.Title] = id
	}

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})

	t.Run("find all date descending", func(t *testing.T) {
		all, err := s.Find(ctx, store.Filter{}, store.DateDesc)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Sketch", "Pairing", "Write spec", "Review"}
		assertTitles(t, all, want)
	})

	t.Run("find range ascending inclusive", func(t *testing.T) {
		got, err := s.Find(ctx, store.Filter{From: "2024-01-08", To: "2024-01-10"}, store.DateAsc)
		if err != nil {
			t.Fatal(err)
		}
		assertTitles(t, got, []string{"Review", "Write spec", "Pairing"})
	})

	t.Run("find one", func(t *testing.T) {
		e, err := s.FindOne(ctx, ids["Write spec"])
		if err != nil {
			t.Fatal(err)
		}
		if e.ID != ids["Write spec"] || e.Duration != 90 || e.Category != "Documentation" {
			t.Fatalf("unexpected entry: %+v", e)
		}
		if !e.CreatedAt.Equal(base) {
			t.Fatalf("createdAt = %v, want %v", e.CreatedAt, base)
		}
	})

	t.Run("find one missing", func(t *testing.T) {
		_, err := s.FindOne(ctx, "does-not-exist")
		if !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrInvalidID) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("sum by category", func(t *testing.T) {
		got, err := s.SumByCategory(ctx)
		if err != nil {
			t.Fatal(err)
		}
		got = core.MergeCategoryTotals(got)
		want := []core.CategoryTotal{{"Development", 90}, {"Documentation", 90}, {"Design", 45}}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("row %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("sum by day", func(t *testing.T) {
		got, err := s.SumByDay(ctx, "2024-01-09")
		if err != nil {
			t.Fatal(err)
		}
		want := []core.DailyTotal{{"2024-01-10", 150}, {"2024-01-12", 45}}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("row %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("set progress", func(t *testing.T) {
		at := base.Add(time.Hour)
		res, err := s.SetProgress(ctx, ids["Sketch"], 100, true, at)
		if err != nil {
			t.Fatal(err)
		}
		if res.Matched != 1 || res.Modified != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		p, err := s.FindProgress(ctx, ids["Sketch"])
		if err != nil {
			t.Fatal(err)
		}
		if p.Progress != 100 || !p.Completed {
			t.Fatalf("unexpected progress: %+v", p)
		}
		incomplete, err := s.Find(ctx, store.Filter{IncompleteOnly: true}, store.DateDesc)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range incomplete {
			if e.Title == "Sketch" {
				t.Fatal("completed entry returned by incomplete filter")
			}
		}
	})

	t.Run("update keeps unspecified progress", func(t *testing.T) {
		at := base.Add(2 * time.Hour)
		res, err := s.Update(ctx, ids["Sketch"], core.EntryUpdate{
			Title: "Sketch v2", Date: "2024-01-13", Duration: 50, Category: "Design", UpdatedAt: at,
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Matched != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		e, err := s.FindOne(ctx, ids["Sketch"])
		if err != nil {
			t.Fatal(err)
		}
		if e.Title != "Sketch v2" || e.Date != "2024-01-13" || e.Duration != 50 {
			t.Fatalf("update not applied: %+v", e)
		}
		if e.Progress != 100 || !e.Completed {
			t.Fatalf("progress should be untouched: %+v", e)
		}
		if !e.UpdatedAt.Equal(at) {
			t.Fatalf("updatedAt = %v, want %v", e.UpdatedAt, at)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		res, err := s.Update(ctx, "does-not-exist", core.EntryUpdate{Title: "x", Date: "2024-01-01", UpdatedAt: base})
		if err != nil && !errors.Is(err, core.ErrInvalidID) {
			t.Fatal(err)
		}
		if res.Matched != 0 {
			t.Fatalf("unexpected match: %+v", res)
		}
	})

	t.Run("delete", func(t *testing.T) {
		ok, err := s.Delete(ctx, ids["Review"])
		if err != nil || !ok {
			t.Fatalf("delete: ok=%v err=%v", ok, err)
		}
		ok, err = s.Delete(ctx, ids["Review"])
		if err != nil || ok {
			t.Fatalf("second delete: ok=%v err=%v", ok, err)
		}
		if _, err := s.FindOne(ctx, ids["Review"]); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func assertTitles(t *testing.T, got []core.TimeEntry, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Title != w {
			t.Fatalf("entry %d = %q, want %q (all: %v)", i, got[i].Title, w, titles(got))
		}
	}
}

func titles(es []core.TimeEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Title
	}
	return out
}
