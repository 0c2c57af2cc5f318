package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

const (
	entryColumns = `id, title, description, date, duration, category, progress, completed, created_at, updated_at`

	// Fixed-width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var _ store.Store = (*Store)(nil)

// Store is the embedded relational backend.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, migrates it and returns a ready store.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Find(ctx context.Context, f store.Filter, order store.SortOrder) ([]core.TimeEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.From != "" {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	if f.IncompleteOnly {
		where = append(where, "completed = 0")
	}

	q := "SELECT " + entryColumns + " FROM time_entries"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if order == store.DateAsc {
		q += " ORDER BY date ASC, created_at ASC"
	} else {
		q += " ORDER BY date DESC, created_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []core.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, id string) (core.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TimeEntry{}, core.ErrNotFound
	}
	return e, err
}

func (s *Store) FindProgress(ctx context.Context, id string) (core.TaskProgress, error) {
	var (
		p         core.TaskProgress
		completed int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT progress, completed FROM time_entries WHERE id = ?", id).
		Scan(&p.Progress, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TaskProgress{}, core.ErrNotFound
	}
	if err != nil {
		return core.TaskProgress{}, fmt.Errorf("query progress: %w", err)
	}
	p.Completed = completed != 0
	return p, nil
}

func (s *Store) Insert(ctx context.Context, e core.TimeEntry) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO time_entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, e.Title, e.Description, e.Date, e.Duration, e.Category, e.Progress,
		boolInt(e.Completed), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id string, u core.EntryUpdate) (store.UpdateResult, error) {
	var progress, completed sql.NullInt64
	if u.Progress != nil {
		progress = sql.NullInt64{Int64: int64(*u.Progress), Valid: true}
	}
	if u.Completed != nil {
		completed = sql.NullInt64{Int64: boolInt(*u.Completed), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE time_entries SET
		title = ?, description = ?, date = ?, duration = ?, category = ?,
		progress = COALESCE(?, progress), completed = COALESCE(?, completed), updated_at = ?
		WHERE id = ?`,
		u.Title, u.Description, u.Date, u.Duration, u.Category,
		progress, completed, formatTime(u.UpdatedAt), id)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update entry: %w", err)
	}
	return affected(res)
}

func (s *Store) SetProgress(ctx context.Context, id string, progress int, completed bool, at time.Time) (store.UpdateResult, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE time_entries SET progress = ?, completed = ?, updated_at = ? WHERE id = ?",
		progress, boolInt(completed), formatTime(at), id)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("update progress: %w", err)
	}
	return affected(res)
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SumByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(TRIM(category), ''), ?) AS cat, SUM(duration) AS total
		FROM time_entries
		GROUP BY cat
		ORDER BY total DESC, cat ASC`, core.DefaultCategory)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.TotalDuration); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (s *Store) SumByDay(ctx context.Context, since string) ([]core.DailyTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, SUM(duration) AS total
		FROM time_entries
		WHERE date >= ?
		GROUP BY date
		ORDER BY date ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	defer rows.Close()

	var out []core.DailyTotal
	for rows.Next() {
		var dt core.DailyTotal
		if err := rows.Scan(&dt.Date, &dt.TotalDuration); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (core.TimeEntry, error) {
	var (
		e                core.TimeEntry
		category         sql.NullString
		completed        int64
		created, updated string
	)
	err := sc.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Duration, &category,
		&e.Progress, &completed, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.TimeEntry{}, err
		}
		return core.TimeEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Category = category.String
	e.Completed = completed != 0
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return e, nil
}

func affected(res sql.Result) (store.UpdateResult, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("rows affected: %w", err)
	}
	return store.UpdateResult{Matched: n, Modified: n}, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
