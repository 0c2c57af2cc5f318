package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"timetracker/internal/core"
	ports "timetracker/internal/sheets"
)

// Mirror is an in-process EntryMirror used when no spreadsheet is configured.
type Mirror struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.EntryMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// Upsert stores the encoded row and returns a synthetic row reference.
func (m *Mirror) Upsert(_ context.Context, e core.TimeEntry) (string, error) {
	if e.ID == "" {
		return "", errors.New("entry has no id")
	}
	row := ports.EncodeRow(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(e.ID); i >= 0 {
		m.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, row)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return true, nil
}

func (m *Mirror) ListIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		ids = append(ids, ports.RowID(row))
	}
	return ids, nil
}

// Row returns a copy of the row mirrored for id.
func (m *Mirror) Row(id string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return append([]any(nil), m.rows[i]...), true
}

func (m *Mirror) indexLocked(id string) int {
	for i, row := range m.rows {
		if ports.RowID(row) == id {
			return i
		}
	}
	return -1
}
