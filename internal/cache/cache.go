package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// View is a cache that can be dropped wholesale or per key on invalidation.
type View interface {
	Cleaner
	Delete(key string)
	Purge() int
}

// Scope decides how a registered view reacts to a mutation.
type Scope int

const (
	// ScopeList views are purged by any mutation.
	ScopeList Scope = iota
	// ScopeEntry views are keyed by entry id; only that key is dropped.
	ScopeEntry
)

type registeredView struct {
	name  string
	view  View
	scope Scope
}

// Manager handles cache lifecycle, periodic cleanup and invalidation.
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	views       []registeredView
	logger      *slog.Logger
	started     bool
	stopOnce    sync.Once
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// RegisterView adds a named view for both cleanup and invalidation.
func (m *Manager) RegisterView(name string, v View, scope Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, v)
	m.views = append(m.views, registeredView{name: name, view: v, scope: scope})
}

// InvalidateEntry drops every list view and the per-entry views of id.
func (m *Manager) InvalidateEntry(id string) {
	m.mu.Lock()
	views := append([]registeredView(nil), m.views...)
	m.mu.Unlock()

	purged := 0
	for _, rv := range views {
		switch rv.scope {
		case ScopeList:
			purged += rv.view.Purge()
		case ScopeEntry:
			if id != "" {
				rv.view.Delete(id)
			}
		}
	}
	m.logger.Debug("Cache views invalidated", "entry_id", id, "views", len(views), "purged", purged)
}

// PurgeAll empties every registered view.
func (m *Manager) PurgeAll() int {
	m.mu.Lock()
	views := append([]registeredView(nil), m.views...)
	m.mu.Unlock()

	total := 0
	for _, rv := range views {
		total += rv.view.Purge()
	}
	return total
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			caches := append([]Cleaner(nil), m.caches...)
			m.mu.Unlock()

			totalCleaned := 0
			for _, cache := range caches {
				totalCleaned += cache.CleanExpired()
			}
			if totalCleaned > 0 {
				m.logger.Debug("Expired cache items removed", "count", totalCleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.cleanupDone
		}
	})
}
