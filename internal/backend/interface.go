package backend

import (
	"context"

	"timetracker/internal/amqp"
	"timetracker/internal/services"
	"timetracker/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional event publisher and the
// function releasing both.
type BackendResult struct {
	Store store.Store
	// AMQP is nil when change events are disabled or the broker was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the change event publisher, or nil when events are disabled.
func (r *BackendResult) Publisher() services.Publisher {
	if r == nil || r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// MongoDB specific
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// SQLite specific
	SQLiteDBPath string

	// Memory specific
	MemorySeedFile string

	// Change events, shared by all backends. Empty URL disables them.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MongoBackend  BackendType = "mongo"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MongoBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
