package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timetracker/internal/amqp"
	applog "timetracker/internal/log"
	"timetracker/internal/store"
	"timetracker/internal/store/memory"
	"timetracker/internal/store/mongo"
	"timetracker/internal/store/sqlite"
)

const indexTimeout = 10 * time.Second

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		s       store.Store
		closeFn CleanupFunc
		err     error
	)
	switch config.Type {
	case MongoBackend:
		s, closeFn, err = f.createMongoStore(ctx, config)
	case SQLiteBackend:
		s, closeFn, err = f.createSQLiteStore(config)
	case MemoryBackend:
		s, err = f.createMemoryStore(config)
	default:
		err = fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	client := f.createAMQPClient(config)

	return &BackendResult{
		Store: s,
		AMQP:  client,
		Cleanup: func() error {
			var errs []error
			if client != nil {
				if err := client.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close AMQP client: %w", err))
				}
			}
			if closeFn != nil {
				if err := closeFn(); err != nil {
					errs = append(errs, fmt.Errorf("close %s store: %w", config.Type, err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createMongoStore(ctx context.Context, config Config) (store.Store, CleanupFunc, error) {
	s, err := mongo.Open(config.MongoURI, config.MongoDatabase, config.MongoCollection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	// The driver connects lazily, so an unreachable server only costs the indexes.
	ictx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := s.EnsureIndexes(ictx); err != nil {
		f.logger.WarnContext(ctx, "Failed to ensure MongoDB indexes", applog.FieldError, err)
	}

	f.logger.InfoContext(ctx, "Initialized MongoDB backend",
		"database", config.MongoDatabase,
		"collection", config.MongoCollection)
	return s, s.Close, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (store.Store, CleanupFunc, error) {
	s, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return s, s.Close, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (store.Store, error) {
	s, err := memory.NewFromSeed(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)
	return s, nil
}

// createAMQPClient returns nil when events are disabled or the broker is
// unreachable; mutations then proceed without publishing.
func (f *DefaultFactory) createAMQPClient(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events", applog.FieldError, err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
