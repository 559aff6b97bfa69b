package backend

import (
	"context"
	"fmt"

	"backoffice/internal/log"
	"backoffice/internal/storage"
	"backoffice/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	base   *log.Logger
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		base:   logger,
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.base)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	store := memory.New()
	if config.SeedFile != "" {
		var err error
		if store, err = memory.NewFromFile(config.SeedFile); err != nil {
			return nil, err
		}
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
