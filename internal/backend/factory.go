package backend

import (
	"context"
	"fmt"
	"log/slog"

	"manicash/internal/storage"
	"manicash/internal/storage/memory"
	"manicash/internal/storage/mongo"
	"manicash/internal/storage/postgres"
	"manicash/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	case MongoBackend:
		res, err = f.createMongoBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Namespace != "" {
		res.Store = storage.WithPrefix(res.Store, config.Namespace)
		f.logger.Info("Scoped store to household", "namespace", config.Namespace)
	}
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.DataDirectory == "" {
		f.logger.Info("Initialized empty memory backend")
		return &BackendResult{Store: memory.New()}, nil
	}

	store := memory.NewFromDir(config.DataDirectory)
	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := sqlite.NewStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.New(ctx, config.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
	}

	f.logger.Info("Initialized PostgreSQL backend")

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
