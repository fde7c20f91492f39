package backend

import (
	"context"

	"manicash/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Close runs the cleanup function when one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// Namespace prefixes every key, one per signed-in household.
	Namespace string

	// Memory backend specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// PostgreSQL specific
	DatabaseURI string

	// MongoDB specific
	MongoURI      string
	MongoDatabase string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MongoBackend    BackendType = "mongo"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, MongoBackend:
		return true
	default:
		return false
	}
}
