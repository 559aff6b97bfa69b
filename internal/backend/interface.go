// Package backend builds the data store selected by configuration.
package backend

import (
	"context"

	"backoffice/internal/services"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Result contains the store and its cleanup function.
type Result struct {
	Store   services.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific; empty starts with no data
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
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
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
