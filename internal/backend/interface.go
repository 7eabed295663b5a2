// Package backend selects and constructs the persistence gateway for the
// configured storage backend.
package backend

import (
	"context"

	"spendtrack/internal/persist"
)

// CleanupFunc represents a cleanup function for backend resources
type CleanupFunc func() error

// Result contains the gateway instance and optional cleanup function
type Result struct {
	Gateway persist.Gateway
	Cleanup CleanupFunc
}

// Factory creates persistence gateways based on configuration
type Factory interface {
	CreateGateway(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for gateway creation
type Config struct {
	Type Type

	// File backend
	SnapshotPath string

	// SQLite backend
	SQLiteDBPath string
}

// Type represents the kind of storage backend
type Type string

const (
	MemoryBackend Type = "memory"
	FileBackend   Type = "file"
	SQLiteBackend Type = "sqlite"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
