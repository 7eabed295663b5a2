package backend

import (
	"context"
	"fmt"

	applog "spendtrack/internal/log"
	"spendtrack/internal/persist/file"
	"spendtrack/internal/persist/memory"
	"spendtrack/internal/persist/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateGateway implements Factory.CreateGateway
func (f *DefaultFactory) CreateGateway(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryGateway()
	case FileBackend:
		return f.createFileGateway(config)
	case SQLiteBackend:
		return f.createSQLiteGateway(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryGateway() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{
		Gateway: memory.New(),
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createFileGateway(config Config) (*Result, error) {
	if config.SnapshotPath == "" {
		return nil, fmt.Errorf("snapshot path is required for file backend")
	}

	f.logger.Info("Initialized file backend", "snapshot_path", config.SnapshotPath)
	return &Result{
		Gateway: file.New(config.SnapshotPath),
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteGateway(config Config) (*Result, error) {
	if config.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	repo, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{
		Gateway: repo,
		Cleanup: repo.Close,
	}, nil
}
