// Package file persists the state snapshot as a single JSON blob on disk,
// in the exact layout the snapshot contract defines. Writes go through a
// temp file and rename so a crash mid-save leaves the previous blob intact.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendtrack/internal/core"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	blob, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	slog.DebugContext(ctx, "Snapshot written",
		"path", s.path,
		"bytes", len(blob),
		"expenses", len(snap.Expenses))
	return nil
}

func (s *Store) Load(_ context.Context) (core.Snapshot, error) {
	blob, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		// First run: nothing saved yet.
		return core.Snapshot{}, nil
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
