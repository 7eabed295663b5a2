// Package memory is the in-process gateway: snapshots live for the
// session only. It is the default backend and the one tests lean on.
package memory

import (
	"context"
	"sync"

	"spendtrack/internal/core"
)

type Store struct {
	mu    sync.Mutex
	snap  core.Snapshot
	saved bool
}

func New() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.saved = true
	return nil
}

func (s *Store) Load(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

// Saved reports whether Save has been called at least once.
func (s *Store) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
