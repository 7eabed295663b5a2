// Package persist defines the outbound persistence port and its gateways.
// The whole state travels as one core.Snapshot: gateways never see partial
// mutations, and a failed save never affects in-memory state.
package persist

import (
	"context"

	"spendtrack/internal/core"
)

// Gateway is the persistence port for the state snapshot.
type Gateway interface {
	// Save writes the full snapshot. Best-effort: callers log failures
	// and carry on.
	Save(ctx context.Context, snap core.Snapshot) error

	// Load reads the last saved snapshot. A gateway with nothing saved
	// yet returns an empty snapshot and no error; callers normalize.
	Load(ctx context.Context) (core.Snapshot, error)
}
