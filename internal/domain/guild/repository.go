package guild

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository stores the whole State of one member as a single unit.
type SnapshotRepository interface {
	// Load returns the stored snapshot.
	// Returns an error matching shared.ErrNotFound when nothing was saved yet.
	Load(ctx context.Context, userID string) (State, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, userID string, s State) error
}
