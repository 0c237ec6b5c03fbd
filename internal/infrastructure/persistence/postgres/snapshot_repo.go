package postgres

import (
	"context"
	"fmt"

	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
)

// SnapshotRepository implements guild.SnapshotRepository for PostgreSQL.
type SnapshotRepository struct {
	q Querier
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(q Querier) *SnapshotRepository {
	return &SnapshotRepository{q: q}
}

// Load returns the stored snapshot, migrated to the current schema.
func (r *SnapshotRepository) Load(ctx context.Context, userID string) (guild.State, error) {
	var data []byte
	err := r.q.QueryRow(ctx, `SELECT data FROM guild_snapshots WHERE user_id = $1`, userID).Scan(&data)
	if err != nil {
		if IsNoRows(err) {
			return guild.State{}, shared.WrapError("snapshot", "Load", shared.ErrNotFound, "no snapshot for "+userID, err)
		}
		return guild.State{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return guild.Decode(data)
}

// Save upserts the snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, userID string, s guild.State) error {
	data, err := guild.Encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO guild_snapshots (user_id, schema_version, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.q.Exec(ctx, query, userID, guild.SchemaVersion, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot. Deleting a missing snapshot is not an error.
func (r *SnapshotRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM guild_snapshots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
