package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: GUILD SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- One row per member; the whole guild state lives in data.
CREATE TABLE IF NOT EXISTS guild_snapshots (
    user_id VARCHAR(100) PRIMARY KEY,
    schema_version INTEGER NOT NULL,
    data JSONB NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_schema_version CHECK (schema_version >= 0)
);

CREATE INDEX IF NOT EXISTS idx_guild_snapshots_updated_at ON guild_snapshots(updated_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS guild_snapshots;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: COUNCIL DECISIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS council_decisions (
    request_id VARCHAR(100) PRIMARY KEY,
    kind VARCHAR(20) NOT NULL,
    submitter_id VARCHAR(100) NOT NULL,
    status VARCHAR(20) NOT NULL,
    feedback TEXT NOT NULL DEFAULT '',
    decided_at TIMESTAMP WITH TIME ZONE NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('verification', 'proposal', 'promotion', 'link', 'partnership', 'physical')),
    CONSTRAINT valid_status CHECK (status IN ('approved', 'rejected', 'needs_info'))
);

CREATE INDEX IF NOT EXISTS idx_council_decisions_decided_at ON council_decisions(decided_at DESC);
CREATE INDEX IF NOT EXISTS idx_council_decisions_submitter ON council_decisions(submitter_id, decided_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS council_decisions;
`

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_guild_snapshots", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_council_decisions", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}
