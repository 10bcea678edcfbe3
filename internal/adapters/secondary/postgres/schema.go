package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS artifact_index (
		content_hash     TEXT PRIMARY KEY,
		state            TEXT NOT NULL DEFAULT 'pending',
		expires_at       TIMESTAMPTZ,
		artifact_id      UUID,
		source           TEXT,
		label            TEXT,
		label_confidence DOUBLE PRECISION,
		location         TEXT,
		created_at       TIMESTAMPTZ,
		attribution      JSONB,
		source_metadata  JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS artifact_index_label_idx
		ON artifact_index (label) WHERE state = 'committed'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS artifact_index_artifact_id_idx
		ON artifact_index (artifact_id) WHERE artifact_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS model_versions (
		id           UUID PRIMARY KEY,
		model_name   TEXT NOT NULL,
		version      INTEGER NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		dataset_size INTEGER NOT NULL,
		train_size   INTEGER NOT NULL,
		val_size     INTEGER NOT NULL,
		metrics      JSONB,
		notes        TEXT NOT NULL DEFAULT '',
		UNIQUE (model_name, version)
	)`,
}

// EnsureSchema creates the tables the service needs if they are missing.
// Every statement is idempotent, so running it on each startup is safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
