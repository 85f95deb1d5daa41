package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite store.
const schemaV1 = `
-- One row per stat; the snapshot is the whole table.
CREATE TABLE IF NOT EXISTS stats (
    category TEXT NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL,
    current_max INTEGER NOT NULL,
    base_max INTEGER NOT NULL,
    level INTEGER NOT NULL,
    PRIMARY KEY (category, name)
);

-- Snapshot-wide fields. A 'total_level' row marks a persisted snapshot.
CREATE TABLE IF NOT EXISTS snapshot_meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);

-- Schema version
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the schema on a fresh database and rejects databases
// written by a newer version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if currentVersion > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}

	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns an error if the schema_version table doesn't exist or is empty.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, fmt.Errorf("schema_version is empty")
	}
	return int(version.Int64), nil
}

// createSchema creates the initial database schema.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}
