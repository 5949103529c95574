package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             TEXT    PRIMARY KEY,
		token          TEXT    NOT NULL UNIQUE,
		provider       TEXT    NOT NULL,
		provider_id    TEXT    NOT NULL,
		approved       INTEGER NOT NULL DEFAULT 1,
		upload_key     TEXT    NOT NULL DEFAULT '',
		api_call_count INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		UNIQUE (provider, provider_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
		id                  TEXT    NOT NULL UNIQUE,
		user_id             TEXT    NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider            TEXT    NOT NULL,
		provider_message_id TEXT    NOT NULL DEFAULT '',
		contents            TEXT    NOT NULL,
		delivered           INTEGER NOT NULL DEFAULT 0,
		delivered_at        TEXT    NOT NULL DEFAULT '',
		created_at          TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_user_pending ON messages(user_id, delivered, seq)`,

	`CREATE TABLE IF NOT EXISTS beta_codes (
		code       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	// Ensure schema_version table exists first.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
