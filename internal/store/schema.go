package store

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		token_version INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL DEFAULT '',
		national_id TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS phone_numbers (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		raw_value   TEXT NOT NULL,
		UNIQUE (customer_id, raw_value)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		token_version INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		national_id TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS phone_numbers (
		id          BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		raw_value   TEXT NOT NULL,
		UNIQUE (customer_id, raw_value)
	)`,
}

// EnsureSchema creates the application tables when missing. It is safe to
// call on every start.
func EnsureSchema(ctx context.Context, db DB) error {
	var ddl []string
	switch db.Engine() {
	case EnginePostgres:
		ddl = postgresSchema
	case EngineSQLite:
		ddl = sqliteSchema
	default:
		return fmt.Errorf("unsupported engine %q", db.Engine())
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
