// Package journal provides a SQLite-backed, append-only log of every
// action applied to the store, for debugging and state reconstruction.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/zmirror/zmirror/internal/logging"
)

// DB wraps the SQLite handle used by the journal.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// Open opens (or creates) the journal database at the given path.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to ping journal db: %w", err)
	}
	return &DB{DB: handle, logger: logging.Component("journal")}, nil
}

// OpenInMemory opens an in-memory journal database, used in tests.
func OpenInMemory() (*DB, error) {
	handle, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory journal db: %w", err)
	}
	// A single connection keeps the in-memory database alive and shared.
	handle.SetMaxOpenConns(1)
	return &DB{DB: handle, logger: logging.Component("journal")}, nil
}

// MigrateUp creates the journal schema if it does not exist.
func (db *DB) MigrateUp(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS actions (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			timestamp    TEXT NOT NULL,
			type         TEXT NOT NULL,
			payload_json TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_actions_type ON actions(type);
		CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return nil
}
