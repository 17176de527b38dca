package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas. busy_timeout matters:
	// concurrent deliveries land upserts for overlapping keys.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
  event_id    TEXT PRIMARY KEY,
  occurred_at TEXT NOT NULL,
  session_id  TEXT,
  visit_id    TEXT,
  url         TEXT,
  path        TEXT,
  country     TEXT,
  city        TEXT,
  region      TEXT,
  referrer    TEXT,
  user_agent  TEXT,
  client_ip   TEXT,
  ingested_at TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS deliveries (
  id          TEXT PRIMARY KEY,
  received_at TEXT NOT NULL,
  received    INTEGER NOT NULL,
  processed   INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS events_occurred_at_idx ON events(occurred_at);`,
		`CREATE INDEX IF NOT EXISTS deliveries_received_at_idx ON deliveries(received_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
