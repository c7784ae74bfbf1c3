// Package db is the sqlite trade journal: an append-only audit mirror of
// executed trades. The engine never reads it during a cycle; the JSON
// ledger snapshot remains the single source of trading state.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database wraps the SQL handle for easier swapping/testing.
type Database struct {
	DB *sql.DB
}

// New opens (and creates if needed) the SQLite database at path.
func New(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite prefers single writer.
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{DB: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying DB handle.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func (d *Database) migrate() error {
	_, err := d.DB.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id         TEXT PRIMARY KEY,
			order_id   TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			side       TEXT NOT NULL,
			qty        REAL NOT NULL,
			price      REAL NOT NULL,
			notional   REAL NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, created_at);
	`)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
