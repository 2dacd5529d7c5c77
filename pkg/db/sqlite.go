package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteClient owns a single-file SQLite database
type SQLiteClient struct {
	db   *sql.DB
	path string
}

// NewSQLiteClient constructs a client for the database at path. Call Connect before use.
func NewSQLiteClient(path string) *SQLiteClient {
	return &SQLiteClient{path: path}
}

// Connect opens the database file and applies the connection pragmas
func (c *SQLiteClient) Connect(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	c.db = db
	return nil
}

// Close closes the database
func (c *SQLiteClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle
func (c *SQLiteClient) DB() *sql.DB {
	return c.db
}

// NewSQLiteStore opens the database at path and returns a store that owns it
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	client := NewSQLiteClient(path)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	store, err := newSQLStore(ctx, client, sqliteDialect, client.Close, opts)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}
