package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteKV implements KV on a local SQLite file, for single-node deployments
// and development without a Postgres instance.
type SQLiteKV struct {
	db *sqlx.DB
}

// NewSQLiteKV opens (or creates) the database at path and ensures the schema.
func NewSQLiteKV(path string) (*SQLiteKV, error) {
	// modernc's driver takes pragmas in _pragma=name(value) form; the
	// mattn-style _journal_mode / _busy_timeout keys are silently ignored.
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv_entries table: %w", err)
	}

	return &SQLiteKV{db: db}, nil
}

// Get returns the value for key.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Put upserts the value under key.
func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns all keys starting with prefix in lexical order.
func (s *SQLiteKV) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeLikeSQLite(prefix) + "%"

	keys := make([]string, 0)
	err := s.db.SelectContext(ctx, &keys,
		`SELECT key FROM kv_entries WHERE key LIKE ? ESCAPE '\' ORDER BY key`, pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the database file.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func escapeLikeSQLite(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
