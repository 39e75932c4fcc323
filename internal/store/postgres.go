package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresConfig holds database connection configuration.
type PostgresConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	ConnectTimeout     time.Duration
}

// DefaultPostgresConfig returns sensible defaults for database configuration.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxConnections:     25,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    5 * time.Minute,
		ConnectTimeout:     10 * time.Second,
	}
}

// PostgresKV implements KV on a single Postgres table.
type PostgresKV struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewPostgresKV connects to Postgres and ensures the kv_entries table exists.
func NewPostgresKV(ctx context.Context, cfg PostgresConfig) (*PostgresKV, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	kv := &PostgresKV{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := kv.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return kv, nil
}

func (p *PostgresKV) migrate(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create kv_entries table: %w", err)
	}
	return nil
}

// Get returns the value for key.
func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := p.builder.
		Select("value").
		From("kv_entries").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build get query: %w", err)
	}

	var value []byte
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	return value, true, nil
}

// Put upserts the value under key.
func (p *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	query, args, err := p.builder.
		Insert("kv_entries").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build put query: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	query, args, err := p.builder.
		Delete("kv_entries").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns all keys starting with prefix in lexical order.
func (p *PostgresKV) List(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := p.builder.
		Select("key").
		From("kv_entries").
		Where(sq.Like{"key": escapeLike(prefix) + "%"}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return keys, nil
}

// Close closes the underlying connection pool.
func (p *PostgresKV) Close() error {
	return p.db.Close()
}

// escapeLike escapes LIKE metacharacters so prefixes match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
