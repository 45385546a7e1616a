package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // CGO-free SQLite

	"github.com/velmie/eventqueue"
	"github.com/velmie/eventqueue/internal/sqlname"
)

const schemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	store_key   TEXT    PRIMARY KEY,
	store_value TEXT    NOT NULL,
	updated_at  INTEGER NOT NULL
);`

// Store implements eventqueue.Storage on a SQLite table.
type Store struct {
	db     *sql.DB
	cfg    Config
	table  string
	ownsDB bool
}

var _ eventqueue.Storage = (*Store)(nil)

// NewStore wraps an open database. The caller keeps ownership of db.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	cfg := newConfig(opts)
	table, err := sqlname.Table(cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTableName, err)
	}

	return &Store{db: db, cfg: cfg, table: table}, nil
}

// Open opens (creating if needed) the database file at path and ensures the schema.
// Close releases the database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("eventqueue sqlite: create directory failed: %w", err)
	}

	cfg := newConfig(opts)
	db, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("eventqueue sqlite: open failed: %w", err)
	}

	store, err := NewStore(db, opts...)
	if err != nil {
		_ = db.Close()

		return nil, err
	}
	store.ownsDB = true

	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

// Provider returns an eventqueue.Provider that opens the database at path.
// A file that cannot be opened is reported as eventqueue.ErrStorageUnavailable.
func Provider(path string, opts ...Option) eventqueue.Provider {
	return func(ctx context.Context) (eventqueue.Storage, error) {
		store, err := Open(ctx, path, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", eventqueue.ErrStorageUnavailable, err)
		}

		return store, nil
	}
}

// EnsureSchema creates the key-value table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(schemaTemplate, s.table)); err != nil {
		return fmt.Errorf("eventqueue sqlite: create schema failed: %w", err)
	}

	return nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}

	return s.db.Close()
}

// Get implements eventqueue.Storage.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyRequired
	}

	var value string
	query := fmt.Sprintf("SELECT store_value FROM %s WHERE store_key = ?", s.table)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("eventqueue sqlite: select failed: %w", err)
	}

	return value, true, nil
}

// Set implements eventqueue.Storage.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrKeyRequired
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (store_key, store_value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = excluded.updated_at",
		s.table,
	)
	if _, err := s.db.ExecContext(ctx, query, key, value, s.cfg.Clock.Now().UnixMilli()); err != nil {
		return fmt.Errorf("eventqueue sqlite: upsert failed: %w", err)
	}

	return nil
}

// Remove implements eventqueue.Storage.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE store_key = ?", s.table)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("eventqueue sqlite: delete failed: %w", err)
	}

	return nil
}

func newConfig(opts []Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.withDefaults()
}

// dsn enables WAL and a busy timeout to avoid "database is locked".
func dsn(path string, cfg Config) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path,
		cfg.BusyTimeout.Milliseconds(),
	)
}
