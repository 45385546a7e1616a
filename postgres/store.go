package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velmie/eventqueue"
	"github.com/velmie/eventqueue/internal/sqlname"
)

const connectTimeout = 10 * time.Second

const schemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	store_key   TEXT        PRIMARY KEY,
	store_value TEXT        NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Store implements eventqueue.Storage on a PostgreSQL table.
type Store struct {
	db    DB
	pool  *pgxpool.Pool
	cfg   Config
	table string
}

var _ eventqueue.Storage = (*Store)(nil)

// NewStore wraps db, typically a *pgxpool.Pool owned by the caller.
func NewStore(db DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	table, err := sqlname.Table(cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTableName, err)
	}

	return &Store{db: db, cfg: cfg, table: table}, nil
}

// Open creates a connection pool for databaseURL and fails fast if the database is unreachable.
// Close releases the pool.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("eventqueue postgres: connect failed: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("eventqueue postgres: ping failed: %w", err)
	}

	store, err := NewStore(pool, opts...)
	if err != nil {
		pool.Close()

		return nil, err
	}
	store.pool = pool

	if store.cfg.CreateSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()

			return nil, err
		}
	}

	return store, nil
}

// Provider returns an eventqueue.Provider yielding a Store over db.
// An unreachable database is reported as eventqueue.ErrStorageUnavailable.
func Provider(db DB, opts ...Option) eventqueue.Provider {
	return func(ctx context.Context) (eventqueue.Storage, error) {
		store, err := NewStore(db, opts...)
		if err != nil {
			return nil, err
		}
		if p, ok := db.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", eventqueue.ErrStorageUnavailable, err)
			}
		}
		if store.cfg.CreateSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}

		return store, nil
	}
}

// Schema returns the DDL for the key-value table.
func Schema(table string) (string, error) {
	name, err := sqlname.Table(table)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTableName, err)
	}

	return fmt.Sprintf(schemaTemplate, name), nil
}

// EnsureSchema creates the key-value table. Safe to run multiple times.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema, err := Schema(s.table)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("eventqueue postgres: create schema failed: %w", err)
	}

	return nil
}

// Close closes the pool if the store opened it.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Get implements eventqueue.Storage.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyRequired
	}

	var value string
	err := s.db.QueryRow(ctx, fmt.Sprintf("SELECT store_value FROM %s WHERE store_key = $1", s.table), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("eventqueue postgres: select failed: %w", err)
	}

	return value, true, nil
}

// Set implements eventqueue.Storage.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrKeyRequired
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (store_key, store_value, updated_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (store_key) DO UPDATE SET store_value = EXCLUDED.store_value, updated_at = EXCLUDED.updated_at",
		s.table,
	)
	if _, err := s.db.Exec(ctx, query, key, value, s.cfg.Clock.Now()); err != nil {
		return fmt.Errorf("eventqueue postgres: upsert failed: %w", err)
	}

	return nil
}

// Remove implements eventqueue.Storage.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	if _, err := s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE store_key = $1", s.table), key); err != nil {
		return fmt.Errorf("eventqueue postgres: delete failed: %w", err)
	}

	return nil
}
