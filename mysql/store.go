package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/velmie/eventqueue"
	"github.com/velmie/eventqueue/internal/sqlname"
)

// Store implements eventqueue.Storage on a MySQL table.
type Store struct {
	db      *sql.DB
	cfg     Config
	queries queries
	table   string
}

var _ eventqueue.Storage = (*Store)(nil)

// NewStore constructs a MySQL store with validated configuration.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
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

	return &Store{
		db:      db,
		cfg:     cfg,
		queries: newQueries(table),
		table:   table,
	}, nil
}

// MustNewStore constructs a MySQL store or panics on error.
func MustNewStore(db *sql.DB, opts ...Option) *Store {
	store, err := NewStore(db, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

// Provider returns an eventqueue.Provider that pings db and yields a Store.
// An unreachable database is reported as eventqueue.ErrStorageUnavailable.
func Provider(db *sql.DB, opts ...Option) eventqueue.Provider {
	return func(ctx context.Context) (eventqueue.Storage, error) {
		store, err := NewStore(db, opts...)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", eventqueue.ErrStorageUnavailable, err)
		}
		if store.cfg.CreateSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}

		return store, nil
	}
}

// EnsureSchema creates the key-value table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema, err := Schema(s.table)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("eventqueue mysql: create schema failed: %w", err)
	}

	return nil
}

// Get implements eventqueue.Storage.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, s.queries.selectValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("eventqueue mysql: select failed: %w", err)
	}

	return value, true, nil
}

// Set implements eventqueue.Storage.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.queries.upsert, key, value, s.cfg.Clock.Now()); err != nil {
		return fmt.Errorf("eventqueue mysql: upsert failed: %w", err)
	}

	return nil
}

// Remove implements eventqueue.Storage.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.queries.remove, key); err != nil {
		return fmt.Errorf("eventqueue mysql: delete failed: %w", err)
	}

	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	if utf8.RuneCountInString(key) > maxKeyLength {
		return fmt.Errorf("%w: %d characters", ErrKeyTooLong, utf8.RuneCountInString(key))
	}

	return nil
}
