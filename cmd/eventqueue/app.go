package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velmie/eventqueue"
	"github.com/velmie/eventqueue/internal/config"
	"github.com/velmie/eventqueue/mysql"
	"github.com/velmie/eventqueue/postgres"
	"github.com/velmie/eventqueue/sqlite"
)

var errStorageUnavailable = errors.New("configured storage is unavailable")

// app holds the queue and the options shared by the commands of one invocation.
type app struct {
	cfg     config.Config
	logger  eventqueue.Logger
	consent *eventqueue.Consent
	queue   *eventqueue.Queue
	closers []func() error
}

func openApp(ctx context.Context, cfg config.Config, base *slog.Logger) (*app, error) {
	logger := eventqueue.NewSlogLogger(base)
	a := &app{cfg: cfg, logger: logger, consent: eventqueue.NewConsent()}
	if cfg.Disabled {
		a.consent.Disable()
	}

	provider, err := a.provider(ctx)
	if err != nil {
		_ = a.Close()

		return nil, err
	}

	resolver := eventqueue.NewResolver(provider, logger)
	storage := resolver.Resolve(ctx)
	if _, ok := storage.(*eventqueue.MemoryStorage); ok && cfg.Storage.Driver != config.DriverMemory {
		_ = a.Close()

		return nil, fmt.Errorf("%w: %s", errStorageUnavailable, cfg.Storage.Driver)
	}
	if closer, ok := storage.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}
	base.Debug("storage resolved", "driver", cfg.Storage.Driver, "type", fmt.Sprintf("%T", storage))

	a.queue = eventqueue.NewQueue(resolver, a.options()...)

	return a, nil
}

func (a *app) provider(ctx context.Context) (eventqueue.Provider, error) {
	storage := a.cfg.Storage

	switch storage.Driver {
	case config.DriverMemory:
		return nil, nil
	case config.DriverSQLite:
		var opts []sqlite.Option
		if storage.Table != "" {
			opts = append(opts, sqlite.WithTable(storage.Table))
		}

		return sqlite.Provider(storage.DSN, opts...), nil
	case config.DriverMySQL:
		db, err := sql.Open("mysql", storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		opts := []mysql.Option{mysql.WithCreateSchema(true)}
		if storage.Table != "" {
			opts = append(opts, mysql.WithTable(storage.Table))
		}

		return mysql.Provider(db, opts...), nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		opts := []postgres.Option{postgres.WithCreateSchema(true)}
		if storage.Table != "" {
			opts = append(opts, postgres.WithTable(storage.Table))
		}

		return postgres.Provider(pool, opts...), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
}

// options returns the eventqueue options derived from the configuration.
func (a *app) options(extra ...eventqueue.Option) []eventqueue.Option {
	opts := []eventqueue.Option{
		eventqueue.WithStorageKey(a.cfg.StorageKey),
		eventqueue.WithConsent(a.consent),
		eventqueue.WithDeliveryClient(eventqueue.NewHTTPClient(&http.Client{Timeout: a.cfg.Timeout})),
		eventqueue.WithAPIHost(a.cfg.APIHost),
		eventqueue.WithDomain(a.cfg.Domain),
		eventqueue.WithOfflineQueue(a.cfg.OfflineQueue),
		eventqueue.WithBatch(a.cfg.Batch),
		eventqueue.WithFlushInterval(a.cfg.FlushInterval),
		eventqueue.WithLogger(a.logger),
	}

	return append(opts, extra...)
}

// Close releases storage handles in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
