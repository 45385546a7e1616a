package sqlite

import (
	"time"

	"github.com/velmie/eventqueue"
)

const (
	defaultTable       = "eventqueue_kv"
	defaultBusyTimeout = 5 * time.Second
)

// Config defines SQLite store behavior.
type Config struct {
	Table       string
	Clock       eventqueue.Clock
	BusyTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.Clock == nil {
		c.Clock = eventqueue.SystemClock{}
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}

	return c
}

// Option configures the SQLite store.
type Option func(*Config)

// WithTable sets the key-value table name.
func WithTable(name string) Option {
	return func(c *Config) {
		c.Table = name
	}
}

// WithClock sets the time source used for updated_at.
func WithClock(clock eventqueue.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithBusyTimeout sets how long a writer waits for a lock held by another connection.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.BusyTimeout = timeout
	}
}
