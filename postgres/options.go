package postgres

import "github.com/velmie/eventqueue"

const defaultTable = "eventqueue_kv"

// Config defines PostgreSQL store behavior.
type Config struct {
	Table        string
	Clock        eventqueue.Clock
	CreateSchema bool
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.Clock == nil {
		c.Clock = eventqueue.SystemClock{}
	}

	return c
}

// Option configures the PostgreSQL store.
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

// WithCreateSchema makes Provider and Open create the table when it is missing.
func WithCreateSchema(enabled bool) Option {
	return func(c *Config) {
		c.CreateSchema = enabled
	}
}
