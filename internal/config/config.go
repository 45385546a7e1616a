// Package config loads CLI configuration from a YAML file and EVENTQUEUE_*
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/velmie/eventqueue"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EVENTQUEUE_"

const (
	defaultSQLitePath    = "eventqueue.db"
	defaultFlushInterval = 30 * time.Second
	defaultTimeout       = 10 * time.Second
)

var (
	// ErrInvalid is returned when a loaded configuration fails validation.
	ErrInvalid = errors.New("invalid config")

	validDrivers    = []string{DriverMemory, DriverSQLite, DriverMySQL, DriverPostgres}
	validLogFormats = []string{"text", "json"}
)

// Config is the CLI configuration.
type Config struct {
	Storage       Storage       `yaml:"storage"`
	StorageKey    string        `yaml:"storage_key"`
	APIHost       string        `yaml:"api_host"`
	Domain        string        `yaml:"domain"`
	Batch         bool          `yaml:"batch"`
	OfflineQueue  bool          `yaml:"offline_queue"`
	Disabled      bool          `yaml:"tracking_disabled"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Timeout       time.Duration `yaml:"timeout"`
	Log           Log           `yaml:"log"`
}

// Storage selects the queue backend.
type Storage struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
// The SQLite path is filled in by Validate so that switching drivers does not
// inherit it as a DSN.
func Default() Config {
	return Config{
		Storage: Storage{
			Driver: DriverSQLite,
		},
		StorageKey:    eventqueue.DefaultStorageKey,
		APIHost:       eventqueue.DefaultAPIHost,
		OfflineQueue:  true,
		FlushInterval: defaultFlushInterval,
		Timeout:       defaultTimeout,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when empty),
// environment overrides read through getenv and then overrides, and validates it.
func Load(path string, getenv func(string) string, overrides ...func(*Config)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Decode overlays YAML data onto cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// ApplyEnv overrides fields from EVENTQUEUE_* variables that are set.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"STORAGE_DRIVER": &c.Storage.Driver,
		"STORAGE_DSN":    &c.Storage.DSN,
		"STORAGE_TABLE":  &c.Storage.Table,
		"STORAGE_KEY":    &c.StorageKey,
		"API_HOST":       &c.APIHost,
		"DOMAIN":         &c.Domain,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
	}
	for name, dst := range strs {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"BATCH":             &c.Batch,
		"OFFLINE_QUEUE":     &c.OfflineQueue,
		"TRACKING_DISABLED": &c.Disabled,
	}
	for name, dst := range bools {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s must be a boolean", ErrInvalid, EnvPrefix, name)
		}
		*dst = parsed
	}

	durations := map[string]*time.Duration{
		"FLUSH_INTERVAL": &c.FlushInterval,
		"TIMEOUT":        &c.Timeout,
	}
	for name, dst := range durations {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s must be a duration", ErrInvalid, EnvPrefix, name)
		}
		*dst = parsed
	}

	return nil
}

// Validate checks field values and fills a default SQLite path.
func (c *Config) Validate() error {
	if !contains(validDrivers, c.Storage.Driver) {
		return fmt.Errorf("%w: storage.driver %q must be one of %v", ErrInvalid, c.Storage.Driver, validDrivers)
	}
	if c.Storage.DSN == "" {
		switch c.Storage.Driver {
		case DriverSQLite:
			c.Storage.DSN = defaultSQLitePath
		case DriverMySQL, DriverPostgres:
			return fmt.Errorf("%w: storage.dsn is required for %s", ErrInvalid, c.Storage.Driver)
		}
	}
	if c.StorageKey == "" {
		return fmt.Errorf("%w: storage_key is required", ErrInvalid)
	}
	parsed, err := url.Parse(c.APIHost)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: api_host %q must be an absolute http(s) URL", ErrInvalid, c.APIHost)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush_interval must be positive", ErrInvalid)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if !contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q must be one of %v", ErrInvalid, c.Log.Format, validLogFormats)
	}

	return nil
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, l.Level)
	}

	return level, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}
