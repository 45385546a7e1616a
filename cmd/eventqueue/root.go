package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue/internal/config"
)

// rootOptions holds global flags and the configuration resolved from them.
type rootOptions struct {
	configPath string
	verbose    bool
	logFormat  string
	driver     string
	dsn        string
	apiHost    string
	domain     string

	getenv func(string) string
	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand(getenv func(string) string) *cobra.Command {
	opts := &rootOptions{getenv: getenv}

	cmd := &cobra.Command{
		Use:   "eventqueue",
		Short: "Operate a persisted telemetry event queue",
		Long: `eventqueue tracks events, keeps the ones that could not be delivered in a
durable queue, and flushes them to the collector later.

Configuration is read from --config (YAML), then EVENTQUEUE_* environment
variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format (text|json)")
	flags.StringVar(&opts.driver, "driver", config.DriverSQLite, "storage driver (memory|sqlite|mysql|postgres)")
	flags.StringVar(&opts.dsn, "dsn", "", "storage DSN or SQLite file path")
	flags.StringVar(&opts.apiHost, "api-host", "", "collector host events are sent to")
	flags.StringVar(&opts.domain, "domain", "", "default event domain")

	cmd.AddCommand(newTrackCommand(opts))
	cmd.AddCommand(newFlushCommand(opts))
	cmd.AddCommand(newPendingCommand(opts))
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newCollectorCommand(opts))

	return cmd
}

// load applies flags set on the command line over file and environment values.
func (o *rootOptions) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := config.Load(o.configPath, o.getenv, func(cfg *config.Config) {
		if flags.Changed("log-format") {
			cfg.Log.Format = o.logFormat
		}
		if flags.Changed("driver") {
			cfg.Storage.Driver = o.driver
		}
		if flags.Changed("dsn") {
			cfg.Storage.DSN = o.dsn
		}
		if flags.Changed("api-host") {
			cfg.APIHost = o.apiHost
		}
		if flags.Changed("domain") {
			cfg.Domain = o.domain
		}
		if o.verbose {
			cfg.Log.Level = "debug"
		}
	})
	if err != nil {
		return usageError{err: err}
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return usageError{err: err}
	}

	o.cfg = cfg
	o.logger = logger

	return nil
}

func newLogger(w io.Writer, cfg config.Log) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
