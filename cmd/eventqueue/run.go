package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue"
)

type runOptions struct {
	*rootOptions
	batch bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Flush the queue periodically until interrupted",
		Long: `Flush the queue immediately and then every flush_interval until SIGINT or
SIGTERM. Flush errors are logged and the loop keeps going.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.batch, "batch", false, "send one request per endpoint")

	return cmd
}

func runLoop(cmd *cobra.Command, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var extra []eventqueue.Option
	if cmd.Flags().Changed("batch") {
		extra = append(extra, eventqueue.WithBatch(opts.batch))
	}

	opts.logger.Info("flush loop started",
		"interval", a.cfg.FlushInterval,
		"driver", a.cfg.Storage.Driver,
		"api_host", a.cfg.APIHost,
	)
	err = eventqueue.NewFlusher(a.queue, a.options(extra...)...).Run(ctx)
	opts.logger.Info("flush loop stopped")

	return err
}
