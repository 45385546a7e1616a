package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue"
)

type flushOptions struct {
	*rootOptions
	batch bool
}

func newFlushCommand(root *rootOptions) *cobra.Command {
	opts := &flushOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver queued events once",
		Long: `Deliver every queued event once. Events the collector rejects stay queued in
their original order. With tracking disabled the queue is discarded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlush(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.batch, "batch", false, "send one request per endpoint")

	return cmd
}

func runFlush(cmd *cobra.Command, opts *flushOptions) error {
	a, err := openApp(cmd.Context(), opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	batch := a.cfg.Batch
	if cmd.Flags().Changed("batch") {
		batch = opts.batch
	}

	flusher := eventqueue.NewFlusher(a.queue, a.options()...)
	result, err := flusher.FlushResult(cmd.Context(), eventqueue.FlushOptions{Batch: batch})
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s delivered=%d pending=%d dropped=%d\n",
		result.Status, result.Delivered, result.Pending, result.Dropped)

	return nil
}
