package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue"
)

type pendingOptions struct {
	*rootOptions
	count bool
}

func newPendingCommand(root *rootOptions) *cobra.Command {
	opts := &pendingOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Print queued events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPending(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.count, "count", false, "print only the number of queued events")

	return cmd
}

func runPending(cmd *cobra.Command, opts *pendingOptions) error {
	a, err := openApp(cmd.Context(), opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	deliveries, err := a.queue.ReadAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.count {
		fmt.Fprintln(out, len(deliveries))
		return nil
	}

	if deliveries == nil {
		deliveries = []eventqueue.Delivery{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(deliveries)
}
