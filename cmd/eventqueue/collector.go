package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue"
	"github.com/velmie/eventqueue/collector"
)

const shutdownTimeout = 5 * time.Second

type collectorOptions struct {
	*rootOptions
	addr string
}

func newCollectorCommand(root *rootOptions) *cobra.Command {
	opts := &collectorOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Serve a reference collector that accepts queued events",
		Long: `Serve POST /api/event and GET /health. Accepted events are kept in memory and
logged at debug level.

Example:
  eventqueue collector --addr :8080 &
  eventqueue flush --api-host http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", opts.addr)
			if err != nil {
				return err
			}

			return serveCollector(ctx, listener, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")

	return cmd
}

func serveCollector(ctx context.Context, listener net.Listener, opts *collectorOptions) error {
	c := collector.New(collector.WithLogger(eventqueue.NewSlogLogger(opts.logger)))
	server := &http.Server{
		Handler:           c.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	opts.logger.Info("collector listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	opts.logger.Info("collector stopped", "accepted", len(c.Events()))

	return nil
}
