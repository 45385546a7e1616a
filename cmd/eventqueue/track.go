package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/velmie/eventqueue"
)

type trackOptions struct {
	*rootOptions
	name   string
	url    string
	domain string
	props  []string
}

func newTrackCommand(root *rootOptions) *cobra.Command {
	opts := &trackOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Send one event, queueing it if delivery fails",
		Long: `Send one event to the collector. If delivery fails and offline queueing is
enabled, the event is queued for a later flush and the command still exits
non-zero.

Example:
  eventqueue track --name Signup --url https://app.example.com/signup --prop plan=pro --prop seats=3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrack(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "event name (required)")
	cmd.Flags().StringVar(&opts.url, "url", "", "page or screen URL (required)")
	cmd.Flags().StringVar(&opts.domain, "event-domain", "", "event domain (defaults to --domain)")
	cmd.Flags().StringArrayVar(&opts.props, "prop", nil, "event property as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runTrack(cmd *cobra.Command, opts *trackOptions) error {
	props, err := parseProps(opts.props)
	if err != nil {
		return usageError{err: err}
	}

	a, err := openApp(cmd.Context(), opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !a.consent.IsEnabled() {
		fmt.Fprintln(out, "tracking disabled")
		return nil
	}

	tracker := eventqueue.NewTracker(a.queue, a.options()...)
	err = tracker.Track(cmd.Context(), eventqueue.TrackRequest{
		Name:   opts.name,
		URL:    opts.url,
		Domain: opts.domain,
		Props:  props,
	})
	if err == nil {
		fmt.Fprintf(out, "sent %s to %s\n", opts.name, tracker.Endpoint())
		return nil
	}

	var deliveryErr *eventqueue.DeliveryError
	if errors.As(err, &deliveryErr) && a.cfg.OfflineQueue {
		fmt.Fprintf(out, "queued %s for retry\n", opts.name)
	}

	return err
}

// parseProps turns key=value pairs into event props. Values that are JSON
// numbers, booleans or null keep their type; anything else is a string.
func parseProps(pairs []string) (eventqueue.Props, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	props := make(eventqueue.Props, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --prop %q: want key=value", pair)
		}
		props[key] = parsePropValue(raw)
	}

	return props, nil
}

func parsePropValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	switch value.(type) {
	case nil, bool, float64:
		return value
	default:
		return raw
	}
}
