package eventqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const eventPath = "/api/event"

// TrackRequest describes one event to send.
type TrackRequest struct {
	Name string
	URL  string
	// Domain overrides the tracker's default domain when set.
	Domain string
	Props  Props
}

// EndpointFor returns the event endpoint of a collector host.
func EndpointFor(apiHost string) string {
	return strings.TrimSuffix(apiHost, "/") + eventPath
}

// Tracker sends single events and queues the ones that fail.
type Tracker struct {
	queue    *Queue
	cfg      Config
	endpoint string
}

// NewTracker constructs a Tracker. Failed sends are queued on queue unless
// offline queueing is disabled.
func NewTracker(queue *Queue, opts ...Option) *Tracker {
	if queue == nil {
		panic("eventqueue: nil Queue")
	}
	cfg := newConfig(opts)

	return &Tracker{queue: queue, cfg: cfg, endpoint: EndpointFor(cfg.APIHost)}
}

// Endpoint returns the URL events are POSTed to.
func (t *Tracker) Endpoint() string {
	return t.endpoint
}

// Track sends one event. It returns nil without sending when consent is disabled.
//
// On failure the event is queued for a later flush and the original
// *DeliveryError is returned; a failure to queue is only logged.
func (t *Tracker) Track(ctx context.Context, req TrackRequest) error {
	if !t.cfg.Consent.IsEnabled() {
		return nil
	}

	body := Event{
		Name:   req.Name,
		URL:    req.URL,
		Domain: req.Domain,
		Props:  req.Props,
	}
	if body.Domain == "" {
		body.Domain = t.cfg.Domain
	}
	if err := body.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("eventqueue: encode event failed: %w", err)
	}

	var sendErr error
	if t.cfg.Client == nil {
		sendErr = &DeliveryError{Endpoint: t.endpoint, Err: ErrNoTransport}
	} else {
		sendErr = send(ctx, t.cfg.Client, t.endpoint, payload)
	}
	if sendErr == nil {
		return nil
	}

	t.cfg.Logger.Error("eventqueue event send failed", "event", body.Name, "err", sendErr)
	if t.cfg.OfflineQueue && t.cfg.Consent.IsEnabled() {
		if err := t.queue.Enqueue(ctx, Delivery{Endpoint: t.endpoint, Body: body}); err != nil {
			t.cfg.Logger.Warn("eventqueue enqueue after failed send failed", "event", body.Name, "err", err)
		}
	}

	return sendErr
}
