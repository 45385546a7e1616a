package eventqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FlushOptions controls a single flush pass.
type FlushOptions struct {
	// Batch sends one request per endpoint carrying an array of events.
	Batch bool
	// Client overrides the flusher's ambient DeliveryClient for this pass.
	Client DeliveryClient
}

// Flusher drains a Queue through a DeliveryClient.
type Flusher struct {
	queue *Queue
	cfg   Config
}

type flushOutcome struct {
	delivered int
	pending   []Delivery
	dropped   int
}

// NewFlusher constructs a Flusher with defaults and optional settings.
func NewFlusher(queue *Queue, opts ...Option) *Flusher {
	if queue == nil {
		panic("eventqueue: nil Queue")
	}

	return &Flusher{queue: queue, cfg: newConfig(opts)}
}

// Flush attempts to deliver every queued event and returns the number delivered.
// When no DeliveryClient is available it returns the queue length and leaves the queue intact.
func (f *Flusher) Flush(ctx context.Context, opts FlushOptions) (int, error) {
	result, err := f.FlushResult(ctx, opts)

	return result.Count(), err
}

// FlushResult is Flush with a detailed outcome.
//
// Delivery failures are never returned: failed deliveries stay queued in their
// original order. Storage failures are returned and leave the queue as it was.
// If ctx is cancelled mid-pass, unsent deliveries stay queued and ctx.Err() is returned.
func (f *Flusher) FlushResult(ctx context.Context, opts FlushOptions) (Result, error) {
	start := f.cfg.Clock.Now()
	defer func() {
		f.cfg.Metrics.ObserveFlushDuration(f.cfg.Clock.Now().Sub(start))
	}()

	queue, err := f.queue.ReadAll(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(queue) == 0 {
		return Result{Status: FlushEmpty}, nil
	}

	if !f.cfg.Consent.IsEnabled() {
		return f.drop(ctx, queue)
	}

	client := opts.Client
	if client == nil {
		client = f.cfg.Client
	}
	if client == nil {
		f.cfg.Logger.Debug("eventqueue flush skipped: no delivery client", "pending", len(queue))

		return Result{Status: FlushNoTransport, Pending: len(queue)}, nil
	}

	var outcome flushOutcome
	if opts.Batch {
		outcome = f.sendGroups(ctx, client, queue)
	} else {
		outcome = f.sendEach(ctx, client, queue)
	}

	persistCtx := ctx
	if ctx.Err() != nil {
		persistCtx = context.WithoutCancel(ctx)
	}
	if err := f.queue.Replace(persistCtx, outcome.pending); err != nil {
		return Result{Status: FlushCompleted, Delivered: outcome.delivered, Pending: len(queue)}, err
	}

	f.cfg.Metrics.AddDelivered(outcome.delivered)
	f.cfg.Metrics.AddRequeued(len(outcome.pending))
	f.cfg.Metrics.AddDropped(outcome.dropped)
	f.cfg.Logger.Debug(
		"eventqueue flush done",
		"batch", opts.Batch,
		"delivered", outcome.delivered,
		"pending", len(outcome.pending),
		"dropped", outcome.dropped,
	)

	result := Result{
		Status:    FlushCompleted,
		Delivered: outcome.delivered,
		Pending:   len(outcome.pending),
		Dropped:   outcome.dropped,
	}

	return result, ctx.Err()
}

// Run flushes immediately and then every FlushInterval until ctx is done.
// Flush errors are logged and do not stop the loop.
func (f *Flusher) Run(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f.cfg.Logger.Error("eventqueue flush loop panic", "panic", rec)
			err = fmt.Errorf("%w: %v", ErrRunPanic, rec)
		}
	}()

	for {
		result, flushErr := f.FlushResult(ctx, FlushOptions{Batch: f.cfg.Batch})
		if flushErr != nil && ctx.Err() == nil {
			f.cfg.Logger.Error("eventqueue flush failed", "err", flushErr)
		} else if result.Delivered > 0 {
			f.cfg.Logger.Info("eventqueue flushed", "delivered", result.Delivered, "pending", result.Pending)
		}

		if sleepErr := f.sleep(ctx, f.cfg.FlushInterval); sleepErr != nil {
			return nil
		}
	}
}

func (f *Flusher) drop(ctx context.Context, queue []Delivery) (Result, error) {
	if err := f.queue.Replace(ctx, nil); err != nil {
		return Result{Status: FlushDropped, Pending: len(queue)}, err
	}
	f.cfg.Metrics.AddDropped(len(queue))
	f.cfg.Logger.Info("eventqueue consent disabled; dropped pending events", "count", len(queue))

	return Result{Status: FlushDropped, Dropped: len(queue)}, nil
}

func (f *Flusher) sendEach(ctx context.Context, client DeliveryClient, queue []Delivery) flushOutcome {
	outcome := flushOutcome{pending: make([]Delivery, 0)}
	for i, delivery := range queue {
		if ctx.Err() != nil {
			outcome.pending = append(outcome.pending, queue[i:]...)

			break
		}

		err := f.deliverOne(ctx, client, delivery)
		if err == nil {
			outcome.delivered++

			continue
		}
		f.recordFailure(ctx, delivery, []Delivery{delivery}, err, &outcome)
	}

	return outcome
}

func (f *Flusher) sendGroups(ctx context.Context, client DeliveryClient, queue []Delivery) flushOutcome {
	outcome := flushOutcome{pending: make([]Delivery, 0)}
	groups := groupByEndpoint(queue)
	for i, group := range groups {
		if ctx.Err() != nil {
			for _, rest := range groups[i:] {
				outcome.pending = append(outcome.pending, rest.deliveries...)
			}

			break
		}

		err := f.deliverGroup(ctx, client, group)
		if err == nil {
			outcome.delivered += len(group.deliveries)

			continue
		}
		f.recordFailure(ctx, group.deliveries[0], group.deliveries, err, &outcome)
	}

	return outcome
}

func (f *Flusher) deliverOne(ctx context.Context, client DeliveryClient, delivery Delivery) error {
	body, err := json.Marshal(delivery.Body)
	if err != nil {
		return fmt.Errorf("eventqueue: encode event failed: %w", err)
	}

	return send(ctx, client, delivery.Endpoint, body)
}

func (f *Flusher) deliverGroup(ctx context.Context, client DeliveryClient, group endpointGroup) error {
	body, err := json.Marshal(group.bodies())
	if err != nil {
		return fmt.Errorf("eventqueue: encode batch failed: %w", err)
	}

	return send(ctx, client, group.endpoint, body)
}

// recordFailure requeues or drops failed as a unit.
func (f *Flusher) recordFailure(ctx context.Context, first Delivery, failed []Delivery, err error, outcome *flushOutcome) {
	f.cfg.Logger.Debug("eventqueue delivery failed", "endpoint", first.Endpoint, "count", len(failed), "err", err)

	if ctx.Err() == nil && f.cfg.FailureClassifier(ctx, first, err) == FailureDrop {
		f.cfg.Logger.Warn("eventqueue delivery dropped", "endpoint", first.Endpoint, "count", len(failed), "err", err)
		outcome.dropped += len(failed)

		return
	}
	outcome.pending = append(outcome.pending, failed...)
}

func (f *Flusher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
