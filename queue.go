package eventqueue

import (
	"context"
	"fmt"
)

// Queue is the ordered list of pending deliveries, persisted under one storage key.
//
// Enqueue and flush use read-modify-write on the stored value and are not
// synchronized with each other; callers must not run them concurrently.
type Queue struct {
	resolver *Resolver
	cfg      Config
}

// NewQueue constructs a Queue over the storage chosen by resolver.
func NewQueue(resolver *Resolver, opts ...Option) *Queue {
	if resolver == nil {
		panic("eventqueue: nil Resolver")
	}

	return &Queue{resolver: resolver, cfg: newConfig(opts)}
}

// Enqueue appends delivery to the persisted queue.
func (q *Queue) Enqueue(ctx context.Context, delivery Delivery) error {
	if err := delivery.Validate(); err != nil {
		return err
	}

	queue, err := q.ReadAll(ctx)
	if err != nil {
		return err
	}
	queue = append(queue, delivery)

	if err := q.write(ctx, queue); err != nil {
		return err
	}
	q.cfg.Metrics.AddEnqueued(1)
	q.cfg.Metrics.SetPending(len(queue))

	return nil
}

// ReadAll returns the queued deliveries in insertion order.
// Missing or malformed data reads as an empty queue; only storage failures are returned.
func (q *Queue) ReadAll(ctx context.Context) ([]Delivery, error) {
	storage := q.resolver.Resolve(ctx)
	raw, ok, err := storage.Get(ctx, q.cfg.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("eventqueue: read queue failed: %w", err)
	}
	if !ok {
		return []Delivery{}, nil
	}

	return decodeQueue(raw), nil
}

// Replace overwrites the queue with remaining, deleting the key when remaining is empty.
func (q *Queue) Replace(ctx context.Context, remaining []Delivery) error {
	if len(remaining) == 0 {
		storage := q.resolver.Resolve(ctx)
		if err := storage.Remove(ctx, q.cfg.StorageKey); err != nil {
			return fmt.Errorf("eventqueue: remove queue failed: %w", err)
		}
		q.cfg.Metrics.SetPending(0)

		return nil
	}

	if err := q.write(ctx, remaining); err != nil {
		return err
	}
	q.cfg.Metrics.SetPending(len(remaining))

	return nil
}

// Len returns the number of queued deliveries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	queue, err := q.ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	return len(queue), nil
}

func (q *Queue) write(ctx context.Context, deliveries []Delivery) error {
	raw, err := encodeQueue(deliveries)
	if err != nil {
		return err
	}
	storage := q.resolver.Resolve(ctx)
	if err := storage.Set(ctx, q.cfg.StorageKey, raw); err != nil {
		return fmt.Errorf("eventqueue: write queue failed: %w", err)
	}

	return nil
}
