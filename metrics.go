package eventqueue

import "time"

// Metrics captures queue and flush telemetry.
type Metrics interface {
	// ObserveFlushDuration records the time spent in one flush pass.
	ObserveFlushDuration(duration time.Duration)
	// AddDelivered increments the count of events accepted by the collector.
	AddDelivered(count int)
	// AddRequeued increments the count of events kept for a later flush.
	AddRequeued(count int)
	// AddDropped increments the count of events discarded without delivery.
	AddDropped(count int)
	// AddEnqueued increments the count of events appended to the queue.
	AddEnqueued(count int)
	// SetPending updates the number of events left in the queue.
	SetPending(count int)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveFlushDuration implements Metrics.
func (NopMetrics) ObserveFlushDuration(time.Duration) {}

// AddDelivered implements Metrics.
func (NopMetrics) AddDelivered(int) {}

// AddRequeued implements Metrics.
func (NopMetrics) AddRequeued(int) {}

// AddDropped implements Metrics.
func (NopMetrics) AddDropped(int) {}

// AddEnqueued implements Metrics.
func (NopMetrics) AddEnqueued(int) {}

// SetPending implements Metrics.
func (NopMetrics) SetPending(int) {}
