package eventqueue

// FlushStatus describes how a flush pass ended.
type FlushStatus int16

const (
	// FlushEmpty indicates there was nothing queued.
	FlushEmpty FlushStatus = 0
	// FlushCompleted indicates every queued delivery was attempted.
	FlushCompleted FlushStatus = 1
	// FlushNoTransport indicates no DeliveryClient was available and the queue was left intact.
	FlushNoTransport FlushStatus = 2
	// FlushDropped indicates consent was disabled and the queue was discarded.
	FlushDropped FlushStatus = -1
)

// String returns a lowercase name for the status.
func (s FlushStatus) String() string {
	switch s {
	case FlushEmpty:
		return "empty"
	case FlushCompleted:
		return "completed"
	case FlushNoTransport:
		return "no_transport"
	case FlushDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Result reports the outcome of one flush pass.
type Result struct {
	Status FlushStatus
	// Delivered is the number of events the collector accepted.
	Delivered int
	// Pending is the number of events left in the queue afterwards.
	Pending int
	// Dropped is the number of events discarded without delivery.
	Dropped int
}

// Count returns the integer a caller of Flush sees: the queue length when no
// transport was available, the delivered count otherwise.
func (r Result) Count() int {
	if r.Status == FlushNoTransport {
		return r.Pending
	}

	return r.Delivered
}
