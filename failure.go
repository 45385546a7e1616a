package eventqueue

import "context"

// FailureAction defines how a failed delivery should be handled.
type FailureAction int

const (
	// FailureRetry keeps the delivery queued for the next flush.
	FailureRetry FailureAction = iota
	// FailureDrop discards the delivery without further attempts.
	FailureDrop
)

// FailureClassifier decides whether a failed delivery is retried.
// In batch mode it is consulted once per endpoint group with the group's first delivery.
type FailureClassifier func(ctx context.Context, delivery Delivery, err error) FailureAction

func defaultFailureClassifier(context.Context, Delivery, error) FailureAction {
	return FailureRetry
}
