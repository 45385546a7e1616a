package eventqueue

import "errors"

var (
	// ErrStorageUnavailable signals that a Provider has no durable backend to offer.
	ErrStorageUnavailable = errors.New("eventqueue storage is unavailable")
	// ErrEndpointRequired is returned when Delivery.Endpoint is empty.
	ErrEndpointRequired = errors.New("eventqueue endpoint is required")
	// ErrInvalidEndpoint is returned when Delivery.Endpoint is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("eventqueue endpoint must be an absolute http(s) URL")
	// ErrEventNameRequired is returned when Event.Name is empty.
	ErrEventNameRequired = errors.New("eventqueue event name is required")
	// ErrInvalidProp is returned when an event property is not a primitive value.
	ErrInvalidProp = errors.New("eventqueue event property must be a string, number, bool or null")
	// ErrDeliveryFailed indicates that the collector did not accept a delivery.
	ErrDeliveryFailed = errors.New("eventqueue delivery failed")
	// ErrNilResponse indicates that a DeliveryClient returned neither a response nor an error.
	ErrNilResponse = errors.New("eventqueue delivery returned no response")
	// ErrNoTransport indicates that no DeliveryClient is configured.
	ErrNoTransport = errors.New("eventqueue has no delivery client")
	// ErrClientPanic indicates a DeliveryClient panicked while delivering.
	ErrClientPanic = errors.New("eventqueue delivery client panic")
	// ErrRunPanic indicates a panic inside the periodic flush loop.
	ErrRunPanic = errors.New("eventqueue flush loop panic")
)
