package eventqueue

import "sync/atomic"

// Consent is the switch controlling whether events may be sent or queued.
// The zero value has tracking enabled.
type Consent struct {
	disabled atomic.Bool
}

// NewConsent returns a gate with tracking enabled.
func NewConsent() *Consent {
	return &Consent{}
}

// Enable allows sending and queueing.
func (c *Consent) Enable() {
	c.disabled.Store(false)
}

// Disable forbids sending and queueing. Pending deliveries are dropped by the next flush.
func (c *Consent) Disable() {
	c.disabled.Store(true)
}

// IsEnabled reports whether tracking is allowed.
func (c *Consent) IsEnabled() bool {
	return !c.disabled.Load()
}
