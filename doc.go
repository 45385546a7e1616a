// Package eventqueue provides at-least-once delivery of small telemetry events with local durability.
//
// Typical flow:
//  1. A Tracker sends an event to the collector; when the send fails it enqueues the delivery.
//  2. A Flusher (on demand, on reconnect or periodically via Run) drains the queue through a DeliveryClient.
//  3. Deliveries that fail again stay queued, in order, for the next flush.
//
// The queue is persisted as a single JSON array under one storage key. Storage is resolved once per
// process through a Resolver: a durable backend when its Provider succeeds, an in-memory store otherwise.
// Durable backends live in the sqlite, mysql and postgres packages.
//
// A Consent gate controls whether events may be sent or queued at all. Revoking consent makes the
// next flush drop everything that is pending.
package eventqueue
