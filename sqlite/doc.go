// Package sqlite provides a file-backed key-value backend for the event queue
// using the CGO-free modernc.org/sqlite driver.
//
// It is the default durable store for single-host agents and the CLI: the
// database runs in WAL mode with a busy timeout, and the queue lives in one
// row of a small key-value table.
package sqlite
