// Package mysql provides a MySQL 8.0+ key-value backend for the event queue.
//
// The queue is stored as one row per key in a small table (see Schema). Writes
// are single-statement upserts, so each Set or Remove is atomic on its own.
// Use Provider to plug the store into an eventqueue.Resolver; it reports the
// backend unavailable when the database cannot be reached.
package mysql
