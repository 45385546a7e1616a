// Package postgres provides a PostgreSQL key-value backend for the event queue
// built on pgx connection pools.
package postgres
