package postgres

import "errors"

var (
	// ErrDBRequired is returned when a nil DB is provided.
	ErrDBRequired = errors.New("eventqueue postgres: db is required")
	// ErrInvalidTableName is returned when the table name is empty or has disallowed characters.
	ErrInvalidTableName = errors.New("eventqueue postgres: invalid table name")
	// ErrKeyRequired is returned for an empty storage key.
	ErrKeyRequired = errors.New("eventqueue postgres: key is required")
)
