package mysql

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("eventqueue mysql: db is required")
	// ErrInvalidTableName is returned when the table name is empty or has disallowed characters.
	ErrInvalidTableName = errors.New("eventqueue mysql: invalid table name")
	// ErrKeyRequired is returned for an empty storage key.
	ErrKeyRequired = errors.New("eventqueue mysql: key is required")
	// ErrKeyTooLong is returned when a storage key exceeds the key column size.
	ErrKeyTooLong = errors.New("eventqueue mysql: key is too long")
)
