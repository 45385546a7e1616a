package sqlite

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("eventqueue sqlite: db is required")
	// ErrPathRequired is returned when Open is called with an empty path.
	ErrPathRequired = errors.New("eventqueue sqlite: path is required")
	// ErrInvalidTableName is returned when the table name is empty or has disallowed characters.
	ErrInvalidTableName = errors.New("eventqueue sqlite: invalid table name")
	// ErrKeyRequired is returned for an empty storage key.
	ErrKeyRequired = errors.New("eventqueue sqlite: key is required")
)
