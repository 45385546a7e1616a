// Package sqlname validates identifiers interpolated into SQL statements.
package sqlname

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequired is returned for an empty table name.
	ErrRequired = errors.New("table name is required")
	// ErrInvalid is returned for a table name with disallowed characters.
	ErrInvalid = errors.New("invalid table name")
)

// Table checks that name is a plain or schema-qualified identifier made of
// ASCII letters, digits and underscores, and returns it unchanged.
func Table(name string) (string, error) {
	if name == "" {
		return "", ErrRequired
	}
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalid, name)
		}
		for _, r := range part {
			if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				continue
			}

			return "", fmt.Errorf("%w: %s", ErrInvalid, name)
		}
	}

	return name, nil
}
