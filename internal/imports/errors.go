package imports

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for validation issues.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownSchema is returned when no target schema has the requested name.
	ErrUnknownSchema = errors.New("unknown schema")
)
