package storage

import "errors"

// Storage errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCheckpointConflict is returned when an advance carries the same
	// last_lt as the stored checkpoint but a different hash: the same
	// logical position with a different identity. Data integrity fault;
	// never auto-resolved.
	ErrCheckpointConflict = errors.New("checkpoint conflict: same lt with different hash")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
