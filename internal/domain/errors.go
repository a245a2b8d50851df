package domain

import "errors"

// ErrInvalidCursor is returned when cursor text cannot be parsed.
var ErrInvalidCursor = errors.New("invalid cursor format")
