package layout

import "errors"

var (
	// ErrInvalidCount is returned for an anchor count outside 1..4.
	ErrInvalidCount = errors.New("anchor count must be between 1 and 4")

	// ErrInvalidSize is returned when an object has a non-positive width or height.
	ErrInvalidSize = errors.New("object size must be positive")
)
