package calibration

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when an id does not name a stored object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrDuplicateObject is returned when adding an object whose id is already stored.
	ErrDuplicateObject = errors.New("object already exists")

	// ErrNotCalibrated is returned by wall operations that need a fitted plane.
	ErrNotCalibrated = errors.New("wall is not calibrated")

	// ErrUnknownPath is returned for a dotted path that names nothing.
	ErrUnknownPath = errors.New("unknown state path")

	// ErrReadOnlyPath is returned when updating a path that only supports reads.
	ErrReadOnlyPath = errors.New("state path is read-only")

	// ErrInvalidValue is returned when a path update carries a value of the wrong type.
	ErrInvalidValue = errors.New("invalid value for state path")
)

// ObjectNotFoundError names the id that was looked up
type ObjectNotFoundError struct {
	ID string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.ID)
}

// Is matches ErrObjectNotFound
func (e *ObjectNotFoundError) Is(target error) bool {
	return target == ErrObjectNotFound
}
