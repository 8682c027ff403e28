package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a drag and a placement run would overlap.
	ErrBusy = errors.New("engine busy")

	// ErrNoActiveFlow is returned for run commands and points while every flow is idle.
	ErrNoActiveFlow = errors.New("no placement flow is running")

	// ErrUnknownCommand is returned for a command or drag phase the engine does not know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingObject is returned when an anchor run is started without an object id.
	ErrMissingObject = errors.New("anchor placement needs an object id")

	// ErrAnchorCountMismatch is returned when anchors do not match the configured count.
	ErrAnchorCountMismatch = errors.New("anchor count mismatch")
)

// AnchorCountMismatchError reports collected versus configured anchors
type AnchorCountMismatchError struct {
	Have int
	Want int
}

func (e *AnchorCountMismatchError) Error() string {
	return fmt.Sprintf("anchor count mismatch: have %d, want %d", e.Have, e.Want)
}

// Is matches ErrAnchorCountMismatch
func (e *AnchorCountMismatchError) Is(target error) bool {
	return target == ErrAnchorCountMismatch
}
