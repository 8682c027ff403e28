package drag

import "errors"

var (
	// ErrNotDragging is returned by UpdateDrag when no drag is active.
	ErrNotDragging = errors.New("no drag in progress")

	// ErrAlreadyDragging is returned by BeginDrag while another drag is active.
	ErrAlreadyDragging = errors.New("a drag is already in progress")

	// ErrObjectLocked is returned when beginning a drag on a locked object.
	ErrObjectLocked = errors.New("object is locked")
)
