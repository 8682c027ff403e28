package placement

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrIncompleteInput is returned when finalizing before every point was collected.
	ErrIncompleteInput = errors.New("incomplete input")

	// ErrDebounced is returned when a point arrives inside the debounce window and is dropped.
	ErrDebounced = errors.New("point dropped inside debounce window")

	// ErrInvalidTarget is returned for a target count the placement kind does not support.
	ErrInvalidTarget = errors.New("invalid target count")
)

// TransitionError reports an action rejected in the current state
type TransitionError struct {
	State  State
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s not allowed while %s", e.Action, e.State)
}

// Is matches ErrInvalidTransition
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IncompleteInputError reports how many points were collected versus required
type IncompleteInputError struct {
	Have int
	Need int
}

func (e *IncompleteInputError) Error() string {
	return fmt.Sprintf("incomplete input: have %d of %d points", e.Have, e.Need)
}

// Is matches ErrIncompleteInput
func (e *IncompleteInputError) Is(target error) bool {
	return target == ErrIncompleteInput
}
