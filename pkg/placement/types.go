package placement

import (
	"fmt"
	"time"
)

// DefaultDebounce is the minimum spacing between accepted point submissions
const DefaultDebounce = 1000 * time.Millisecond

// ObjectCorners is the number of corner samples defining a rectangle
const ObjectCorners = 3

// MaxAnchors is the largest anchor count an anchor placement run may collect
const MaxAnchors = 4

// Kind selects which flow a machine sequences
type Kind int

const (
	// ObjectDefinition collects the three corners of a new object.
	ObjectDefinition Kind = iota
	// AnchorPlacement collects 1-4 anchor points on an existing object.
	AnchorPlacement
	// WallCalibration collects the three points the wall plane is fitted to.
	WallCalibration
)

// ParseKind maps a flow name ("object", "anchor", "wall") to its Kind
func ParseKind(name string) (Kind, error) {
	for _, k := range []Kind{ObjectDefinition, AnchorPlacement, WallCalibration} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown placement kind %q", name)
}

func (k Kind) String() string {
	switch k {
	case ObjectDefinition:
		return "object"
	case AnchorPlacement:
		return "anchor"
	case WallCalibration:
		return "wall"
	default:
		return "unknown"
	}
}

// afterReset is where a reset lands. Object and wall runs re-enter
// collection; anchor runs drop back to idle.
func (k Kind) afterReset() State {
	if k == AnchorPlacement {
		return Idle
	}
	return Collecting
}

func (k Kind) validTarget(n int) bool {
	if k == AnchorPlacement {
		return n >= 1 && n <= MaxAnchors
	}
	return n == ObjectCorners
}

// State is a placement machine state
type State int

const (
	Idle State = iota
	Collecting
	Preview
	// Finalized and Cancelled are transient: the machine passes through
	// them on its way back to Idle so observers see the outcome.
	Finalized
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Collecting:
		return "collecting"
	case Preview:
		return "preview"
	case Finalized:
		return "finalized"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Action is an input to the machine
type Action int

const (
	ActionStart Action = iota
	ActionSubmit
	ActionReset
	ActionFinalize
	ActionCancel
	ActionSetTarget
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionSubmit:
		return "submit"
	case ActionReset:
		return "reset"
	case ActionFinalize:
		return "finalize"
	case ActionCancel:
		return "cancel"
	case ActionSetTarget:
		return "set-target"
	default:
		return "unknown"
	}
}

// Transition is reported to the observer after every state change
type Transition struct {
	Kind   Kind
	Action Action
	From   State
	To     State
	Count  int
	Target int
}

// Status is a read-only view of a machine
type Status struct {
	Kind   Kind
	State  State
	Count  int
	Target int
}

func (s Status) String() string {
	if s.State == Collecting {
		return fmt.Sprintf("%s: collecting (%d of %d)", s.Kind, s.Count, s.Target)
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.State)
}
