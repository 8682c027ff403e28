package placement

import (
	"fmt"
	"time"

	"github.com/philipparndt/gowall/pkg/geometry"
)

// Machine sequences the collection of a fixed number of points.
// It is not safe for concurrent use; callers dispatch events one at a time.
type Machine struct {
	kind     Kind
	target   int
	debounce time.Duration
	observer func(Transition)

	state        State
	points       []geometry.Vector3
	lastAccepted time.Time
	hasAccepted  bool
}

// Option configures a Machine
type Option func(*Machine)

// WithDebounce overrides DefaultDebounce. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(m *Machine) { m.debounce = d }
}

// WithObserver registers fn to be called after every state change
func WithObserver(fn func(Transition)) Option {
	return func(m *Machine) { m.observer = fn }
}

// New creates an idle machine collecting target points
func New(kind Kind, target int, opts ...Option) (*Machine, error) {
	if !kind.validTarget(target) {
		return nil, fmt.Errorf("%w: %d for %s placement", ErrInvalidTarget, target, kind)
	}
	m := &Machine{
		kind:     kind,
		target:   target,
		debounce: DefaultDebounce,
		state:    Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Kind returns the flow this machine sequences
func (m *Machine) Kind() Kind { return m.kind }

// State returns the current state
func (m *Machine) State() State { return m.state }

// Status returns the current state together with progress
func (m *Machine) Status() Status {
	return Status{Kind: m.kind, State: m.state, Count: len(m.points), Target: m.target}
}

// Points returns a copy of the collected points
func (m *Machine) Points() []geometry.Vector3 {
	out := make([]geometry.Vector3, len(m.points))
	copy(out, m.points)
	return out
}

// Start begins collecting. Rejected unless idle.
func (m *Machine) Start() error {
	return m.handle(input{action: ActionStart})
}

// Submit offers a point captured at the given time. Points arriving within
// the debounce window of the last accepted one are dropped with ErrDebounced.
func (m *Machine) Submit(p geometry.Vector3, at time.Time) error {
	return m.handle(input{action: ActionSubmit, point: p, at: at})
}

// Reset discards collected points. Object and wall runs continue collecting,
// anchor runs return to idle.
func (m *Machine) Reset() error {
	return m.handle(input{action: ActionReset})
}

// Finalize hands the collected points to commit and returns to idle.
// If commit fails the machine stays in preview and nothing is discarded.
func (m *Machine) Finalize(commit func(points []geometry.Vector3) error) error {
	return m.handle(input{action: ActionFinalize, commit: commit})
}

// Cancel discards the run and returns to idle
func (m *Machine) Cancel() error {
	return m.handle(input{action: ActionCancel})
}

// SetTarget changes how many points are collected. Only anchor runs accept
// a target other than three, and never below the number already collected.
func (m *Machine) SetTarget(n int) error {
	return m.handle(input{action: ActionSetTarget, target: n})
}

type input struct {
	action Action
	point  geometry.Vector3
	at     time.Time
	commit func([]geometry.Vector3) error
	target int
}

// handle is the only place the machine changes state.
func (m *Machine) handle(in input) error {
	switch in.action {
	case ActionStart:
		if m.state != Idle {
			return m.reject(in.action)
		}
		m.clear()
		m.moveTo(Collecting, in.action)

	case ActionSubmit:
		if m.state != Collecting || len(m.points) >= m.target {
			return m.reject(in.action)
		}
		if m.hasAccepted && in.at.Sub(m.lastAccepted) < m.debounce {
			return ErrDebounced
		}
		m.points = append(m.points, in.point)
		m.lastAccepted = in.at
		m.hasAccepted = true
		if len(m.points) == m.target {
			m.moveTo(Preview, in.action)
		} else {
			m.moveTo(Collecting, in.action)
		}

	case ActionReset:
		if m.state == Idle {
			return m.reject(in.action)
		}
		m.clear()
		m.moveTo(m.kind.afterReset(), in.action)

	case ActionFinalize:
		if m.state != Preview {
			return &IncompleteInputError{Have: len(m.points), Need: m.target}
		}
		if in.commit != nil {
			if err := in.commit(m.Points()); err != nil {
				return err
			}
		}
		m.moveTo(Finalized, in.action)
		m.clear()
		m.moveTo(Idle, in.action)

	case ActionCancel:
		if m.state == Idle {
			return m.reject(in.action)
		}
		m.clear()
		m.moveTo(Cancelled, in.action)
		m.moveTo(Idle, in.action)

	case ActionSetTarget:
		if !m.kind.validTarget(in.target) {
			return fmt.Errorf("%w: %d for %s placement", ErrInvalidTarget, in.target, m.kind)
		}
		switch {
		case m.state == Idle:
		case m.state == Collecting && len(m.points) < in.target:
		default:
			return m.reject(in.action)
		}
		m.target = in.target
		m.moveTo(m.state, in.action)

	default:
		return m.reject(in.action)
	}
	return nil
}

func (m *Machine) reject(a Action) error {
	return &TransitionError{State: m.state, Action: a}
}

func (m *Machine) clear() {
	m.points = m.points[:0]
	m.hasAccepted = false
	m.lastAccepted = time.Time{}
}

func (m *Machine) moveTo(to State, a Action) {
	from := m.state
	m.state = to
	if m.observer != nil {
		m.observer(Transition{
			Kind:   m.kind,
			Action: a,
			From:   from,
			To:     to,
			Count:  len(m.points),
			Target: m.target,
		})
	}
}
