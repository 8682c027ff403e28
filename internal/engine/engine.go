package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/drag"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/philipparndt/gowall/pkg/layout"
	"github.com/philipparndt/gowall/pkg/placement"
)

// flows in the order busy() checks them
var flows = []placement.Kind{
	placement.WallCalibration,
	placement.ObjectDefinition,
	placement.AnchorPlacement,
}

// Options tunes an Engine. Start from DefaultOptions.
type Options struct {
	Debounce        time.Duration
	GeometryEpsilon float64
	DragEpsilon     float64
	AnchorZOffset   float64
	MaxAnchors      int

	Logger   *slog.Logger
	OnStatus func(StatusUpdate)
	Now      func() time.Time
	NewID    func() string
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		Debounce:        placement.DefaultDebounce,
		GeometryEpsilon: geometry.DefaultEpsilon,
		DragEpsilon:     drag.DefaultEpsilon,
		AnchorZOffset:   layout.DefaultZOffset,
		MaxAnchors:      layout.MaxAnchors,
	}
}

// Engine routes point, drag and menu events to the placement machines and
// the drag controller, and commits finished runs to the store.
// At most one placement run or one drag is active at any time.
// An Engine is not safe for concurrent use.
type Engine struct {
	store    *calibration.Store
	machines map[placement.Kind]*placement.Machine
	drag     *drag.Controller
	opts     Options
	log      *slog.Logger

	anchorObject string
	last         StatusUpdate
}

// New creates an engine working on store
func New(store *calibration.Store, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.GeometryEpsilon <= 0 {
		opts.GeometryEpsilon = geometry.DefaultEpsilon
	}
	if opts.MaxAnchors <= 0 || opts.MaxAnchors > layout.MaxAnchors {
		opts.MaxAnchors = layout.MaxAnchors
	}

	e := &Engine{
		store:    store,
		machines: make(map[placement.Kind]*placement.Machine, len(flows)),
		drag:     drag.NewController(store, opts.DragEpsilon),
		opts:     opts,
		log:      opts.Logger,
		last:     StatusUpdate{State: placement.Idle.String(), Message: "idle"},
	}
	for _, kind := range flows {
		target := placement.ObjectCorners
		if kind == placement.AnchorPlacement {
			target = opts.MaxAnchors
		}
		m, err := placement.New(kind, target,
			placement.WithDebounce(opts.Debounce),
			placement.WithObserver(e.onTransition),
		)
		if err != nil {
			return nil, err
		}
		e.machines[kind] = m
	}
	return e, nil
}

// Store returns the store the engine commits to
func (e *Engine) Store() *calibration.Store {
	return e.store
}

// LastStatus returns the most recent status update
func (e *Engine) LastStatus() StatusUpdate {
	return e.last
}

// Machine returns the status of one flow
func (e *Engine) Machine(kind placement.Kind) placement.Status {
	return e.machines[kind].Status()
}

// Dragging reports whether a drag is in progress
func (e *Engine) Dragging() bool {
	return e.drag.Active()
}

// HandleCommand applies a menu command
func (e *Engine) HandleCommand(cmd ControlCommand) error {
	switch cmd.Kind {
	case CmdStart:
		return e.start(cmd)

	case CmdReset, CmdCancel, CmdFinalize:
		kind, err := e.runningFlow(cmd.Flow)
		if err != nil {
			return e.failStatus(StatusUpdate{Flow: cmd.Flow, State: placement.Idle.String()}, err)
		}
		m := e.machines[kind]
		switch cmd.Kind {
		case CmdReset:
			err = m.Reset()
		case CmdCancel:
			err = m.Cancel()
		default:
			err = e.finalize(kind)
		}
		if err != nil {
			return e.fail(kind, err)
		}
		return nil

	case CmdSetAnchorCount:
		return e.setAnchorCount(cmd.N)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
}

func (e *Engine) start(cmd ControlCommand) error {
	kind, err := placement.ParseKind(cmd.Flow)
	if err != nil {
		return e.failStatus(StatusUpdate{Flow: cmd.Flow, State: placement.Idle.String()},
			fmt.Errorf("%w: %v", ErrUnknownCommand, err))
	}
	if e.drag.Active() {
		return e.fail(kind, fmt.Errorf("%w: drag of %s in progress", ErrBusy, e.drag.ObjectID()))
	}
	if running, ok := e.busy(); ok && running != kind {
		return e.fail(kind, fmt.Errorf("%w: %s placement in progress", ErrBusy, running))
	}

	if kind == placement.AnchorPlacement && e.machines[kind].State() == placement.Idle {
		if cmd.ObjectID == "" {
			return e.fail(kind, ErrMissingObject)
		}
		if _, err := e.store.Object(cmd.ObjectID); err != nil {
			return e.fail(kind, err)
		}
		if cmd.N > 0 {
			if err := e.setAnchorCount(cmd.N); err != nil {
				return err
			}
		}
	}

	if err := e.machines[kind].Start(); err != nil {
		return e.fail(kind, err)
	}
	if kind == placement.AnchorPlacement {
		e.anchorObject = cmd.ObjectID
	}
	return nil
}

func (e *Engine) setAnchorCount(n int) error {
	kind := placement.AnchorPlacement
	if n < 1 || n > e.opts.MaxAnchors {
		return e.fail(kind, fmt.Errorf("%w: %d (max %d)", placement.ErrInvalidTarget, n, e.opts.MaxAnchors))
	}
	if err := e.machines[kind].SetTarget(n); err != nil {
		return e.fail(kind, err)
	}
	return nil
}

// HandlePoint feeds a captured point to the running flow
func (e *Engine) HandlePoint(ev PointEvent) error {
	kind, ok := e.busy()
	if !ok {
		return e.failStatus(StatusUpdate{State: placement.Idle.String()}, ErrNoActiveFlow)
	}
	at := e.opts.Now()
	if ev.TimestampMs != 0 {
		at = time.UnixMilli(ev.TimestampMs)
	}
	if err := e.machines[kind].Submit(ev.Position, at); err != nil {
		return e.fail(kind, err)
	}
	return nil
}

// HandleDrag applies one phase of a grab gesture and returns the dragged
// object's center afterwards
func (e *Engine) HandleDrag(ev DragEvent) (geometry.Vector3, error) {
	if kind, ok := e.busy(); ok {
		return geometry.Vector3{}, e.failDrag(fmt.Errorf("%w: %s placement in progress", ErrBusy, kind))
	}

	switch ev.Phase {
	case DragBegin:
		plane, err := e.dragPlane(ev.ObjectID)
		if err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		if err := e.drag.BeginDrag(ev.ObjectID, ev.RayOrigin, ev.RayDir, plane); err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		obj, _ := e.store.Object(ev.ObjectID)
		e.log.Debug("drag started", "id", ev.ObjectID)
		return obj.Center, nil

	case DragMove:
		if !e.drag.Active() {
			return geometry.Vector3{}, e.failDrag(drag.ErrNotDragging)
		}
		plane, err := e.dragPlane(e.drag.ObjectID())
		if err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		center, err := e.drag.UpdateDrag(ev.RayOrigin, ev.RayDir, plane)
		if err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		return center, nil

	case DragEnd:
		id, err := e.drag.EndDrag()
		if err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		obj, err := e.store.Object(id)
		if err != nil {
			return geometry.Vector3{}, e.failDrag(err)
		}
		e.log.Info("drag finished", "id", id, "center", obj.Center)
		return obj.Center, nil
	}
	return geometry.Vector3{}, e.failDrag(fmt.Errorf("%w: drag phase %q", ErrUnknownCommand, ev.Phase))
}

// dragPlane is the calibrated wall, or the object's own plane while the
// wall is uncalibrated
func (e *Engine) dragPlane(objectID string) (geometry.Plane, error) {
	if wall := e.store.Wall(); wall.IsCalibrated {
		return wall.Plane, nil
	}
	obj, err := e.store.Object(objectID)
	if err != nil {
		return geometry.Plane{}, err
	}
	return obj.Plane(), nil
}

// AutoLayout replaces an object's anchors with the n-anchor template
func (e *Engine) AutoLayout(objectID string, n int) ([]calibration.Anchor, error) {
	if e.anchorRunOn(objectID) {
		return nil, fmt.Errorf("%w: anchor placement on %s in progress", ErrBusy, objectID)
	}
	if n > e.opts.MaxAnchors {
		return nil, fmt.Errorf("%w: got %d", layout.ErrInvalidCount, n)
	}
	obj, err := e.store.Object(objectID)
	if err != nil {
		return nil, err
	}
	anchors, err := layout.AutoAnchors(obj, n, e.opts.AnchorZOffset)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetAnchors(objectID, anchors); err != nil {
		return nil, err
	}
	e.log.Info("anchors laid out", "id", objectID, "count", n)
	return anchors, nil
}

// DeleteObject removes an object that is neither dragged nor receiving anchors
func (e *Engine) DeleteObject(id string) error {
	if e.drag.Active() && e.drag.ObjectID() == id {
		return fmt.Errorf("%w: %s is being dragged", ErrBusy, id)
	}
	if e.anchorRunOn(id) {
		return fmt.Errorf("%w: anchor placement on %s in progress", ErrBusy, id)
	}
	if err := e.store.DeleteObject(id); err != nil {
		return err
	}
	e.log.Info("object deleted", "id", id)
	return nil
}

// SetObjectVisible toggles display of an object
func (e *Engine) SetObjectVisible(id string, visible bool) error {
	return e.store.SetVisible(id, visible)
}

// SetObjectLocked toggles whether an object may be dragged
func (e *Engine) SetObjectLocked(id string, locked bool) error {
	return e.store.SetLocked(id, locked)
}

// NudgeWall moves the calibrated wall along its normal by offset meters
func (e *Engine) NudgeWall(offset float64) error {
	if err := e.store.NudgeWall(offset); err != nil {
		return err
	}
	e.log.Info("wall nudged", "offset", offset)
	return nil
}

// ResetWall drops the wall calibration
func (e *Engine) ResetWall() {
	e.store.ResetWall()
	e.log.Info("wall reset")
}

// finalize commits the run. An anchor run finalized part way through
// reports the shortfall against its configured count; with no points
// collected it is incomplete like any other run.
func (e *Engine) finalize(kind placement.Kind) error {
	m := e.machines[kind]
	if kind == placement.AnchorPlacement {
		if st := m.Status(); st.State == placement.Collecting && st.Count > 0 {
			return &AnchorCountMismatchError{Have: st.Count, Want: st.Target}
		}
	}
	return m.Finalize(e.committer(kind))
}

func (e *Engine) committer(kind placement.Kind) func([]geometry.Vector3) error {
	switch kind {
	case placement.WallCalibration:
		return e.commitWall
	case placement.AnchorPlacement:
		return e.commitAnchors
	default:
		return e.commitObject
	}
}

func (e *Engine) commitObject(p []geometry.Vector3) error {
	rect, err := geometry.Reconstruct(p[0], p[1], p[2])
	if err != nil {
		return err
	}
	obj := calibration.NewSpatialObject(e.opts.NewID(), rect, e.opts.Now())
	if err := e.store.AddObject(obj); err != nil {
		return err
	}
	e.log.Info("object created",
		"id", obj.ID,
		"width", rect.Width,
		"height", rect.Height,
		"cornerDeviation", rect.CornerDeviation())
	return nil
}

func (e *Engine) commitWall(p []geometry.Vector3) error {
	plane, err := geometry.FitPlaneEpsilon(p[0], p[1], p[2], e.opts.GeometryEpsilon)
	if err != nil {
		return err
	}
	rect, err := geometry.Reconstruct(p[0], p[1], p[2])
	if err != nil {
		return err
	}
	// the fitted normal follows the tap winding; keep it on the basis' forward side
	if plane.Normal.Dot(rect.Basis.Forward) < 0 {
		plane.Normal = plane.Normal.Neg()
	}
	e.store.Calibrate(plane, rect.Basis, rect.Width, rect.Height)
	e.log.Info("wall calibrated", "point", plane.Point, "normal", plane.Normal)
	return nil
}

func (e *Engine) commitAnchors(p []geometry.Vector3) error {
	want := e.machines[placement.AnchorPlacement].Status().Target
	if len(p) != want {
		return &AnchorCountMismatchError{Have: len(p), Want: want}
	}
	obj, err := e.store.Object(e.anchorObject)
	if err != nil {
		return err
	}
	anchors := layout.AnchorsFromWorld(obj, p, e.opts.AnchorZOffset)
	if err := e.store.SetAnchors(obj.ID, anchors); err != nil {
		return err
	}
	e.log.Info("anchors placed", "id", obj.ID, "count", len(anchors))
	return nil
}

// busy returns the flow that is not idle, if any
func (e *Engine) busy() (placement.Kind, bool) {
	for _, kind := range flows {
		if e.machines[kind].State() != placement.Idle {
			return kind, true
		}
	}
	return 0, false
}

func (e *Engine) runningFlow(name string) (placement.Kind, error) {
	if name != "" {
		return placement.ParseKind(name)
	}
	if kind, ok := e.busy(); ok {
		return kind, nil
	}
	return 0, ErrNoActiveFlow
}

func (e *Engine) anchorRunOn(id string) bool {
	return e.machines[placement.AnchorPlacement].State() != placement.Idle && e.anchorObject == id
}

func (e *Engine) onTransition(tr placement.Transition) {
	if tr.Kind == placement.AnchorPlacement && tr.To == placement.Idle {
		e.anchorObject = ""
	}

	st := placement.Status{Kind: tr.Kind, State: tr.To, Count: tr.Count, Target: tr.Target}
	u := StatusUpdate{
		Flow:       tr.Kind.String(),
		State:      tr.To.String(),
		PointCount: tr.Count,
		Target:     tr.Target,
		Message:    st.String(),
	}
	if tr.To == placement.Preview && tr.Kind != placement.AnchorPlacement {
		p := e.machines[tr.Kind].Points()
		rect, err := geometry.Reconstruct(p[0], p[1], p[2])
		if err != nil {
			u.Message = fmt.Sprintf("%s: preview, %v", tr.Kind, err)
		} else {
			dims := [2]float64{rect.Width * 100, rect.Height * 100}
			u.DimensionsCm = &dims
			u.Message = fmt.Sprintf("%s: preview %.1f x %.1f cm, corner %.1f° off square",
				tr.Kind, dims[0], dims[1], rect.CornerDeviation())
		}
	}

	e.log.Debug("transition",
		"flow", tr.Kind.String(),
		"action", tr.Action.String(),
		"from", tr.From.String(),
		"to", tr.To.String(),
		"count", tr.Count)
	e.publish(u)
}

func (e *Engine) publish(u StatusUpdate) {
	e.last = u
	if e.opts.OnStatus != nil {
		e.opts.OnStatus(u)
	}
}

func (e *Engine) fail(kind placement.Kind, err error) error {
	st := e.machines[kind].Status()
	return e.failStatus(StatusUpdate{
		Flow:       kind.String(),
		State:      st.State.String(),
		PointCount: st.Count,
		Target:     st.Target,
	}, err)
}

func (e *Engine) failDrag(err error) error {
	state := "idle"
	if e.drag.Active() {
		state = "dragging"
	}
	return e.failStatus(StatusUpdate{Flow: "drag", State: state}, err)
}

// failStatus reports err to the user and logs it at a level matching how
// expected it is
func (e *Engine) failStatus(u StatusUpdate, err error) error {
	u.Message = err.Error()
	e.publish(u)

	switch {
	case errors.Is(err, placement.ErrInvalidTransition),
		errors.Is(err, placement.ErrDebounced),
		errors.Is(err, ErrNoActiveFlow):
		e.log.Debug("ignored", "flow", u.Flow, "error", err)
	case errors.Is(err, geometry.ErrDegenerateInput),
		errors.Is(err, geometry.ErrNoIntersection),
		errors.Is(err, placement.ErrIncompleteInput),
		errors.Is(err, ErrAnchorCountMismatch),
		errors.Is(err, ErrBusy):
		e.log.Info("rejected", "flow", u.Flow, "error", err)
	default:
		e.log.Warn("failed", "flow", u.Flow, "error", err)
	}
	return err
}
