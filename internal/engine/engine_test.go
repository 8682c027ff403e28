package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/philipparndt/gowall/pkg/placement"
)

type harness struct {
	engine  *Engine
	store   *calibration.Store
	updates []StatusUpdate
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: calibration.NewStore()}
	ids := 0
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	opts.Now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	opts.NewID = func() string {
		ids++
		return fmt.Sprintf("obj-%d", ids)
	}
	opts.OnStatus = func(u StatusUpdate) { h.updates = append(h.updates, u) }

	e, err := New(h.store, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.engine = e
	return h
}

func (h *harness) command(t *testing.T, cmd ControlCommand) {
	t.Helper()
	if err := h.engine.HandleCommand(cmd); err != nil {
		t.Fatalf("HandleCommand(%+v) failed: %v", cmd, err)
	}
}

// points are spaced two seconds apart, well outside the debounce window
func (h *harness) points(t *testing.T, pts ...geometry.Vector3) {
	t.Helper()
	for i, p := range pts {
		ev := PointEvent{Position: p, TimestampMs: int64(2000 * (i + 1))}
		if err := h.engine.HandlePoint(ev); err != nil {
			t.Fatalf("HandlePoint(%v) failed: %v", p, err)
		}
	}
}

var objectCorners = []geometry.Vector3{
	geometry.NewVector3(0, 1, 0),
	geometry.NewVector3(0.5, 1, 0),
	geometry.NewVector3(0.5, 0.8, 0),
}

func (h *harness) defineObject(t *testing.T) string {
	t.Helper()
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})
	h.points(t, objectCorners...)
	h.command(t, ControlCommand{Kind: CmdFinalize})
	objs := h.store.Objects()
	return objs[len(objs)-1].ID
}

func TestObjectFlow(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})
	h.points(t, objectCorners...)

	preview := h.engine.LastStatus()
	if preview.State != "preview" || preview.PointCount != 3 {
		t.Fatalf("expected preview with 3 points, got %+v", preview)
	}
	if preview.DimensionsCm == nil {
		t.Fatal("preview status should carry dimensions")
	}
	if math.Abs(preview.DimensionsCm[0]-50) > 1e-9 || math.Abs(preview.DimensionsCm[1]-20) > 1e-9 {
		t.Errorf("dimensions failed: expected 50 x 20, got %v", *preview.DimensionsCm)
	}

	h.command(t, ControlCommand{Kind: CmdFinalize})
	obj, err := h.store.Object("obj-1")
	if err != nil {
		t.Fatalf("object not stored: %v", err)
	}
	if math.Abs(obj.Width-0.5) > 1e-10 || math.Abs(obj.Height-0.2) > 1e-10 {
		t.Errorf("object size failed: expected 0.5 x 0.2, got %v x %v", obj.Width, obj.Height)
	}
	if !obj.FourthCorner.ApproxEqual(geometry.NewVector3(0, 0.8, 0), 1e-10) {
		t.Errorf("fourth corner failed: got %v", obj.FourthCorner)
	}
	if !obj.CreatedAt.Equal(time.UnixMilli(1_700_000_000_000)) {
		t.Errorf("createdAt failed: got %v", obj.CreatedAt)
	}
	if h.engine.Machine(placement.ObjectDefinition).State != placement.Idle {
		t.Error("object flow should be idle after finalize")
	}
}

func TestFinalizeIncomplete(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})
	h.points(t, objectCorners[:2]...)

	err := h.engine.HandleCommand(ControlCommand{Kind: CmdFinalize})
	var incomplete *placement.IncompleteInputError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteInputError, got %v", err)
	}
	if incomplete.Have != 2 || incomplete.Need != 3 {
		t.Errorf("expected have 2 need 3, got %+v", incomplete)
	}

	st := h.engine.Machine(placement.ObjectDefinition)
	if st.State != placement.Collecting || st.Count != 2 {
		t.Errorf("expected collecting (2 of 3), got %v", st)
	}
	if last := h.engine.LastStatus(); last.Message != err.Error() {
		t.Errorf("status should carry the error, got %q", last.Message)
	}
	if h.store.Len() != 0 {
		t.Error("incomplete finalize must not create an object")
	}
}

func TestDegenerateObjectLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})
	h.points(t,
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(2, 0, 0),
	)

	err := h.engine.HandleCommand(ControlCommand{Kind: CmdFinalize})
	if !errors.Is(err, geometry.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
	if h.store.Len() != 0 {
		t.Error("degenerate finalize must not create an object")
	}
	if st := h.engine.Machine(placement.ObjectDefinition); st.State != placement.Preview {
		t.Errorf("expected to stay in preview for a retry, got %v", st)
	}
	h.command(t, ControlCommand{Kind: CmdReset})
	if st := h.engine.Machine(placement.ObjectDefinition); st.State != placement.Collecting || st.Count != 0 {
		t.Errorf("expected collecting (0 of 3) after reset, got %v", st)
	}
}

func TestDebouncedPoint(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})

	_ = h.engine.HandlePoint(PointEvent{Position: objectCorners[0], TimestampMs: 1000})
	err := h.engine.HandlePoint(PointEvent{Position: objectCorners[0], TimestampMs: 1200})
	if !errors.Is(err, placement.ErrDebounced) {
		t.Errorf("expected ErrDebounced, got %v", err)
	}
	if st := h.engine.Machine(placement.ObjectDefinition); st.Count != 1 {
		t.Errorf("expected 1 point after duplicate, got %d", st.Count)
	}
}

func TestPointWithoutFlow(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.HandlePoint(PointEvent{TimestampMs: 1}); !errors.Is(err, ErrNoActiveFlow) {
		t.Errorf("expected ErrNoActiveFlow, got %v", err)
	}
}

func TestWallCalibration(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "wall"})
	h.points(t,
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(1, 1, 0),
	)
	h.command(t, ControlCommand{Kind: CmdFinalize})

	wall := h.store.Wall()
	if !wall.IsCalibrated {
		t.Fatal("wall should be calibrated")
	}
	if wall.Plane.Point != geometry.NewVector3(0, 0, 0) {
		t.Errorf("plane point failed: expected p1, got %v", wall.Plane.Point)
	}
	if math.Abs(math.Abs(wall.Plane.Normal.Z)-1) > 1e-10 {
		t.Errorf("plane normal failed: expected +-z, got %v", wall.Plane.Normal)
	}

	if err := h.engine.NudgeWall(0.01); err != nil {
		t.Fatalf("NudgeWall failed: %v", err)
	}
	h.engine.ResetWall()
	if h.store.Wall().IsCalibrated {
		t.Error("ResetWall failed")
	}
}

func TestWallNormalFollowsBasis(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "wall"})
	// top-left, top-right, bottom-right: the fitted winding points into -z
	h.points(t,
		geometry.NewVector3(0, 0, 0),
		geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(1, -1, 0),
	)
	h.command(t, ControlCommand{Kind: CmdFinalize})

	wall := h.store.Wall()
	expected := geometry.NewVector3(0, 0, 1)
	if !wall.Basis.Forward.ApproxEqual(expected, 1e-12) {
		t.Fatalf("basis forward failed: expected %v, got %v", expected, wall.Basis.Forward)
	}
	if !wall.Plane.Normal.ApproxEqual(wall.Basis.Forward, 1e-12) {
		t.Errorf("plane normal failed: expected %v, got %v", wall.Basis.Forward, wall.Plane.Normal)
	}

	if err := h.engine.NudgeWall(0.01); err != nil {
		t.Fatalf("NudgeWall failed: %v", err)
	}
	if p := h.store.Wall().Plane.Point; !p.ApproxEqual(geometry.NewVector3(0, 0, 0.01), 1e-12) {
		t.Errorf("NudgeWall failed: expected the wall to move along forward, got %v", p)
	}
}

func TestOnlyOneFlowAtATime(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})

	err := h.engine.HandleCommand(ControlCommand{Kind: CmdStart, Flow: "wall"})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	err = h.engine.HandleCommand(ControlCommand{Kind: CmdStart, Flow: "object"})
	if !errors.Is(err, placement.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDragAndPlacementExclusive(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	h.command(t, ControlCommand{Kind: CmdStart, Flow: "object"})
	_, err := h.engine.HandleDrag(DragEvent{
		Phase:     DragBegin,
		ObjectID:  id,
		RayOrigin: geometry.NewVector3(0.25, 0.9, 1),
		RayDir:    geometry.NewVector3(0, 0, -1),
	})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("drag during placement: expected ErrBusy, got %v", err)
	}
	h.command(t, ControlCommand{Kind: CmdCancel})

	if _, err := h.engine.HandleDrag(DragEvent{
		Phase:     DragBegin,
		ObjectID:  id,
		RayOrigin: geometry.NewVector3(0.25, 0.9, 1),
		RayDir:    geometry.NewVector3(0, 0, -1),
	}); err != nil {
		t.Fatalf("drag begin failed: %v", err)
	}
	err = h.engine.HandleCommand(ControlCommand{Kind: CmdStart, Flow: "object"})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("placement during drag: expected ErrBusy, got %v", err)
	}
	if err := h.engine.DeleteObject(id); !errors.Is(err, ErrBusy) {
		t.Errorf("delete during drag: expected ErrBusy, got %v", err)
	}
}

func TestDragOnCalibratedWall(t *testing.T) {
	h := newHarness(t)
	h.command(t, ControlCommand{Kind: CmdStart, Flow: "wall"})
	h.points(t,
		geometry.NewVector3(-1, 2, 0),
		geometry.NewVector3(2, 2, 0),
		geometry.NewVector3(2, -1, 0),
	)
	h.command(t, ControlCommand{Kind: CmdFinalize})
	id := h.defineObject(t)

	down := geometry.NewVector3(0, 0, -1)
	if _, err := h.engine.HandleDrag(DragEvent{Phase: DragBegin, ObjectID: id, RayOrigin: geometry.NewVector3(0.25, 0.9, 1), RayDir: down}); err != nil {
		t.Fatalf("drag begin failed: %v", err)
	}
	center, err := h.engine.HandleDrag(DragEvent{Phase: DragMove, RayOrigin: geometry.NewVector3(1, 1, 1), RayDir: down})
	if err != nil {
		t.Fatalf("drag move failed: %v", err)
	}
	if !center.ApproxEqual(geometry.NewVector3(1, 1, 0), 1e-9) {
		t.Errorf("drag move failed: expected (1,1,0), got %v", center)
	}

	final, err := h.engine.HandleDrag(DragEvent{Phase: DragEnd})
	if err != nil {
		t.Fatalf("drag end failed: %v", err)
	}
	if final != center {
		t.Errorf("drag end failed: expected %v, got %v", center, final)
	}
	if h.engine.Dragging() {
		t.Error("drag should be over")
	}
}

func TestLockedObjectRefusesDrag(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)
	if err := h.engine.SetObjectLocked(id, true); err != nil {
		t.Fatalf("SetObjectLocked failed: %v", err)
	}
	_, err := h.engine.HandleDrag(DragEvent{
		Phase:     DragBegin,
		ObjectID:  id,
		RayOrigin: geometry.NewVector3(0.25, 0.9, 1),
		RayDir:    geometry.NewVector3(0, 0, -1),
	})
	if err == nil || h.engine.Dragging() {
		t.Errorf("expected locked object to refuse drag, got %v", err)
	}
}

func TestAnchorPlacement(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	if err := h.engine.HandleCommand(ControlCommand{Kind: CmdStart, Flow: "anchor"}); !errors.Is(err, ErrMissingObject) {
		t.Errorf("expected ErrMissingObject, got %v", err)
	}

	h.command(t, ControlCommand{Kind: CmdStart, Flow: "anchor", ObjectID: id, N: 2})
	h.points(t,
		geometry.NewVector3(0.25, 0.85, 0.01),
		geometry.NewVector3(0.25, 0.95, 0.01),
	)
	if st := h.engine.Machine(placement.AnchorPlacement); st.State != placement.Preview {
		t.Fatalf("expected anchor preview, got %v", st)
	}
	h.command(t, ControlCommand{Kind: CmdFinalize})

	obj, _ := h.store.Object(id)
	if len(obj.Anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(obj.Anchors))
	}
	expected := []geometry.Vector3{
		geometry.NewVector3(0, -0.05, 0.002),
		geometry.NewVector3(0, 0.05, 0.002),
	}
	for i, a := range obj.Anchors {
		if !a.LocalPosition.ApproxEqual(expected[i], 1e-10) {
			t.Errorf("anchor %d failed: expected %v, got %v", i, expected[i], a.LocalPosition)
		}
		if a.ObjectID != id || int(a.ColorIndex) != i {
			t.Errorf("anchor %d has wrong owner or colour: %+v", i, a)
		}
	}
}

func TestAnchorResetReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	h.command(t, ControlCommand{Kind: CmdStart, Flow: "anchor", ObjectID: id, N: 1})
	h.command(t, ControlCommand{Kind: CmdReset})
	if st := h.engine.Machine(placement.AnchorPlacement); st.State != placement.Idle {
		t.Errorf("anchor reset should return to idle, got %v", st)
	}
}

func TestSetAnchorCountBounds(t *testing.T) {
	h := newHarness(t)
	err := h.engine.HandleCommand(ControlCommand{Kind: CmdSetAnchorCount, N: 5})
	if !errors.Is(err, placement.ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
	h.command(t, ControlCommand{Kind: CmdSetAnchorCount, N: 3})
	if st := h.engine.Machine(placement.AnchorPlacement); st.Target != 3 {
		t.Errorf("expected target 3, got %d", st.Target)
	}
}

func TestAutoLayoutAndDelete(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	anchors, err := h.engine.AutoLayout(id, 2)
	if err != nil {
		t.Fatalf("AutoLayout failed: %v", err)
	}
	if len(anchors) != 2 || !anchors[0].LocalPosition.ApproxEqual(geometry.NewVector3(0, -0.05, 0.002), 1e-10) {
		t.Errorf("AutoLayout failed: got %+v", anchors)
	}

	if err := h.engine.DeleteObject(id); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}
	if _, err := h.engine.AutoLayout(id, 2); !errors.Is(err, calibration.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.HandleCommand(ControlCommand{Kind: "explode"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	if err := h.engine.HandleCommand(ControlCommand{Kind: CmdStart, Flow: "door"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestAnchorFinalizeCountMismatch(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	h.command(t, ControlCommand{Kind: CmdStart, Flow: "anchor", ObjectID: id, N: 3})
	h.points(t, geometry.NewVector3(0.25, 0.9, 0))

	err := h.engine.HandleCommand(ControlCommand{Kind: CmdFinalize})
	var mismatch *AnchorCountMismatchError
	if !errors.As(err, &mismatch) || !errors.Is(err, ErrAnchorCountMismatch) {
		t.Fatalf("expected AnchorCountMismatchError, got %v", err)
	}
	if mismatch.Have != 1 || mismatch.Want != 3 {
		t.Errorf("Finalize failed: expected 1 of 3, got %d of %d", mismatch.Have, mismatch.Want)
	}
	if last := h.engine.LastStatus(); last.Message != err.Error() {
		t.Errorf("status should carry the error, got %q", last.Message)
	}
	if obj, _ := h.store.Object(id); len(obj.Anchors) != 0 {
		t.Errorf("mismatch should not touch the store, got %d anchors", len(obj.Anchors))
	}

	// the run keeps its points and can still be completed
	st := h.engine.Machine(placement.AnchorPlacement)
	if st.State != placement.Collecting || st.Count != 1 {
		t.Fatalf("expected collecting (1 of 3), got %v", st)
	}
	for i, p := range []geometry.Vector3{geometry.NewVector3(0.1, 0.85, 0), geometry.NewVector3(0.4, 0.85, 0)} {
		ev := PointEvent{Position: p, TimestampMs: int64(10_000 + 2000*i)}
		if err := h.engine.HandlePoint(ev); err != nil {
			t.Fatalf("HandlePoint failed: %v", err)
		}
	}
	h.command(t, ControlCommand{Kind: CmdFinalize})
	if obj, _ := h.store.Object(id); len(obj.Anchors) != 3 {
		t.Errorf("expected 3 anchors after completing the run, got %d", len(obj.Anchors))
	}
}

func TestAnchorFinalizeWithoutPoints(t *testing.T) {
	h := newHarness(t)
	id := h.defineObject(t)

	h.command(t, ControlCommand{Kind: CmdStart, Flow: "anchor", ObjectID: id, N: 2})
	err := h.engine.HandleCommand(ControlCommand{Kind: CmdFinalize})
	if !errors.Is(err, placement.ErrIncompleteInput) {
		t.Errorf("expected ErrIncompleteInput, got %v", err)
	}
}
