package engine

import "github.com/philipparndt/gowall/pkg/geometry"

// PointEvent is a point captured by hand tracking
type PointEvent struct {
	Position    geometry.Vector3 `json:"position"`
	SourceHand  string           `json:"sourceHand,omitempty"`
	TimestampMs int64            `json:"timestampMs"`
}

// DragPhase marks where a drag event sits in a grab gesture
type DragPhase string

const (
	DragBegin DragPhase = "begin"
	DragMove  DragPhase = "move"
	DragEnd   DragPhase = "end"
)

// DragEvent is a pointer ray from grab input. ObjectID is only read on DragBegin.
type DragEvent struct {
	Phase       DragPhase        `json:"phase"`
	ObjectID    string           `json:"objectId,omitempty"`
	RayOrigin   geometry.Vector3 `json:"rayOrigin"`
	RayDir      geometry.Vector3 `json:"rayDir"`
	TimestampMs int64            `json:"timestampMs"`
}

// CommandKind names a menu command
type CommandKind string

const (
	CmdStart          CommandKind = "start"
	CmdReset          CommandKind = "reset"
	CmdCancel         CommandKind = "cancel"
	CmdFinalize       CommandKind = "finalize"
	CmdSetAnchorCount CommandKind = "set_anchor_count"
)

// ControlCommand is raised by the menu.
// Flow is "wall", "object" or "anchor"; it may be empty for commands that
// act on the running flow. ObjectID selects the object for an anchor run
// and N carries the anchor count.
type ControlCommand struct {
	Kind     CommandKind `json:"kind"`
	Flow     string      `json:"flow,omitempty"`
	ObjectID string      `json:"objectId,omitempty"`
	N        int         `json:"n,omitempty"`
}

// StatusUpdate is emitted after every transition and every rejected action
type StatusUpdate struct {
	Flow         string      `json:"flow"`
	State        string      `json:"state"`
	PointCount   int         `json:"pointCount"`
	Target       int         `json:"target"`
	Message      string      `json:"message"`
	DimensionsCm *[2]float64 `json:"dimensionsCm,omitempty"`
}
