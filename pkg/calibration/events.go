package calibration

// EventKind identifies a store mutation
type EventKind int

const (
	ObjectCreated EventKind = iota
	ObjectUpdated
	ObjectDeleted
	AnchorsCompleted
	WallChanged
)

func (k EventKind) String() string {
	switch k {
	case ObjectCreated:
		return "object_created"
	case ObjectUpdated:
		return "object_updated"
	case ObjectDeleted:
		return "object_deleted"
	case AnchorsCompleted:
		return "anchors_completed"
	case WallChanged:
		return "wall_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after every mutation.
// Object is set for created/updated/anchors events, Anchors for anchors
// events and Wall for wall events. Subscribers receive copies.
type Event struct {
	Kind     EventKind
	ObjectID string
	Object   *SpatialObject
	Anchors  []Anchor
	Wall     *WallCalibration
}
