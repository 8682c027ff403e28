package calibration

import (
	"fmt"

	"github.com/philipparndt/gowall/pkg/geometry"
)

// Store owns the wall calibration and every spatial object.
// Components receive a *Store handle; there is no package-level instance.
// The store is not safe for concurrent use.
type Store struct {
	wall        WallCalibration
	objects     map[string]*SpatialObject
	order       []string
	subscribers []func(Event)
}

// NewStore creates an empty, uncalibrated store
func NewStore() *Store {
	return &Store{
		wall:    WallCalibration{Visible: true},
		objects: make(map[string]*SpatialObject),
	}
}

// Subscribe registers fn for every subsequent mutation event
func (s *Store) Subscribe(fn func(Event)) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) emit(e Event) {
	for _, fn := range s.subscribers {
		fn(e)
	}
}

func (s *Store) emitWall() {
	w := s.wall
	s.emit(Event{Kind: WallChanged, Wall: &w})
}

// Wall returns the current wall calibration
func (s *Store) Wall() WallCalibration {
	return s.wall
}

// Calibrate replaces the wall calibration with a fitted plane
func (s *Store) Calibrate(plane geometry.Plane, basis geometry.Basis3, width, height float64) {
	s.wall = WallCalibration{
		Plane:        plane,
		Basis:        basis,
		Width:        width,
		Height:       height,
		IsCalibrated: true,
		Visible:      s.wall.Visible,
	}
	s.emitWall()
}

// ResetWall returns the wall to the uncalibrated state
func (s *Store) ResetWall() {
	s.wall = WallCalibration{Visible: s.wall.Visible}
	s.emitWall()
}

// NudgeWall moves the calibrated plane along its own normal without refitting
func (s *Store) NudgeWall(offset float64) error {
	if !s.wall.IsCalibrated {
		return ErrNotCalibrated
	}
	s.wall.Plane = s.wall.Plane.Translate(offset)
	s.emitWall()
	return nil
}

// SetWallVisible toggles wall display
func (s *Store) SetWallVisible(visible bool) {
	s.wall.Visible = visible
	s.emitWall()
}

// AddObject stores a new object
func (s *Store) AddObject(obj SpatialObject) error {
	if _, exists := s.objects[obj.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateObject, obj.ID)
	}
	stored := obj.clone()
	s.objects[obj.ID] = &stored
	s.order = append(s.order, obj.ID)

	out := stored.clone()
	s.emit(Event{Kind: ObjectCreated, ObjectID: obj.ID, Object: &out})
	return nil
}

// Object returns a copy of the object with the given id
func (s *Store) Object(id string) (SpatialObject, error) {
	obj, ok := s.objects[id]
	if !ok {
		return SpatialObject{}, &ObjectNotFoundError{ID: id}
	}
	return obj.clone(), nil
}

// Objects returns copies of all objects in creation order
func (s *Store) Objects() []SpatialObject {
	out := make([]SpatialObject, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.objects[id].clone())
	}
	return out
}

// Len returns the number of stored objects
func (s *Store) Len() int {
	return len(s.order)
}

// MoveObject translates an object. Dimensions and orientation are unchanged.
func (s *Store) MoveObject(id string, center geometry.Vector3, corners [4]geometry.Vector3) error {
	return s.update(id, ObjectUpdated, func(obj *SpatialObject) {
		obj.Center = center
		obj.Corners = [3]geometry.Vector3{corners[0], corners[1], corners[2]}
		obj.FourthCorner = corners[3]
	})
}

// SetAnchors replaces the anchors of an object
func (s *Store) SetAnchors(id string, anchors []Anchor) error {
	return s.update(id, AnchorsCompleted, func(obj *SpatialObject) {
		obj.Anchors = make([]Anchor, len(anchors))
		copy(obj.Anchors, anchors)
		for i := range obj.Anchors {
			obj.Anchors[i].ObjectID = id
		}
	})
}

// SetVisible toggles object display
func (s *Store) SetVisible(id string, visible bool) error {
	return s.update(id, ObjectUpdated, func(obj *SpatialObject) { obj.Visible = visible })
}

// SetLocked toggles whether the object may be dragged
func (s *Store) SetLocked(id string, locked bool) error {
	return s.update(id, ObjectUpdated, func(obj *SpatialObject) { obj.Locked = locked })
}

// DeleteObject removes an object together with its anchors
func (s *Store) DeleteObject(id string) error {
	if _, ok := s.objects[id]; !ok {
		return &ObjectNotFoundError{ID: id}
	}
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.emit(Event{Kind: ObjectDeleted, ObjectID: id})
	return nil
}

func (s *Store) update(id string, kind EventKind, mutate func(*SpatialObject)) error {
	obj, ok := s.objects[id]
	if !ok {
		return &ObjectNotFoundError{ID: id}
	}
	mutate(obj)

	out := obj.clone()
	e := Event{Kind: kind, ObjectID: id, Object: &out}
	if kind == AnchorsCompleted {
		e.Anchors = out.Anchors
	}
	s.emit(e)
	return nil
}

// Snapshot returns a deep copy of the store contents
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Wall: s.wall, Objects: s.Objects()}
}

// Restore replaces the store contents without emitting events
func (s *Store) Restore(snap Snapshot) {
	s.wall = snap.Wall
	s.objects = make(map[string]*SpatialObject, len(snap.Objects))
	s.order = s.order[:0]
	for _, obj := range snap.Objects {
		if _, dup := s.objects[obj.ID]; dup {
			continue
		}
		stored := obj.clone()
		s.objects[obj.ID] = &stored
		s.order = append(s.order, obj.ID)
	}
}
