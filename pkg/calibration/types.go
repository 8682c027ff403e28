package calibration

import (
	"time"

	"github.com/philipparndt/gowall/pkg/geometry"
)

// PaletteSize is the number of distinct anchor colours
const PaletteSize = 4

// WallCalibration is the calibrated wall surface
type WallCalibration struct {
	Plane        geometry.Plane
	Basis        geometry.Basis3
	Width        float64
	Height       float64
	IsCalibrated bool
	Visible      bool
}

// Anchor is a mounting point expressed in its object's local plane coordinates
type Anchor struct {
	ID            string
	ObjectID      string
	LocalPosition geometry.Vector3
	ColorIndex    uint8
}

// SpatialObject is a rectangle defined by three sampled corners
type SpatialObject struct {
	ID           string
	Corners      [3]geometry.Vector3
	FourthCorner geometry.Vector3
	Width        float64
	Height       float64
	Center       geometry.Vector3
	Basis        geometry.Basis3
	Anchors      []Anchor
	Visible      bool
	Locked       bool
	CreatedAt    time.Time
}

// NewSpatialObject builds an object from a reconstructed rectangle
func NewSpatialObject(id string, rect geometry.Rectangle, createdAt time.Time) SpatialObject {
	return SpatialObject{
		ID:           id,
		Corners:      [3]geometry.Vector3{rect.Corners[0], rect.Corners[1], rect.Corners[2]},
		FourthCorner: rect.Corners[3],
		Width:        rect.Width,
		Height:       rect.Height,
		Center:       rect.Center,
		Basis:        rect.Basis,
		Visible:      true,
		CreatedAt:    createdAt,
	}
}

// AllCorners returns the three sampled corners followed by the derived fourth
func (o SpatialObject) AllCorners() [4]geometry.Vector3 {
	return [4]geometry.Vector3{o.Corners[0], o.Corners[1], o.Corners[2], o.FourthCorner}
}

// Plane returns the plane the object lies in
func (o SpatialObject) Plane() geometry.Plane {
	return geometry.Plane{Point: o.Center, Normal: o.Basis.Forward}
}

// AnchorWorld returns the world position of an anchor of this object
func (o SpatialObject) AnchorWorld(a Anchor) geometry.Vector3 {
	return o.Basis.ToWorld(o.Center, a.LocalPosition)
}

func (o SpatialObject) clone() SpatialObject {
	out := o
	if o.Anchors != nil {
		out.Anchors = make([]Anchor, len(o.Anchors))
		copy(out.Anchors, o.Anchors)
	}
	return out
}

// Snapshot is a deep copy of the store contents
type Snapshot struct {
	Wall    WallCalibration
	Objects []SpatialObject
}
