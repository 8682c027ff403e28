package storage

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
	"github.com/philipparndt/gowall/pkg/layout"
)

// DocumentVersion is written into every saved document
const DocumentVersion = "1.0"

// RectangleType is the only object type
const RectangleType = "rectangle"

// ErrInvalidRecord is wrapped by every record that cannot be turned back into an object
var ErrInvalidRecord = errors.New("invalid record")

// recordTolerance bounds how far stored dimensions may sit from the ones
// implied by the stored points, in meters
const recordTolerance = 1e-6

// basisTolerance bounds RᵀR - I for a restored basis
const basisTolerance = 1e-9

// Document is the full persisted state
type Document struct {
	Version string      `json:"version"`
	Wall    *WallRecord `json:"wall,omitempty"`
	Objects []Record    `json:"objects"`
}

// Record is the interchange form of one spatial object
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Points    []Vector3Data  `json:"points"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Center    Vector3Data    `json:"center"`
	Rotation  Vector3Data    `json:"rotation"`
	Anchors   []AnchorRecord `json:"anchors"`
	Visible   bool           `json:"visible"`
	Locked    bool           `json:"locked"`
	CreatedAt int64          `json:"createdAt"`
}

// AnchorRecord is a saved anchor. Colours are re-derived from list order.
type AnchorRecord struct {
	ID       string      `json:"id"`
	ObjectID string      `json:"objectId"`
	Position Vector3Data `json:"position"`
}

// WallRecord is the saved wall calibration. The basis is kept as its right
// and up vectors; forward is recomputed on load and the axes must still be
// orthonormal.
type WallRecord struct {
	IsCalibrated bool        `json:"isCalibrated"`
	Visible      bool        `json:"visible"`
	Point        Vector3Data `json:"point"`
	Normal       Vector3Data `json:"normal"`
	Right        Vector3Data `json:"right"`
	Up           Vector3Data `json:"up"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
}

// Vector3Data represents a 3D vector for JSON serialization
type Vector3Data struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func vec(v geometry.Vector3) Vector3Data {
	return Vector3Data{X: v.X, Y: v.Y, Z: v.Z}
}

// Vector converts back to a geometry vector
func (v Vector3Data) Vector() geometry.Vector3 {
	return geometry.NewVector3(v.X, v.Y, v.Z)
}

// ToRecord converts an object into its interchange form. Rotation is a
// lossy Euler export of the basis of the stored points and is never read back.
func ToRecord(obj calibration.SpatialObject) Record {
	basis, err := geometry.BuildBasis(obj.Corners[0], obj.Corners[1], obj.Corners[2])
	if err != nil {
		basis = obj.Basis
	}
	r := Record{
		ID:        obj.ID,
		Type:      RectangleType,
		Points:    make([]Vector3Data, 0, len(obj.Corners)),
		Width:     obj.Width,
		Height:    obj.Height,
		Center:    vec(obj.Center),
		Rotation:  vec(basis.EulerDegrees()),
		Anchors:   make([]AnchorRecord, 0, len(obj.Anchors)),
		Visible:   obj.Visible,
		Locked:    obj.Locked,
		CreatedAt: obj.CreatedAt.UnixMilli(),
	}
	for _, p := range obj.Corners {
		r.Points = append(r.Points, vec(p))
	}
	for _, a := range obj.Anchors {
		r.Anchors = append(r.Anchors, AnchorRecord{ID: a.ID, ObjectID: obj.ID, Position: vec(a.LocalPosition)})
	}
	return r
}

// FromRecord rebuilds an object from its record. Width, height and center
// are taken as stored once they agree with the points; the fourth corner and
// basis are derived from the points and rotation is ignored.
func FromRecord(r Record) (calibration.SpatialObject, error) {
	if r.Type != RectangleType {
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s has type %q", ErrInvalidRecord, r.ID, r.Type)
	}
	if len(r.Points) != 3 {
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s has %d points", ErrInvalidRecord, r.ID, len(r.Points))
	}
	rect, err := geometry.Reconstruct(r.Points[0].Vector(), r.Points[1].Vector(), r.Points[2].Vector())
	if err != nil {
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, r.ID, err)
	}
	if !rect.Basis.IsOrthonormal(basisTolerance) {
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, r.ID, geometry.ErrNotOrthonormal)
	}
	switch {
	case math.Abs(rect.Width-r.Width) > recordTolerance:
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s width %g does not match points (%g)", ErrInvalidRecord, r.ID, r.Width, rect.Width)
	case math.Abs(rect.Height-r.Height) > recordTolerance:
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s height %g does not match points (%g)", ErrInvalidRecord, r.ID, r.Height, rect.Height)
	case rect.Center.Distance(r.Center.Vector()) > recordTolerance:
		return calibration.SpatialObject{}, fmt.Errorf("%w: %s center does not match points", ErrInvalidRecord, r.ID)
	}
	rect.Width = r.Width
	rect.Height = r.Height
	rect.Center = r.Center.Vector()

	obj := calibration.NewSpatialObject(r.ID, rect, time.UnixMilli(r.CreatedAt))
	obj.Visible = r.Visible
	obj.Locked = r.Locked
	if len(r.Anchors) > 0 {
		obj.Anchors = make([]calibration.Anchor, len(r.Anchors))
		for i, a := range r.Anchors {
			obj.Anchors[i] = calibration.Anchor{
				ID:            a.ID,
				ObjectID:      r.ID,
				LocalPosition: a.Position.Vector(),
				ColorIndex:    layout.ColorIndex(i),
			}
		}
	}
	return obj, nil
}

// ToWallRecord converts the wall calibration
func ToWallRecord(w calibration.WallCalibration) WallRecord {
	return WallRecord{
		IsCalibrated: w.IsCalibrated,
		Visible:      w.Visible,
		Point:        vec(w.Plane.Point),
		Normal:       vec(w.Plane.Normal),
		Right:        vec(w.Basis.Right),
		Up:           vec(w.Basis.Up),
		Width:        w.Width,
		Height:       w.Height,
	}
}

// FromWallRecord restores the wall calibration
func FromWallRecord(r WallRecord) (calibration.WallCalibration, error) {
	if !r.IsCalibrated {
		return calibration.WallCalibration{Visible: r.Visible}, nil
	}
	normal, err := r.Normal.Vector().NormalizeChecked(geometry.DefaultEpsilon)
	if err != nil {
		return calibration.WallCalibration{}, fmt.Errorf("%w: wall normal: %v", ErrInvalidRecord, err)
	}
	basis, err := geometry.BasisFromAxes(r.Right.Vector(), r.Up.Vector(), basisTolerance)
	if err != nil {
		return calibration.WallCalibration{}, fmt.Errorf("%w: wall basis: %w", ErrInvalidRecord, err)
	}
	return calibration.WallCalibration{
		Plane:        geometry.Plane{Point: r.Point.Vector(), Normal: normal},
		Basis:        basis,
		Width:        r.Width,
		Height:       r.Height,
		IsCalibrated: true,
		Visible:      r.Visible,
	}, nil
}

// ToDocument converts a store snapshot
func ToDocument(snap calibration.Snapshot) Document {
	wall := ToWallRecord(snap.Wall)
	doc := Document{
		Version: DocumentVersion,
		Wall:    &wall,
		Objects: make([]Record, 0, len(snap.Objects)),
	}
	for _, obj := range snap.Objects {
		doc.Objects = append(doc.Objects, ToRecord(obj))
	}
	return doc
}

// FromDocument converts a document back into a snapshot
func FromDocument(doc Document) (calibration.Snapshot, error) {
	snap := calibration.Snapshot{Wall: calibration.WallCalibration{Visible: true}}
	if doc.Wall != nil {
		wall, err := FromWallRecord(*doc.Wall)
		if err != nil {
			return calibration.Snapshot{}, err
		}
		snap.Wall = wall
	}
	for _, r := range doc.Objects {
		obj, err := FromRecord(r)
		if err != nil {
			return calibration.Snapshot{}, err
		}
		snap.Objects = append(snap.Objects, obj)
	}
	return snap, nil
}

// IsEmpty reports whether the document holds nothing worth saving
func (d Document) IsEmpty() bool {
	return len(d.Objects) == 0 && (d.Wall == nil || !d.Wall.IsCalibrated)
}
