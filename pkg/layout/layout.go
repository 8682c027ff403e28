package layout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
)

// DefaultZOffset lifts anchors slightly off the object surface so they do
// not z-fight with it when rendered. It is not a physical depth.
const DefaultZOffset = 0.002

// MaxAnchors is the largest count AutoLayout has a template for
const MaxAnchors = 4

// templates holds normalized (0..1) anchor positions per count.
// y grows along the object's up axis, so 0.75 is the upper half.
var templates = [MaxAnchors][][2]float64{
	{{0.5, 0.5}},
	{{0.5, 0.25}, {0.5, 0.75}},
	{{0.5, 0.75}, {0.25, 0.25}, {0.75, 0.25}},
	{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}},
}

// ToLocal projects a world point onto the object's plane and expresses it
// in the object's (right, up) coordinates around its center, the same
// origin SpatialObject.AnchorWorld maps back from. The result carries
// zOffset as z.
func ToLocal(world geometry.Vector3, obj calibration.SpatialObject, zOffset float64) geometry.Vector3 {
	local := obj.Basis.ToLocal(obj.Center, obj.Plane().Project(world))
	local.Z = zOffset
	return local
}

// Normalized returns the 0..1 template positions for count anchors
func Normalized(count int) ([][2]float64, error) {
	if count < 1 || count > MaxAnchors {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	out := make([][2]float64, count)
	copy(out, templates[count-1])
	return out, nil
}

// AutoLayout returns deterministic local anchor positions for count anchors
// on a width x height object. Every point lies within
// [-width/2, width/2] x [-height/2, height/2] and has z = 0.
func AutoLayout(count int, width, height float64) ([]geometry.Vector3, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidSize, width, height)
	}
	norm, err := Normalized(count)
	if err != nil {
		return nil, err
	}
	points := make([]geometry.Vector3, len(norm))
	for i, n := range norm {
		points[i] = geometry.NewVector3((n[0]-0.5)*width, (n[1]-0.5)*height, 0)
	}
	return points, nil
}

// AnchorsFromWorld converts collected world points into anchors of obj
func AnchorsFromWorld(obj calibration.SpatialObject, points []geometry.Vector3, zOffset float64) []calibration.Anchor {
	anchors := make([]calibration.Anchor, len(points))
	for i, p := range points {
		anchors[i] = newAnchor(obj.ID, i, ToLocal(p, obj, zOffset))
	}
	return anchors
}

// AutoAnchors places count anchors on obj using the auto-layout template
func AutoAnchors(obj calibration.SpatialObject, count int, zOffset float64) ([]calibration.Anchor, error) {
	points, err := AutoLayout(count, obj.Width, obj.Height)
	if err != nil {
		return nil, err
	}
	anchors := make([]calibration.Anchor, len(points))
	for i, p := range points {
		p.Z = zOffset
		anchors[i] = newAnchor(obj.ID, i, p)
	}
	return anchors, nil
}

func newAnchor(objectID string, index int, local geometry.Vector3) calibration.Anchor {
	return calibration.Anchor{
		ID:            uuid.NewString(),
		ObjectID:      objectID,
		LocalPosition: local,
		ColorIndex:    ColorIndex(index),
	}
}

// ColorIndex is the palette slot of the anchor at position index
func ColorIndex(index int) uint8 {
	return uint8(index % calibration.PaletteSize)
}
