package geometry

import "math"

// Rectangle is the result of completing three sampled corners.
// Corners are ordered top-left, top-right, bottom-right, bottom-left.
type Rectangle struct {
	Corners [4]Vector3
	Width   float64
	Height  float64
	Center  Vector3
	Basis   Basis3
}

// Reconstruct completes the rectangle p1 (top-left), p2 (top-right),
// p3 (bottom-right) with the parallelogram rule p4 = p1 + (p3 - p2).
// The corners are assumed to be close to a right angle at p2; no
// correction is applied, see CornerDeviation.
func Reconstruct(p1, p2, p3 Vector3) (Rectangle, error) {
	p4 := p1.Add(p3.Sub(p2))
	width := p2.Sub(p1).Length()
	height := p3.Sub(p2).Length()
	if width < DefaultEpsilon || height < DefaultEpsilon {
		return Rectangle{}, ErrDegenerateRectangle
	}

	basis, err := BuildBasis(p1, p2, p3)
	if err != nil {
		return Rectangle{}, err
	}

	return Rectangle{
		Corners: [4]Vector3{p1, p2, p3, p4},
		Width:   width,
		Height:  height,
		Center:  Mean(p1, p2, p3, p4),
		Basis:   basis,
	}, nil
}

// FourthCorner returns the derived bottom-left corner
func (r Rectangle) FourthCorner() Vector3 {
	return r.Corners[3]
}

// CornerDeviation returns how far the sampled angle at p2 is from 90 degrees
func (r Rectangle) CornerDeviation() float64 {
	a := r.Corners[0].Sub(r.Corners[1])
	b := r.Corners[2].Sub(r.Corners[1])
	return math.Abs(AngleBetween(a, b) - 90)
}

// Plane returns the plane spanned by the rectangle, oriented along its forward axis
func (r Rectangle) Plane() Plane {
	return Plane{Point: r.Center, Normal: r.Basis.Forward}
}

// CornersFromCenter lays out a width x height rectangle around center
// using basis, in the same corner order as Reconstruct.
func CornersFromCenter(center Vector3, width, height float64, basis Basis3) [4]Vector3 {
	hw := basis.Right.Mul(width / 2)
	hh := basis.Up.Mul(height / 2)
	return [4]Vector3{
		center.Sub(hw).Add(hh),
		center.Add(hw).Add(hh),
		center.Add(hw).Sub(hh),
		center.Sub(hw).Sub(hh),
	}
}
