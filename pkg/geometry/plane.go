package geometry

import "math"

// Plane is an infinite plane through Point with unit Normal
type Plane struct {
	Point  Vector3 `json:"point"`
	Normal Vector3 `json:"normal"`
}

// FitPlane derives the plane through three points.
// The plane point is p1 and the normal follows the winding p1 -> p2 -> p3.
func FitPlane(p1, p2, p3 Vector3) (Plane, error) {
	return FitPlaneEpsilon(p1, p2, p3, DefaultEpsilon)
}

// FitPlaneEpsilon is FitPlane with an explicit collinearity tolerance
func FitPlaneEpsilon(p1, p2, p3 Vector3, epsilon float64) (Plane, error) {
	v1 := p2.Sub(p1)
	v2 := p3.Sub(p1)
	normal, err := v1.Cross(v2).NormalizeChecked(epsilon)
	if err != nil {
		return Plane{}, err
	}
	return Plane{Point: p1, Normal: normal}, nil
}

// SignedDistance returns the distance from q to the plane, positive on the normal side
func (p Plane) SignedDistance(q Vector3) float64 {
	return q.Sub(p.Point).Dot(p.Normal)
}

// Distance returns the unsigned distance from q to the plane
func (p Plane) Distance(q Vector3) float64 {
	return math.Abs(p.SignedDistance(q))
}

// Project returns the orthogonal projection of q onto the plane
func (p Plane) Project(q Vector3) Vector3 {
	return q.Sub(p.Normal.Mul(p.SignedDistance(q)))
}

// Translate moves the plane along its own normal
func (p Plane) Translate(offset float64) Plane {
	return Plane{Point: p.Point.Add(p.Normal.Mul(offset)), Normal: p.Normal}
}

// IntersectRay returns where the ray origin + t*dir (t >= 0) meets the plane.
// Rays parallel to the plane within epsilon, or pointing away from it, do not intersect.
func (p Plane) IntersectRay(origin, dir Vector3, epsilon float64) (Vector3, error) {
	dir = dir.Normalize()
	denom := dir.Dot(p.Normal)
	if math.Abs(denom) < epsilon {
		return Vector3{}, ErrNoIntersection
	}
	t := p.Point.Sub(origin).Dot(p.Normal) / denom
	if t < 0 {
		return Vector3{}, ErrNoIntersection
	}
	return origin.Add(dir.Mul(t)), nil
}
