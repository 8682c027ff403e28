package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateInput is returned when source points are collinear or coincident.
	ErrDegenerateInput = errors.New("degenerate input: points are collinear or coincident")

	// ErrDegenerateRectangle is returned when a reconstructed rectangle has a zero-length edge.
	// It matches ErrDegenerateInput under errors.Is.
	ErrDegenerateRectangle = fmt.Errorf("%w: rectangle has a zero-length edge", ErrDegenerateInput)

	// ErrNotOrthonormal is returned when stored axes do not form an orthonormal, right-handed frame.
	ErrNotOrthonormal = errors.New("basis is not orthonormal")

	// ErrNoIntersection is returned when a ray is parallel to a plane or points away from it.
	ErrNoIntersection = errors.New("ray does not intersect plane")
)
