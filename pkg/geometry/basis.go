package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Basis3 is an orthonormal, right-handed orientation frame.
// It is the only stored form of an orientation; Euler angles and
// quaternions are derived from it for export and never read back.
type Basis3 struct {
	Right   Vector3
	Up      Vector3
	Forward Vector3
}

// Quaternion is a display-only rotation export
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityBasis returns the world-aligned basis
func IdentityBasis() Basis3 {
	return Basis3{
		Right:   NewVector3(1, 0, 0),
		Up:      NewVector3(0, 1, 0),
		Forward: NewVector3(0, 0, 1),
	}
}

// NewBasis builds an orthonormal basis from a right direction and an
// approximate up direction. Up is re-orthogonalised against right so the
// result stays orthonormal even when the inputs are not perpendicular.
func NewBasis(right, upHint Vector3, epsilon float64) (Basis3, error) {
	r, err := right.NormalizeChecked(epsilon)
	if err != nil {
		return Basis3{}, err
	}
	u, err := upHint.NormalizeChecked(epsilon)
	if err != nil {
		return Basis3{}, err
	}
	f, err := r.Cross(u).NormalizeChecked(epsilon)
	if err != nil {
		return Basis3{}, err
	}
	return Basis3{Right: r, Up: f.Cross(r), Forward: f}, nil
}

// BuildBasis derives the orientation of the rectangle p1 (top-left),
// p2 (top-right), p3 (bottom-right): right runs p1 -> p2, up runs from the
// reconstructed fourth corner to p1, forward = right x up.
func BuildBasis(p1, p2, p3 Vector3) (Basis3, error) {
	p4 := p1.Add(p3.Sub(p2))
	return NewBasis(p2.Sub(p1), p1.Sub(p4), DefaultEpsilon)
}

// BasisFromAxes restores a saved basis from its right and up axes without
// re-orthogonalising them. Forward is right x up. Axes that are not unit
// length and perpendicular within tolerance give ErrNotOrthonormal.
func BasisFromAxes(right, up Vector3, tolerance float64) (Basis3, error) {
	b := Basis3{Right: right, Up: up, Forward: right.Cross(up)}
	if !b.IsOrthonormal(tolerance) {
		return Basis3{}, ErrNotOrthonormal
	}
	return b, nil
}

// Matrix returns the rotation matrix whose columns are right, up and forward
func (b Basis3) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		b.Right.X, b.Up.X, b.Forward.X,
		b.Right.Y, b.Up.Y, b.Forward.Y,
		b.Right.Z, b.Up.Z, b.Forward.Z,
	})
}

// IsOrthonormal reports whether RᵀR ≈ I and det(R) ≈ +1
func (b Basis3) IsOrthonormal(tolerance float64) bool {
	r := b.Matrix()
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	if !mat.EqualApprox(&rtr, identity, tolerance) {
		return false
	}
	return math.Abs(mat.Det(r)-1) <= tolerance
}

// ToWorld maps local coordinates (right, up, forward) around origin to world space
func (b Basis3) ToWorld(origin, local Vector3) Vector3 {
	return origin.
		Add(b.Right.Mul(local.X)).
		Add(b.Up.Mul(local.Y)).
		Add(b.Forward.Mul(local.Z))
}

// ToLocal expresses a world point in (right, up, forward) coordinates around origin
func (b Basis3) ToLocal(origin, world Vector3) Vector3 {
	d := world.Sub(origin)
	return NewVector3(d.Dot(b.Right), d.Dot(b.Up), d.Dot(b.Forward))
}

// EulerDegrees returns XYZ-order Euler angles in degrees.
// The conversion is lossy near gimbal lock and is meant for export only.
func (b Basis3) EulerDegrees() Vector3 {
	m := b.Matrix()
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	var x, y, z float64
	y = math.Asin(math.Max(-1, math.Min(1, m13)))
	if math.Abs(m13) < 0.9999999 {
		x = math.Atan2(-m23, m33)
		z = math.Atan2(-m12, m11)
	} else {
		x = math.Atan2(m32, m22)
		z = 0
	}
	return NewVector3(degrees(x), degrees(y), degrees(z))
}

// Quaternion returns the rotation as a unit quaternion
func (b Basis3) Quaternion() Quaternion {
	m := b.Matrix()
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m21, m22, m23 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m31, m32, m33 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return Quaternion{W: 0.25 / s, X: (m32 - m23) * s, Y: (m13 - m31) * s, Z: (m21 - m12) * s}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		return Quaternion{W: (m32 - m23) / s, X: 0.25 * s, Y: (m12 + m21) / s, Z: (m13 + m31) / s}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		return Quaternion{W: (m13 - m31) / s, X: (m12 + m21) / s, Y: 0.25 * s, Z: (m23 + m32) / s}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		return Quaternion{W: (m21 - m12) / s, X: (m13 + m31) / s, Y: (m23 + m32) / s, Z: 0.25 * s}
	}
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
