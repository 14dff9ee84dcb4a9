// Package quat implements unit-quaternion algebra for representing camera
// and world-frame orientation.
//
// Every Viewpoint's orientation is stored as a unit quaternion, so
// multiply/conjugate/inverse/rotate and the matrix round-trip need to be
// correct and tested, not aspirational.
package quat

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/r3"
)

// Quat represents a quaternion with W, X, Y, Z components in the order used
// throughout this repository for serialization: (w, x, y, z).
type Quat struct {
	W float64
	X float64
	Y float64
	Z float64
}

// Identity returns the identity rotation quaternion (1, 0, 0, 0).
func Identity() Quat {
	return Quat{W: 1}
}

// New constructs a Quat from explicit components.
func New(w, x, y, z float64) Quat {
	return Quat{W: w, X: x, Y: y, Z: z}
}

// Multiply returns the Hamilton product q*q2, i.e. applying q2 then q when
// used to rotate vectors via Rotate.
func (q Quat) Multiply(q2 Quat) Quat {
	return Quat{
		W: q.W*q2.W - q.X*q2.X - q.Y*q2.Y - q.Z*q2.Z,
		X: q.W*q2.X + q.X*q2.W + q.Y*q2.Z - q.Z*q2.Y,
		Y: q.W*q2.Y - q.X*q2.Z + q.Y*q2.W + q.Z*q2.X,
		Z: q.W*q2.Z + q.X*q2.Y - q.Y*q2.X + q.Z*q2.W,
	}
}

// Conjugate returns (w, -x, -y, -z), the conjugate of q.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// NormSquared returns w²+x²+y²+z².
func (q Quat) NormSquared() float64 {
	return q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
}

// Norm returns the quaternion's Euclidean length.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.NormSquared())
}

// Inverse returns the multiplicative inverse q⁻¹ = conj(q) / |q|².
// For a unit quaternion this equals Conjugate.
func (q Quat) Inverse() (Quat, error) {
	n2 := q.NormSquared()
	if n2 < 1e-20 {
		return Quat{}, fmt.Errorf("quat: cannot invert near-zero quaternion")
	}
	c := q.Conjugate()
	return Quat{W: c.W / n2, X: c.X / n2, Y: c.Y / n2, Z: c.Z / n2}, nil
}

// Unit returns q normalized to unit length. The zero quaternion maps to
// Identity to keep callers safe from division by zero.
func (q Quat) Unit() Quat {
	n := q.Norm()
	if n < 1e-12 {
		return Identity()
	}
	return Quat{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Rotate applies q to the vector v via q∘v∘q⁻¹, treating v as a pure
// quaternion (0, v.X, v.Y, v.Z). q need not be unit length; the result is
// still the correctly scaled rotation because of the explicit inverse.
func (q Quat) Rotate(v r3.Vec) r3.Vec {
	p := Quat{W: 0, X: v.X, Y: v.Y, Z: v.Z}
	qInv, err := q.Inverse()
	if err != nil {
		// Degenerate orientation; return v unrotated rather than NaN-poison
		// the caller's downstream computation.
		return v
	}
	r := q.Multiply(p).Multiply(qInv)
	return r3.Vec{X: r.X, Y: r.Y, Z: r.Z}
}

// RotateUnit applies q (assumed unit) to v via q∘v∘q*, the cheaper form
// valid only when q.NormSquared() ≈ 1. Used on the hot path inside the
// solver where quaternions are re-normalized after every accepted step.
func (q Quat) RotateUnit(v r3.Vec) r3.Vec {
	p := Quat{W: 0, X: v.X, Y: v.Y, Z: v.Z}
	r := q.Multiply(p).Multiply(q.Conjugate())
	return r3.Vec{X: r.X, Y: r.Y, Z: r.Z}
}

// ToRotationMatrix converts a unit quaternion to its equivalent 3x3 rotation
// matrix using the standard expansion.
func (q Quat) ToRotationMatrix() r3.Mat3x3 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return r3.Mat3x3{M: [3][3]float64{
		{1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w},
		{2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w},
		{2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y},
	}}
}

// FromRotationMatrix reconstructs a unit quaternion from a (proper) rotation
// matrix using the standard trace-branch reconstruction: pick whichever of
// w,x,y,z has the largest squared magnitude to avoid dividing by a
// near-zero term.
func FromRotationMatrix(m r3.Mat3x3) Quat {
	tr := m.Trace()
	var q Quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1.0) * 2 // s = 4w
		q.W = 0.25 * s
		q.X = (m.M[2][1] - m.M[1][2]) / s
		q.Y = (m.M[0][2] - m.M[2][0]) / s
		q.Z = (m.M[1][0] - m.M[0][1]) / s
	case m.M[0][0] > m.M[1][1] && m.M[0][0] > m.M[2][2]:
		s := math.Sqrt(1.0+m.M[0][0]-m.M[1][1]-m.M[2][2]) * 2 // s = 4x
		q.W = (m.M[2][1] - m.M[1][2]) / s
		q.X = 0.25 * s
		q.Y = (m.M[0][1] + m.M[1][0]) / s
		q.Z = (m.M[0][2] + m.M[2][0]) / s
	case m.M[1][1] > m.M[2][2]:
		s := math.Sqrt(1.0+m.M[1][1]-m.M[0][0]-m.M[2][2]) * 2 // s = 4y
		q.W = (m.M[0][2] - m.M[2][0]) / s
		q.X = (m.M[0][1] + m.M[1][0]) / s
		q.Y = 0.25 * s
		q.Z = (m.M[1][2] + m.M[2][1]) / s
	default:
		s := math.Sqrt(1.0+m.M[2][2]-m.M[0][0]-m.M[1][1]) * 2 // s = 4z
		q.W = (m.M[1][0] - m.M[0][1]) / s
		q.X = (m.M[0][2] + m.M[2][0]) / s
		q.Y = (m.M[1][2] + m.M[2][1]) / s
		q.Z = 0.25 * s
	}
	return q.Unit()
}

// EulerZYX returns the (yaw, pitch, roll) Euler angles in radians
// corresponding to q, applied in Z-Y-X order, assuming q is a unit
// quaternion.
func (q Quat) EulerZYX() (yaw, pitch, roll float64) {
	w, x, y, z := q.W, q.X, q.Y, q.Z

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp)
	return yaw, pitch, roll
}

// IsNaN reports whether any component of q is NaN.
func (q Quat) IsNaN() bool {
	return math.IsNaN(q.W) || math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z)
}

func (q Quat) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", q.W, q.X, q.Y, q.Z)
}
