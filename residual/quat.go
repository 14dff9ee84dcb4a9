package residual

import "github.com/scottlawsonbc/reconstruct/quat"

// DualQuat mirrors quat.Quat with every component carrying partials: the
// solver packs a camera's orientation as 7 raw components (quaternion +
// position, spec.md's over-parameterization; the quaternion is
// re-normalized only when an LM trial step is applied), so the quaternion
// a residual sees, such as the caller's initial pose, is not guaranteed
// unit. Rotate therefore always goes through the full
// conjugate/norm-squared Inverse, exactly mirroring quat.Quat.Rotate rather
// than the cheaper RotateUnit shortcut that assumes a unit quaternion.
type DualQuat struct {
	W, X, Y, Z Dual
}

// ConstQuat lifts a plain quat.Quat into DualQuat with no parameter
// dependency.
func ConstQuat(q quat.Quat) DualQuat {
	return DualQuat{W: Const(q.W), X: Const(q.X), Y: Const(q.Y), Z: Const(q.Z)}
}

func (q DualQuat) conjugate() DualQuat {
	return DualQuat{W: q.W, X: q.X.Neg(), Y: q.Y.Neg(), Z: q.Z.Neg()}
}

func (q DualQuat) normSquared() Dual {
	return q.W.Mul(q.W).Add(q.X.Mul(q.X)).Add(q.Y.Mul(q.Y)).Add(q.Z.Mul(q.Z))
}

func (q DualQuat) inverse() DualQuat {
	n2 := q.normSquared()
	c := q.conjugate()
	return DualQuat{W: c.W.Div(n2), X: c.X.Div(n2), Y: c.Y.Div(n2), Z: c.Z.Div(n2)}
}

// hamilton returns the Hamilton product q*o, matching quat.Quat.Multiply's
// component order exactly.
func (q DualQuat) hamilton(o DualQuat) DualQuat {
	return DualQuat{
		W: q.W.Mul(o.W).Sub(q.X.Mul(o.X)).Sub(q.Y.Mul(o.Y)).Sub(q.Z.Mul(o.Z)),
		X: q.W.Mul(o.X).Add(q.X.Mul(o.W)).Add(q.Y.Mul(o.Z)).Sub(q.Z.Mul(o.Y)),
		Y: q.W.Mul(o.Y).Sub(q.X.Mul(o.Z)).Add(q.Y.Mul(o.W)).Add(q.Z.Mul(o.X)),
		Z: q.W.Mul(o.Z).Add(q.X.Mul(o.Y)).Sub(q.Y.Mul(o.X)).Add(q.Z.Mul(o.W)),
	}
}

// RotateByInverse applies q's inverse to v: qInv∘v∘qInv⁻¹, the world-to-camera
// half of reprojection (q itself is the camera's world-from-camera
// orientation, so its inverse carries a world vector into camera space).
// qInv⁻¹ equals q exactly (inverting a quaternion twice returns the
// original, independent of its norm), so the closing term is q itself,
// not qInv's conjugate — mirroring quat.Quat.Rotate's own q*p*q⁻¹ pattern
// with qInv standing in for that formula's "q".
func (q DualQuat) RotateByInverse(v Vec3) Vec3 {
	qInv := q.inverse()
	p := DualQuat{W: Const(0), X: v.X, Y: v.Y, Z: v.Z}
	r := qInv.hamilton(p).hamilton(q)
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}
