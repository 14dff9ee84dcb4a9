package residual

import "github.com/scottlawsonbc/reconstruct/r3"

// Vec3 is a 3-vector of Duals: the autodiff-carrying counterpart to
// r3.Vec, used everywhere a world-space direction or position needs both a
// value and its partial derivatives.
type Vec3 struct {
	X, Y, Z Dual
}

// ConstVec lifts a plain r3.Vec into Vec3 with no parameter dependency.
func ConstVec(v r3.Vec) Vec3 {
	return Vec3{X: Const(v.X), Y: Const(v.Y), Z: Const(v.Z)}
}

// Value collapses back to a plain r3.Vec, discarding partials.
func (a Vec3) Value() r3.Vec {
	return r3.Vec{X: a.X.Val, Y: a.Y.Val, Z: a.Z.Val}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X.Add(b.X), a.Y.Add(b.Y), a.Z.Add(b.Z)}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X.Sub(b.X), a.Y.Sub(b.Y), a.Z.Sub(b.Z)}
}

func (a Vec3) Muls(s float64) Vec3 {
	return Vec3{a.X.Muls(s), a.Y.Muls(s), a.Z.Muls(s)}
}

func (a Vec3) Dot(b Vec3) Dual {
	return a.X.Mul(b.X).Add(a.Y.Mul(b.Y)).Add(a.Z.Mul(b.Z))
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		X: a.Y.Mul(b.Z).Sub(a.Z.Mul(b.Y)),
		Y: a.Z.Mul(b.X).Sub(a.X.Mul(b.Z)),
		Z: a.X.Mul(b.Y).Sub(a.Y.Mul(b.X)),
	}
}

func (a Vec3) Length() Dual {
	return a.Dot(a).Sqrt()
}

func (a Vec3) Unit() Vec3 {
	l := a.Length()
	return Vec3{a.X.Div(l), a.Y.Div(l), a.Z.Div(l)}
}
