// Package residual implements the forward-mode autodiff graph and the
// per-constraint-kind residual builders the nonlinear solver differentiates
// against. Every quantity is either a constant or a Dual tracking the
// partial derivative of its value with respect to each global parameter
// index it depends on; arithmetic, vector, and quaternion operations
// propagate those partials forward as each residual is assembled.
package residual

import "math"

// Dual is a scalar value paired with its partial derivatives with respect
// to a subset of the solver's packed parameter vector. Partials is sparse
// (most residuals touch only a handful of the solver's total parameters)
// and keyed by the global parameter index nlsolve assigns; a nil Partials
// map means the value does not depend on any free parameter.
type Dual struct {
	Val      float64
	Partials map[int]float64
}

// Locked marks a quantity as not backed by any free solver parameter.
const Locked = -1

// Const returns a Dual with no dependency on any parameter.
func Const(v float64) Dual {
	return Dual{Val: v}
}

// Var returns a Dual representing the free parameter at global index idx,
// with current value v and partial derivative 1 with respect to itself.
func Var(v float64, idx int) Dual {
	return Dual{Val: v, Partials: map[int]float64{idx: 1}}
}

// ParamOrConst returns Const(v) if idx is Locked, else Var(v, idx). This is
// the one place a caller (nlsolve, building CameraParams/PointParams from
// its packed vector) decides whether a scalar is free or fixed for a solve.
func ParamOrConst(v float64, idx int) Dual {
	if idx == Locked {
		return Const(v)
	}
	return Var(v, idx)
}

func mergeAdd(dst map[int]float64, src map[int]float64, scale float64) map[int]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[int]float64, len(src))
	}
	for idx, p := range src {
		dst[idx] += p * scale
	}
	return dst
}

// Add returns a+b.
func (a Dual) Add(b Dual) Dual {
	out := Dual{Val: a.Val + b.Val}
	out.Partials = mergeAdd(out.Partials, a.Partials, 1)
	out.Partials = mergeAdd(out.Partials, b.Partials, 1)
	return out
}

// Sub returns a-b.
func (a Dual) Sub(b Dual) Dual {
	out := Dual{Val: a.Val - b.Val}
	out.Partials = mergeAdd(out.Partials, a.Partials, 1)
	out.Partials = mergeAdd(out.Partials, b.Partials, -1)
	return out
}

// Neg returns -a.
func (a Dual) Neg() Dual {
	out := Dual{Val: -a.Val}
	out.Partials = mergeAdd(out.Partials, a.Partials, -1)
	return out
}

// Mul returns a*b via the product rule.
func (a Dual) Mul(b Dual) Dual {
	out := Dual{Val: a.Val * b.Val}
	out.Partials = mergeAdd(out.Partials, a.Partials, b.Val)
	out.Partials = mergeAdd(out.Partials, b.Partials, a.Val)
	return out
}

// Muls returns a scaled by the constant s.
func (a Dual) Muls(s float64) Dual {
	out := Dual{Val: a.Val * s}
	out.Partials = mergeAdd(out.Partials, a.Partials, s)
	return out
}

// Adds returns a shifted by the constant s.
func (a Dual) Adds(s float64) Dual {
	out := Dual{Val: a.Val + s}
	out.Partials = mergeAdd(out.Partials, a.Partials, 1)
	return out
}

// Div returns a/b via the quotient rule.
func (a Dual) Div(b Dual) Dual {
	inv := 1 / b.Val
	out := Dual{Val: a.Val * inv}
	out.Partials = mergeAdd(out.Partials, a.Partials, inv)
	out.Partials = mergeAdd(out.Partials, b.Partials, -a.Val*inv*inv)
	return out
}

// Sqrt returns sqrt(a). The partial is left undefined (zero) at a.Val==0,
// matching the one-sided derivative's blow-up there; callers differentiating
// vector lengths never hit this in practice since lengths of interest are
// bounded away from zero by the geometry they describe.
func (a Dual) Sqrt() Dual {
	v := math.Sqrt(a.Val)
	out := Dual{Val: v}
	if v > 1e-12 {
		out.Partials = mergeAdd(out.Partials, a.Partials, 0.5/v)
	}
	return out
}

// Abs returns |a|.
func (a Dual) Abs() Dual {
	if a.Val >= 0 {
		return a
	}
	return a.Neg()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Acos returns acos(a), clamping the value into [-1, 1] before evaluating so
// that accumulated floating-point drift on an otherwise-unit cosine never
// produces a NaN.
func (a Dual) Acos() Dual {
	clamped := clamp(a.Val, -1, 1)
	v := math.Acos(clamped)
	out := Dual{Val: v}
	denom := math.Sqrt(1 - clamped*clamped)
	if denom > 1e-9 {
		out.Partials = mergeAdd(out.Partials, a.Partials, -1/denom)
	}
	return out
}
