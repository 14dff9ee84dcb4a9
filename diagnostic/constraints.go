package diagnostic

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/residual"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// ConstraintResidual reports one enabled constraint's actual post-solve
// residual: its raw value (same units residual.BuildFor produces), the
// scale it is judged relative to, and the resulting severity.
type ConstraintResidual struct {
	ID       scene.ConstraintID
	Kind     scene.ConstraintKind
	Residual float64 // L2 norm over every raw residual the constraint contributes
	Scale    float64
	Relative float64
	Severity Severity
}

// EvaluateConstraints computes a ConstraintResidual for every enabled
// constraint in s, using each point's current EffectiveXYZ (locked/inferred
// take precedence over OptimizedXYZ, matching what the solver itself reads
// mid-solve).
func EvaluateConstraints(s *scene.Scene) []ConstraintResidual {
	pointLookup := func(id scene.PointID) residual.PointParams {
		pos, _ := s.WorldPoints[id].EffectiveXYZ()
		return residual.NewPointParams(pos, residual.Locked, residual.Locked, residual.Locked)
	}
	lineLookup := func(id scene.LineID) (a, b residual.PointParams) {
		l := s.Lines[id]
		return pointLookup(l.PointA), pointLookup(l.PointB)
	}

	var out []ConstraintResidual
	for id, c := range s.Constraints {
		if !c.Enabled {
			continue
		}
		duals := residual.BuildFor(c, pointLookup, lineLookup)
		if len(duals) == 0 {
			continue
		}
		sumSquares := 0.0
		for _, d := range duals {
			sumSquares += d.Val * d.Val
		}
		r := math.Sqrt(sumSquares)
		scale := constraintScale(c)
		relative := r / scale
		out = append(out, ConstraintResidual{
			ID: id, Kind: c.Kind, Residual: r, Scale: scale, Relative: relative,
			Severity: ClassifySeverity(relative),
		})
	}
	return out
}

// constraintScale returns the reference magnitude a constraint's residual
// is judged relative to: its own target for Distance/Angle/FixedPoint
// (falling back to 1 for a zero target, since a relative comparison against
// zero is undefined), and 1 for every constraint whose residual formula is
// already dimensionless (a unit-direction dot product or a normalized
// cross/triple product).
func constraintScale(c scene.Constraint) float64 {
	switch c.Kind {
	case scene.KindDistance:
		return nonZero(c.TargetDistance)
	case scene.KindAngle:
		return nonZero(degToRad(c.TargetAngleDeg))
	case scene.KindFixedPoint:
		return nonZero(fixedPointScale(c))
	default:
		return 1
	}
}

func fixedPointScale(c scene.Constraint) float64 {
	var sumSquares float64
	for _, t := range []*float64{c.TargetX, c.TargetY, c.TargetZ} {
		if t != nil {
			sumSquares += (*t) * (*t)
		}
	}
	return math.Sqrt(sumSquares)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return math.Abs(v)
}
