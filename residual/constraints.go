package residual

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/scene"
)

// FixedPoint returns the residual for one locked/target axis: optimized -
// target.
func FixedPoint(p PointParams, axis scene.Axis, target float64) Dual {
	switch axis {
	case scene.AxisX:
		return p.XYZ.X.Adds(-target)
	case scene.AxisY:
		return p.XYZ.Y.Adds(-target)
	default:
		return p.XYZ.Z.Adds(-target)
	}
}

// Distance returns ‖pA - pB‖ - target.
func Distance(a, b PointParams, target float64) Dual {
	return a.XYZ.Sub(b.XYZ).Length().Adds(-target)
}

// Angle returns the angle between (a-vertex) and (c-vertex), minus
// targetRad.
func Angle(a, vertex, c PointParams, targetRad float64) Dual {
	return vectorAngle(a.XYZ.Sub(vertex.XYZ), c.XYZ.Sub(vertex.XYZ)).Adds(-targetRad)
}

func vectorAngle(v1, v2 Vec3) Dual {
	cosAngle := v1.Dot(v2).Div(v1.Length().Mul(v2.Length()))
	return cosAngle.Acos()
}

func lineDirection(a, b PointParams) Vec3 {
	return b.XYZ.Sub(a.XYZ).Unit()
}

// ParallelLines returns 1 - |dot| of the two lines' unit direction
// vectors, zero when they are parallel (or anti-parallel).
func ParallelLines(aStart, aEnd, bStart, bEnd PointParams) Dual {
	dot := lineDirection(aStart, aEnd).Dot(lineDirection(bStart, bEnd))
	return Const(1).Sub(dot.Abs())
}

// PerpendicularLines returns the dot product of the two lines' unit
// direction vectors, zero when they are perpendicular.
func PerpendicularLines(aStart, aEnd, bStart, bEnd PointParams) Dual {
	return lineDirection(aStart, aEnd).Dot(lineDirection(bStart, bEnd))
}

// CollinearPoints returns, for every point beyond the first two, the
// magnitude of the cross product of (p_i - p_0) and (p_1 - p_0) normalized
// by both vectors' lengths (i.e. sin of the angle between them, zero
// exactly when p_i lies on the line through p_0 and p_1).
func CollinearPoints(points []PointParams) []Dual {
	if len(points) < 3 {
		return nil
	}
	base := points[1].XYZ.Sub(points[0].XYZ)
	baseLen := base.Length()
	out := make([]Dual, 0, len(points)-2)
	for i := 2; i < len(points); i++ {
		vi := points[i].XYZ.Sub(points[0].XYZ)
		out = append(out, vi.Cross(base).Length().Div(baseLen.Mul(vi.Length())))
	}
	return out
}

// CoplanarPoints returns the scalar triple product (p1-p0)·((p2-p0)x(p3-p0))
// establishing the plane from the first four points, plus one additional
// residual per point beyond the fourth measured against that same basis.
func CoplanarPoints(points []PointParams) []Dual {
	if len(points) < 4 {
		return nil
	}
	p0 := points[0].XYZ
	normal := points[1].XYZ.Sub(p0).Cross(points[2].XYZ.Sub(p0))
	out := make([]Dual, 0, len(points)-3)
	for i := 3; i < len(points); i++ {
		out = append(out, points[i].XYZ.Sub(p0).Dot(normal))
	}
	return out
}

// PointPairParams is one (A, B) world-point pair, the dual-number
// counterpart to scene.PointPair.
type PointPairParams struct {
	A, B PointParams
}

// EqualDistances returns k-1 residuals (dist_i - dist_0) over k pairs.
func EqualDistances(pairs []PointPairParams) []Dual {
	if len(pairs) < 2 {
		return nil
	}
	d0 := pairs[0].A.XYZ.Sub(pairs[0].B.XYZ).Length()
	out := make([]Dual, 0, len(pairs)-1)
	for i := 1; i < len(pairs); i++ {
		di := pairs[i].A.XYZ.Sub(pairs[i].B.XYZ).Length()
		out = append(out, di.Sub(d0))
	}
	return out
}

// AngleTripletParams is one (A, Vertex, C) angle triplet, the dual-number
// counterpart to scene.AngleTriplet.
type AngleTripletParams struct {
	A, Vertex, C PointParams
}

// EqualAngles returns k-1 residuals (angle_i - angle_0) over k triplets, in
// radians.
func EqualAngles(triplets []AngleTripletParams) []Dual {
	if len(triplets) < 2 {
		return nil
	}
	angleOf := func(t AngleTripletParams) Dual {
		return vectorAngle(t.A.XYZ.Sub(t.Vertex.XYZ), t.C.XYZ.Sub(t.Vertex.XYZ))
	}
	a0 := angleOf(triplets[0])
	out := make([]Dual, 0, len(triplets)-1)
	for i := 1; i < len(triplets); i++ {
		out = append(out, angleOf(triplets[i]).Sub(a0))
	}
	return out
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
