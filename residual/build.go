package residual

import "github.com/scottlawsonbc/reconstruct/scene"

// PointLookup resolves a PointID to its current dual-parameterized
// position, built by nlsolve from the packed vector for this iteration.
type PointLookup func(scene.PointID) PointParams

// LineLookup resolves a LineID to its two endpoints' PointParams, in
// (PointA, PointB) order.
type LineLookup func(scene.LineID) (a, b PointParams)

// BuildFor returns every residual c contributes, or nil if c is disabled.
// The caller (nlsolve) is expected to have already validated the scene, so
// a dangling id here is treated as a programmer error rather than silently
// skipped.
func BuildFor(c scene.Constraint, points PointLookup, lines LineLookup) []Dual {
	if !c.Enabled {
		return nil
	}
	switch c.Kind {
	case scene.KindFixedPoint:
		return buildFixedPoint(c, points)
	case scene.KindDistance:
		return []Dual{Distance(points(c.PointA), points(c.PointB), c.TargetDistance)}
	case scene.KindAngle:
		return []Dual{Angle(points(c.AngleA), points(c.AngleVertex), points(c.AngleC), degToRad(c.TargetAngleDeg))}
	case scene.KindParallelLines:
		aStart, aEnd := lines(c.LineA)
		bStart, bEnd := lines(c.LineB)
		return []Dual{ParallelLines(aStart, aEnd, bStart, bEnd)}
	case scene.KindPerpendicularLines:
		aStart, aEnd := lines(c.LineA)
		bStart, bEnd := lines(c.LineB)
		return []Dual{PerpendicularLines(aStart, aEnd, bStart, bEnd)}
	case scene.KindCollinearPoints:
		return CollinearPoints(resolvePoints(c.Points, points))
	case scene.KindCoplanarPoints:
		return CoplanarPoints(resolvePoints(c.Points, points))
	case scene.KindEqualDistances:
		pairs := make([]PointPairParams, len(c.DistancePairs))
		for i, pr := range c.DistancePairs {
			pairs[i] = PointPairParams{A: points(pr.A), B: points(pr.B)}
		}
		return EqualDistances(pairs)
	case scene.KindEqualAngles:
		triplets := make([]AngleTripletParams, len(c.AngleTriplets))
		for i, tr := range c.AngleTriplets {
			triplets[i] = AngleTripletParams{A: points(tr.A), Vertex: points(tr.Vertex), C: points(tr.C)}
		}
		return EqualAngles(triplets)
	default:
		return nil
	}
}

func buildFixedPoint(c scene.Constraint, points PointLookup) []Dual {
	p := points(c.Point)
	var out []Dual
	if c.TargetX != nil {
		out = append(out, FixedPoint(p, scene.AxisX, *c.TargetX))
	}
	if c.TargetY != nil {
		out = append(out, FixedPoint(p, scene.AxisY, *c.TargetY))
	}
	if c.TargetZ != nil {
		out = append(out, FixedPoint(p, scene.AxisZ, *c.TargetZ))
	}
	return out
}

func resolvePoints(ids []scene.PointID, points PointLookup) []PointParams {
	out := make([]PointParams, len(ids))
	for i, id := range ids {
		out[i] = points(id)
	}
	return out
}
