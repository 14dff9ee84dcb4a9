package diagnostic

import "github.com/scottlawsonbc/reconstruct/scene"

// IsolatedPoints returns every world point referenced by no constraint at
// all (regardless of that constraint's enabled flag, since an isolated
// point is a structural property of the scene graph, not of which
// constraints currently happen to be switched on).
func IsolatedPoints(s *scene.Scene) []scene.PointID {
	referenced := make(map[scene.PointID]bool)
	for _, c := range s.Constraints {
		markConstraintPoints(c, referenced)
	}

	var out []scene.PointID
	for id := range s.WorldPoints {
		if !referenced[id] {
			out = append(out, id)
		}
	}
	return out
}

func markConstraintPoints(c scene.Constraint, referenced map[scene.PointID]bool) {
	switch c.Kind {
	case scene.KindFixedPoint:
		referenced[c.Point] = true
	case scene.KindDistance:
		referenced[c.PointA] = true
		referenced[c.PointB] = true
	case scene.KindAngle:
		referenced[c.AngleA] = true
		referenced[c.AngleVertex] = true
		referenced[c.AngleC] = true
	case scene.KindCollinearPoints, scene.KindCoplanarPoints:
		for _, p := range c.Points {
			referenced[p] = true
		}
	case scene.KindEqualDistances:
		for _, pr := range c.DistancePairs {
			referenced[pr.A] = true
			referenced[pr.B] = true
		}
	case scene.KindEqualAngles:
		for _, tr := range c.AngleTriplets {
			referenced[tr.A] = true
			referenced[tr.Vertex] = true
			referenced[tr.C] = true
		}
	}
	// ParallelLines/PerpendicularLines reference lines, not points directly;
	// a point reachable only through such a line is still anchored via the
	// line's own endpoints' other constraints or observations, which this
	// pass does not need to resolve transitively.
}
