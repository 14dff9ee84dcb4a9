package align

import (
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// anchor pairs a point's current-frame position with its world target.
type anchor struct {
	current r3.Point
	target  r3.Point
}

// computeTranslation returns the translation carrying the unweighted
// centroid of every available anchor (a FixedPoint constraint's target, or a
// fully-constrained world point's locked position) to match its target
// centroid.
func computeTranslation(s *scene.Scene) (r3.Vec, bool) {
	var anchors []anchor

	for _, c := range s.Constraints {
		if !c.Enabled || c.Kind != scene.KindFixedPoint {
			continue
		}
		wp, ok := s.WorldPoints[c.Point]
		if !ok {
			continue
		}
		current, _ := wp.EffectiveXYZ()
		target := current
		if c.TargetX != nil {
			target.X = *c.TargetX
		}
		if c.TargetY != nil {
			target.Y = *c.TargetY
		}
		if c.TargetZ != nil {
			target.Z = *c.TargetZ
		}
		anchors = append(anchors, anchor{current: wp.OptimizedXYZ, target: target})
	}

	for _, wp := range s.WorldPoints {
		if !wp.FullyConstrained() {
			continue
		}
		target, _ := wp.EffectiveXYZ()
		anchors = append(anchors, anchor{current: wp.OptimizedXYZ, target: target})
	}

	if len(anchors) == 0 {
		return r3.Vec{}, false
	}

	var currentSum, targetSum r3.Vec
	for _, a := range anchors {
		currentSum = currentSum.Add(a.current.Vec())
		targetSum = targetSum.Add(a.target.Vec())
	}
	n := float64(len(anchors))
	return targetSum.Divs(n).Sub(currentSum.Divs(n)), true
}
