package orchestrate

import "github.com/scottlawsonbc/reconstruct/scene"

// fullyConstrainedSet returns the set of world points whose EffectiveXYZ is
// anchored on all three axes, for cheap membership checks.
func fullyConstrainedSet(s *scene.Scene) map[scene.PointID]bool {
	set := make(map[scene.PointID]bool)
	for _, id := range s.FullyConstrainedPoints() {
		set[id] = true
	}
	return set
}

// visiblePoints returns the set of world points v observes (regardless of
// whether they are constrained).
func visiblePoints(v scene.Viewpoint) map[scene.PointID]bool {
	set := make(map[scene.PointID]bool, len(v.ImagePoints))
	for _, ip := range v.ImagePoints {
		if ip.Visible {
			set[ip.WorldPoint] = true
		}
	}
	return set
}

// sharedCount returns the number of world point ids present in both sets.
func sharedCount(a, b map[scene.PointID]bool) int {
	n := 0
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for id := range small {
		if big[id] {
			n++
		}
	}
	return n
}

// sharedConstrainedCount returns how many world points both v1 and v2 observe
// that are also in constrained.
func sharedConstrainedCount(v1, v2 scene.Viewpoint, constrained map[scene.PointID]bool) int {
	p1, p2 := visiblePoints(v1), visiblePoints(v2)
	n := 0
	for id := range p1 {
		if p2[id] && constrained[id] {
			n++
		}
	}
	return n
}

// anchorCountFor returns how many fully-constrained, visible world points v
// observes.
func anchorCountFor(v scene.Viewpoint, constrained map[scene.PointID]bool) int {
	n := 0
	for id := range visiblePoints(v) {
		if constrained[id] {
			n++
		}
	}
	return n
}
