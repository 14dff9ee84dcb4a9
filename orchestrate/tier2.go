package orchestrate

import (
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/strategy"
)

// runTier2 implements Tier 2 (stepped VP): only reachable when Tier 1
// committed nothing. VP-inits the first camera that can use a single
// anchored point plus the scene's external scale reference, then brings in
// each remaining camera by vp-init (if it shares >= 2 constrained points
// with the first) or pnp-init (if it has >= 3 constrained points). Returns
// true if Tier 2 committed a usable (possibly partial) result.
func runTier2(s *scene.Scene, cameras []scene.ViewpointID, diag *Diagnostics) bool {
	scaleHint := externalScaleHint(s)
	if scaleHint == nil || countLockedPoints(s) < 1 {
		return false
	}
	constrained := fullyConstrainedSet(s)

	firstIdx := -1
	for i, cam := range cameras {
		v := s.Viewpoints[cam]
		if anchorCountFor(v, constrained) < 1 {
			continue
		}
		res := strategy.SteppedVP(cam, scaleHint).Evaluate(s)
		if res.Success {
			firstIdx = i
			diag.record(cam, "stepped-vp")
			break
		}
	}
	if firstIdx < 0 {
		return false
	}
	firstCam := cameras[firstIdx]
	firstView := s.Viewpoints[firstCam]

	succeededVP := 1
	allSucceeded := true
	for i, cam := range cameras {
		if i == firstIdx {
			continue
		}
		v := s.Viewpoints[cam]
		if sharedConstrainedCount(firstView, v, constrained) >= 2 {
			res := strategy.SteppedVP(cam, scaleHint).Evaluate(s)
			if res.Success {
				diag.record(cam, "stepped-vp")
				succeededVP++
				continue
			}
		}
		if anchorCountFor(v, constrained) >= 3 {
			res := strategy.PnPInit(cam).Evaluate(s)
			if res.Success {
				diag.record(cam, "pnp-init")
				continue
			}
		}
		allSucceeded = false
		diag.fail(cam)
	}

	if allSucceeded {
		return true
	}
	if succeededVP >= 2 {
		return true
	}
	if len(cameras) >= 2 {
		v1, v2 := s.Viewpoints[cameras[0]], s.Viewpoints[cameras[1]]
		if sharedCount(visiblePoints(v1), visiblePoints(v2)) >= 7 {
			revertSteppedVP(s, cameras, diag)
			diag.SteppedVPReverted = true
			return false
		}
	}
	// Accept the partial result: whatever did commit stays committed.
	return true
}

// revertSteppedVP undoes every stepped-vp commitment this tier made, via the
// per-camera recorded strategy map, restoring each such camera to
// uninitialized so Tier 3 starts clean.
func revertSteppedVP(s *scene.Scene, cameras []scene.ViewpointID, diag *Diagnostics) {
	for _, cam := range cameras {
		if diag.StrategyPerCamera[cam] != "stepped-vp" {
			continue
		}
		v := s.Viewpoints[cam]
		v.Initialized = false
		s.Viewpoints[cam] = v
		delete(diag.StrategyPerCamera, cam)
	}
	diag.CamerasFailed = nil
}

// externalScaleHint returns the scene's external scale reference, if any, for
// use by Tier 2's single-anchor stepped-vp path.
func externalScaleHint(s *scene.Scene) *float64 {
	if s.CoordinateSystem == nil {
		return nil
	}
	return s.CoordinateSystem.Scale
}
