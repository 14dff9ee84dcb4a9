package orchestrate

import (
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/strategy"
)

// runTier1 implements spec 4.6's Tier 1: find the first camera that can
// vp-init, then PnP every remaining camera with >= 3 constrained points.
// Returns true if Tier 1 committed a usable result (even a partial one),
// meaning the caller must not fall through to Tier 2 or Tier 3.
func runTier1(s *scene.Scene, cameras []scene.ViewpointID, diag *Diagnostics) bool {
	constrained := fullyConstrainedSet(s)

	vpCamIdx := -1
	var vpSnapshot scene.CameraState
	for i, cam := range cameras {
		res := strategy.VPInit(cam).Evaluate(s)
		if res.Success {
			vpCamIdx = i
			vpSnapshot = res.Snapshot
			diag.record(cam, "vp-init")
			break
		}
	}
	if vpCamIdx < 0 {
		return false
	}
	vpCam := cameras[vpCamIdx]

	var unresolved []scene.ViewpointID
	for i, cam := range cameras {
		if i == vpCamIdx {
			continue
		}
		v := s.Viewpoints[cam]
		if anchorCountFor(v, constrained) < 3 {
			unresolved = append(unresolved, cam)
			continue
		}
		res := strategy.PnPInit(cam).Evaluate(s)
		if res.Success && res.Reliable {
			diag.record(cam, "pnp-init")
			continue
		}
		unresolved = append(unresolved, cam)
	}

	if len(unresolved) == 0 {
		return true
	}
	if countLockedPoints(s) >= 3 {
		// Enough global anchoring that the unresolved cameras are left for a
		// later late-PnP pass once triangulation adds more constrained
		// points; Tier 1 still committed the cameras it did resolve.
		for _, cam := range unresolved {
			diag.fail(cam)
		}
		return true
	}

	return tier1Rollback(s, cameras, vpCamIdx, vpCam, vpSnapshot, unresolved, constrained, diag)
}

func countLockedPoints(s *scene.Scene) int {
	n := 0
	for _, wp := range s.WorldPoints {
		if wp.LockedX != nil || wp.LockedY != nil || wp.LockedZ != nil {
			n++
		}
	}
	return n
}

// tier1Rollback implements the "multi-camera rollback rule": when too few
// points are globally locked to trust the unresolved cameras' late-PnP
// prospects, try progressively weaker ways of still giving the world frame a
// second anchored camera before giving up and reverting the VP camera too.
func tier1Rollback(s *scene.Scene, cameras []scene.ViewpointID, vpCamIdx int, vpCam scene.ViewpointID, vpSnapshot scene.CameraState, unresolved []scene.ViewpointID, constrained map[scene.PointID]bool, diag *Diagnostics) bool {
	vpView := s.Viewpoints[vpCam]

	// (a) a second camera shares >= 1 constrained point with the VP camera
	// and can itself vp-init.
	for _, cam := range unresolved {
		v := s.Viewpoints[cam]
		if len(v.VanishingLines) == 0 {
			continue
		}
		if sharedConstrainedCount(vpView, v, constrained) < 1 {
			continue
		}
		res := strategy.VPInit(cam).Evaluate(s)
		if res.Success {
			diag.record(cam, "vp-init")
			return true
		}
	}

	// (b) the first two uninitialized cameras (by original order) share >= 7
	// points: run essential-matrix between the VP camera and that candidate,
	// composing the VP rotation onto the essential-matrix result so the
	// world frame stays VP-aligned.
	if len(cameras) >= 2 {
		first, second := cameras[0], cameras[1]
		v1, v2 := s.Viewpoints[first], s.Viewpoints[second]
		if sharedCount(visiblePoints(v1), visiblePoints(v2)) >= 7 {
			emCam := second
			if first != vpCam {
				emCam = first
			}
			if composeEssentialOntoVP(s, vpCam, emCam, diag) {
				diag.UsedEssentialMatrix = true
				return true
			}
		}
	}

	// (c) at least one camera shares >= 3 points with the VP camera: late-PnP
	// is viable after triangulation, so keep just the VP camera committed.
	for _, cam := range unresolved {
		v := s.Viewpoints[cam]
		if sharedConstrainedCount(vpView, v, constrained) >= 3 || sharedCount(visiblePoints(vpView), visiblePoints(v)) >= 3 {
			for _, u := range unresolved {
				diag.fail(u)
			}
			return true
		}
	}

	// Revert everything: undo the VP camera's init too, Tier 1 committed
	// nothing.
	vpView.Restore(vpSnapshot)
	vpView.Initialized = false
	s.Viewpoints[vpCam] = vpView
	delete(diag.StrategyPerCamera, vpCam)
	for _, cam := range cameras {
		v := s.Viewpoints[cam]
		if cam == vpCam || !v.Initialized {
			continue
		}
		v.Initialized = false
		s.Viewpoints[cam] = v
		delete(diag.StrategyPerCamera, cam)
	}
	return false
}
