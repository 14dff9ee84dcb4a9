package diagnostic

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// CheiralityViolation names one observation whose world point ended up
// behind the camera that claims to observe it.
type CheiralityViolation struct {
	Viewpoint  scene.ViewpointID
	WorldPoint scene.PointID
}

// AuditCheirality checks every visible observation of every initialized
// camera and reports the ones where the observed world point lies behind
// the camera.
func AuditCheirality(s *scene.Scene) []CheiralityViolation {
	var out []CheiralityViolation
	for vid, v := range s.Viewpoints {
		if !v.Initialized {
			continue
		}
		for _, ip := range v.ImagePoints {
			if !ip.Visible {
				continue
			}
			wp, ok := s.WorldPoints[ip.WorldPoint]
			if !ok {
				continue
			}
			pos, _ := wp.EffectiveXYZ()
			if !geom.PointInFront(v.Position, v.Rotation, pos) {
				out = append(out, CheiralityViolation{Viewpoint: vid, WorldPoint: ip.WorldPoint})
			}
		}
	}
	return out
}

// UnreliableCameraThresholdPixels is the default mean-reprojection-error
// cutoff (in pixels) above which a camera is reported as unreliable.
const UnreliableCameraThresholdPixels = 5.0

// UnreliableCameras reports every initialized camera whose mean
// reprojection error across its visible observations exceeds
// thresholdPixels, or which has at least one cheirality violation.
func UnreliableCameras(s *scene.Scene, thresholdPixels float64, violations []CheiralityViolation) []scene.ViewpointID {
	violating := make(map[scene.ViewpointID]bool)
	for _, v := range violations {
		violating[v.Viewpoint] = true
	}

	var out []scene.ViewpointID
	for vid, v := range s.Viewpoints {
		if !v.Initialized {
			continue
		}
		if violating[vid] {
			out = append(out, vid)
			continue
		}
		mean, ok := meanReprojectionError(s, vid, v)
		if ok && mean > thresholdPixels {
			out = append(out, vid)
		}
	}
	return out
}

func meanReprojectionError(s *scene.Scene, vid scene.ViewpointID, v scene.Viewpoint) (float64, bool) {
	ci := v.Intrinsics()
	var sum float64
	var n int
	for _, ip := range v.ImagePoints {
		if !ip.Visible {
			continue
		}
		wp, ok := s.WorldPoints[ip.WorldPoint]
		if !ok {
			continue
		}
		pos, _ := wp.EffectiveXYZ()
		proj, err := geom.Project(v.Position, v.Rotation, pos, ci)
		if err != nil || !proj.InFront {
			continue
		}
		du, dv := proj.U-ip.U, proj.V-ip.V
		sum += math.Hypot(du, dv)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
