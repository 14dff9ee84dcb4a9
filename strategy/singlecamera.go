package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/scene"
)

type singleCameraEvaluator struct {
	cam scene.ViewpointID
}

// SingleCamera returns the strategy for a scene containing exactly one
// camera: when the camera has explicit vanishing-lines, try vp-init first
// (vp-init's own skip rule only triggers in the no-vanishing-lines case, so
// this is not redundant with it); otherwise, or if vp-init fails, go
// straight to pnp-init rather than waiting on a second camera that will
// never arrive.
func SingleCamera(cam scene.ViewpointID) Evaluator {
	return &singleCameraEvaluator{cam: cam}
}

func (e *singleCameraEvaluator) Name() string { return "single-camera" }

func (e *singleCameraEvaluator) Evaluate(s *scene.Scene) Result {
	v, ok := s.Viewpoints[e.cam]
	if !ok {
		return Result{Reason: fmt.Sprintf("single-camera: camera %q not found", e.cam)}
	}

	if len(v.VanishingLines) > 0 {
		if res := VPInit(e.cam).Evaluate(s); res.Success {
			return res
		}
	}
	anchors := anchorsForViewpoint(s, v)
	if len(anchors) < 3 {
		return Result{Snapshot: v.Snapshot(),
			Reason: fmt.Sprintf("single-camera: insufficient vanishing-lines and only %d anchors; defer to late-PnP once more points are constrained", len(anchors))}
	}
	return PnPInit(e.cam).Evaluate(s)
}
