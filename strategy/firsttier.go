package strategy

import "github.com/scottlawsonbc/reconstruct/scene"

type firstTierEvaluator struct {
	cam scene.ViewpointID
}

// FirstTier returns the composite per-camera strategy orchestrate's Tier 1
// applies to every remaining camera once the world frame has a first
// VP-initialized camera: try vp-init, and if it doesn't succeed, fall back
// to pnp-init using whatever anchors are available.
func FirstTier(cam scene.ViewpointID) Evaluator {
	return &firstTierEvaluator{cam: cam}
}

func (e *firstTierEvaluator) Name() string { return "first-tier" }

func (e *firstTierEvaluator) Evaluate(s *scene.Scene) Result {
	if res := VPInit(e.cam).Evaluate(s); res.Success {
		return res
	}
	return PnPInit(e.cam).Evaluate(s)
}
