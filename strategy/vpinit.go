package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// vpCore is the shared rotation+position solve used by the strict (vp-init)
// and relaxed (stepped-vp) strategies: recover a usable focal length,
// derive the rotation candidates from the viewpoint's vanishing points, and
// resolve the rotational ambiguity by scoring every candidate against the
// available anchors.
func vpCore(v scene.Viewpoint, vps map[scene.Axis]r2.Point, anchors []poseinit.Anchor) (poseinit.SignSearchResult, float64, error) {
	if len(vps) < 2 {
		return poseinit.SignSearchResult{}, 0, fmt.Errorf("fewer than 2 vanishing points available")
	}
	focal, err := resolveFocal(v, vps)
	if err != nil {
		return poseinit.SignSearchResult{}, 0, err
	}
	candidates, err := poseinit.RotationFromVPs(vps, focal, v.PrincipalPoint.X, v.PrincipalPoint.Y)
	if err != nil {
		return poseinit.SignSearchResult{}, 0, err
	}
	ci := intrinsicsAt(focal, v.PrincipalPoint)
	result, err := poseinit.SearchSigns(candidates, ci, anchors)
	if err != nil {
		return poseinit.SignSearchResult{}, 0, err
	}
	return result, focal, nil
}

type vpInitEvaluator struct {
	cam scene.ViewpointID
}

// VPInit returns the strict vanishing-point initialization strategy for
// camera cam: requires >= 2 fully-constrained anchors visible in the
// camera. Skips (reports Success=false, no mutation) when the camera has no
// explicit vanishing-lines, fewer than 3 world points anywhere in the scene
// are locked, and the scene has exactly one camera — in that configuration
// late-PnP after more points become constrained produces a better result.
func VPInit(cam scene.ViewpointID) Evaluator {
	return &vpInitEvaluator{cam: cam}
}

func (e *vpInitEvaluator) Name() string { return "vp-init" }

func (e *vpInitEvaluator) Evaluate(s *scene.Scene) Result {
	v, ok := s.Viewpoints[e.cam]
	if !ok {
		return Result{Reason: fmt.Sprintf("vp-init: camera %q not found", e.cam)}
	}
	snapshot := v.Snapshot()

	if len(v.VanishingLines) == 0 && countLockedPoints(s) < 3 && len(s.Viewpoints) == 1 {
		return Result{Snapshot: snapshot, Reason: "vp-init: skipped (no vanishing-lines, <3 locked points, single-camera scene defers to late-PnP)"}
	}

	anchors := anchorsForViewpoint(s, v)
	if len(anchors) < 2 {
		return Result{Snapshot: snapshot, Reason: fmt.Sprintf("vp-init: need >= 2 fully-constrained anchors, have %d", len(anchors))}
	}
	vps := vpsForViewpoint(v, s)
	sol, focal, err := vpCore(v, vps, anchors)
	if err != nil {
		return Result{Snapshot: snapshot, Reason: fmt.Sprintf("vp-init: %v", err), Err: err}
	}

	v.Rotation = sol.Rotation
	v.Position = sol.Position
	v.FocalLength = focal
	v.Initialized = true
	s.Viewpoints[e.cam] = v

	return Result{
		Success:         true,
		Reliable:        sol.InFrontCount == len(anchors) && sol.MeanReprojError <= reliableReprojPixels,
		Snapshot:        snapshot,
		MeanReprojError: sol.MeanReprojError,
		InFrontCount:    sol.InFrontCount,
	}
}
