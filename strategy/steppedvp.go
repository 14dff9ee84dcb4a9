package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/scene"
)

type steppedVPEvaluator struct {
	cam       scene.ViewpointID
	scaleHint *float64
}

// SteppedVP returns the relaxed vanishing-point strategy used once a strict
// vp-init has already established the world frame: it accepts a single
// fully-constrained anchor, provided scaleHint supplies the external scale
// reference needed to place the camera along that anchor's back-projected
// ray (a lone anchor's back-projection constrains the camera center only up
// to depth along the ray; the remaining depth degree of freedom is exactly
// what the scale reference fixes). With >= 2 anchors it behaves exactly
// like vp-init's strict solve.
func SteppedVP(cam scene.ViewpointID, scaleHint *float64) Evaluator {
	return &steppedVPEvaluator{cam: cam, scaleHint: scaleHint}
}

func (e *steppedVPEvaluator) Name() string { return "stepped-vp" }

func (e *steppedVPEvaluator) Evaluate(s *scene.Scene) Result {
	v, ok := s.Viewpoints[e.cam]
	if !ok {
		return Result{Reason: fmt.Sprintf("stepped-vp: camera %q not found", e.cam)}
	}
	snapshot := v.Snapshot()
	anchors := anchorsForViewpoint(s, v)
	vps := vpsForViewpoint(v, s)

	switch {
	case len(anchors) >= 2:
		sol, focal, err := vpCore(v, vps, anchors)
		if err != nil {
			return Result{Snapshot: snapshot, Reason: fmt.Sprintf("stepped-vp: %v", err), Err: err}
		}
		v.Rotation = sol.Rotation
		v.Position = sol.Position
		v.FocalLength = focal
		v.Initialized = true
		s.Viewpoints[e.cam] = v
		return Result{
			Success: true, Reliable: sol.InFrontCount == len(anchors) && sol.MeanReprojError <= reliableReprojPixels,
			Snapshot: snapshot, MeanReprojError: sol.MeanReprojError, InFrontCount: sol.InFrontCount,
		}
	case len(anchors) == 1 && e.scaleHint != nil:
		anchor := anchors[0]
		if len(vps) < 2 {
			return Result{Snapshot: snapshot, Reason: "stepped-vp: fewer than 2 vanishing points available for the single-anchor path"}
		}
		focal, err := resolveFocal(v, vps)
		if err != nil {
			return Result{Snapshot: snapshot, Reason: fmt.Sprintf("stepped-vp: %v", err), Err: err}
		}
		candidates, err := poseinit.RotationFromVPs(vps, focal, v.PrincipalPoint.X, v.PrincipalPoint.Y)
		if err != nil {
			return Result{Snapshot: snapshot, Reason: fmt.Sprintf("stepped-vp: %v", err), Err: err}
		}
		// A single anchor cannot disambiguate the rotational sign ambiguity
		// by reprojection (every candidate places the anchor correctly by
		// construction once position is derived from its own ray); take the
		// first candidate, matching RotationFromVPs' documented primary
		// choice (Y = Z x X).
		rot := candidates[0]
		ci := intrinsicsAt(focal, v.PrincipalPoint)
		rayWorld := rot.RotateUnit(geom.CameraRay(anchor.U, anchor.V, ci))
		position := anchor.World.Subv(rayWorld.Muls(*e.scaleHint))

		v.Rotation = rot
		v.Position = position
		v.FocalLength = focal
		v.Initialized = true
		s.Viewpoints[e.cam] = v
		return Result{Success: true, Reliable: false, Snapshot: snapshot, InFrontCount: 1}
	default:
		return Result{Snapshot: snapshot, Reason: fmt.Sprintf("stepped-vp: need >= 1 fully-constrained anchor (with a scale hint) or >= 2, have %d", len(anchors))}
	}
}
