package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/scene"
)

type pnpInitEvaluator struct {
	cam scene.ViewpointID
}

// PnPInit returns the PnP initialization strategy for camera cam: requires
// >= 3 fully-constrained anchors visible in the camera. If the camera is
// already initialized, its current rotation seeds the iterative solve
// instead of identity; an uninitialized camera always starts from identity.
func PnPInit(cam scene.ViewpointID) Evaluator {
	return &pnpInitEvaluator{cam: cam}
}

func (e *pnpInitEvaluator) Name() string { return "pnp-init" }

func (e *pnpInitEvaluator) Evaluate(s *scene.Scene) Result {
	v, ok := s.Viewpoints[e.cam]
	if !ok {
		return Result{Reason: fmt.Sprintf("pnp-init: camera %q not found", e.cam)}
	}
	snapshot := v.Snapshot()

	anchors := anchorsForViewpoint(s, v)
	if len(anchors) < 3 {
		return Result{Snapshot: snapshot, Reason: fmt.Sprintf("pnp-init: need >= 3 fully-constrained anchors, have %d", len(anchors))}
	}

	ci := v.Intrinsics()
	var seed *quat.Quat
	if v.Initialized {
		r := v.Rotation
		seed = &r
	}
	res, err := poseinit.SolvePnP(ci, anchors, seed)
	if err != nil {
		return Result{Snapshot: snapshot, Reason: fmt.Sprintf("pnp-init: %v", err), Err: err}
	}

	v.Rotation = res.Rotation
	v.Position = res.Position
	v.Initialized = true
	s.Viewpoints[e.cam] = v

	return Result{
		Success:         res.Success,
		Reliable:        res.Reliable,
		Snapshot:        snapshot,
		MeanReprojError: res.MeanReprojError,
	}
}
