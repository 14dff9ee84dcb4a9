package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

type essentialMatrixEvaluator struct {
	cam1, cam2 scene.ViewpointID
}

// EssentialMatrixInit returns the relative-pose strategy for a camera pair:
// places cam1 at the origin with identity rotation and recovers cam2's
// pose relative to it from >= 7 shared point correspondences. The recovered
// translation has unit norm; absolute scale is fixed later by frame
// alignment, not here.
func EssentialMatrixInit(cam1, cam2 scene.ViewpointID) Evaluator {
	return &essentialMatrixEvaluator{cam1: cam1, cam2: cam2}
}

func (e *essentialMatrixEvaluator) Name() string { return "essential-matrix-init" }

func (e *essentialMatrixEvaluator) Evaluate(s *scene.Scene) Result {
	v1, ok1 := s.Viewpoints[e.cam1]
	v2, ok2 := s.Viewpoints[e.cam2]
	if !ok1 || !ok2 {
		return Result{Reason: fmt.Sprintf("essential-matrix-init: camera %q or %q not found", e.cam1, e.cam2)}
	}
	snap1 := v1.Snapshot()
	snap2 := v2.Snapshot()

	corrs := sharedCorrespondences(v1, v2)
	if len(corrs) < 7 {
		return Result{Snapshot: snap1, Snapshot2: &snap2,
			Reason: fmt.Sprintf("essential-matrix-init: only %d shared correspondences, need >= 7", len(corrs))}
	}

	res, err := poseinit.EstimateEssential(corrs)
	if err != nil {
		return Result{Snapshot: snap1, Snapshot2: &snap2, Reason: fmt.Sprintf("essential-matrix-init: %v", err), Err: err}
	}

	v1.Rotation = quat.Identity()
	v1.Position = r3.Point{}
	v1.Initialized = true
	v2.Rotation = res.Rotation2
	v2.Position = res.Position2
	v2.Initialized = true
	s.Viewpoints[e.cam1] = v1
	s.Viewpoints[e.cam2] = v2

	return Result{
		Success:      true,
		Reliable:     true,
		Snapshot:     snap1,
		Snapshot2:    &snap2,
		InFrontCount: len(corrs),
	}
}

// sharedCorrespondences builds normalized-ray correspondences for every
// world point visible as an ImagePoint in both viewpoints.
func sharedCorrespondences(v1, v2 scene.Viewpoint) []poseinit.Correspondence {
	ci1, ci2 := v1.Intrinsics(), v2.Intrinsics()
	var corrs []poseinit.Correspondence
	for _, ip1 := range v1.ImagePoints {
		if !ip1.Visible {
			continue
		}
		ip2, ok := v2.ImagePointFor(ip1.WorldPoint)
		if !ok {
			continue
		}
		corrs = append(corrs, poseinit.Correspondence{
			Ray1: geom.CameraRay(ip1.U, ip1.V, ci1),
			Ray2: geom.CameraRay(ip2.U, ip2.V, ci2),
		})
	}
	return corrs
}
