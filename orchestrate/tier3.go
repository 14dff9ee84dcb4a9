package orchestrate

import (
	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/strategy"
	"github.com/scottlawsonbc/reconstruct/vanish"
)

// runTier3 implements Tier 3: only reached when nothing committed yet and
// there are >= 2 cameras. Resets the first two cameras' intrinsics to safe
// defaults, runs essential-matrix between them, and optionally applies the
// VP+EM hybrid correction.
func runTier3(s *scene.Scene, cameras []scene.ViewpointID, diag *Diagnostics) {
	cam1, cam2 := cameras[0], cameras[1]
	resetIntrinsicsToDefaults(s, cam1)
	resetIntrinsicsToDefaults(s, cam2)

	res := strategy.EssentialMatrixInit(cam1, cam2).Evaluate(s)
	if !res.Success {
		for _, cam := range cameras {
			diag.fail(cam, res.Err)
		}
		return
	}
	diag.UsedEssentialMatrix = true
	diag.record(cam1, "essential-matrix-init")
	diag.record(cam2, "essential-matrix-init")

	if !diag.SteppedVPReverted {
		applyVPEMHybrid(s, cam1, cam2, diag)
	}

	for _, cam := range cameras[2:] {
		diag.fail(cam)
	}
}

func resetIntrinsicsToDefaults(s *scene.Scene, cam scene.ViewpointID) {
	v := s.Viewpoints[cam]
	size := v.Width
	if v.Height > size {
		size = v.Height
	}
	v.FocalLength = float64(size)
	v.AspectRatio = 1
	v.PrincipalPoint.X = float64(v.Width) / 2
	v.PrincipalPoint.Y = float64(v.Height) / 2
	v.K1, v.K2, v.K3 = 0, 0, 0
	v.P1, v.P2 = 0, 0
	s.Viewpoints[cam] = v
}

// vanishingPointsFor extracts v's valid vanishing points.
func vanishingPointsFor(s *scene.Scene, v scene.Viewpoint) map[scene.Axis]r2.Point {
	extracted := vanish.Extract(v, s, vanish.Equal)
	out := make(map[scene.Axis]r2.Point, len(extracted))
	for axis, p := range extracted {
		if p.Valid {
			out[axis] = p.Pixel
		}
	}
	return out
}

// anchorsOnly collects v's visible image points whose world point is fully
// constrained, in poseinit's Anchor form.
func anchorsOnly(s *scene.Scene, v scene.Viewpoint) []poseinit.Anchor {
	var anchors []poseinit.Anchor
	for _, ip := range v.ImagePoints {
		if !ip.Visible {
			continue
		}
		wp, ok := s.WorldPoints[ip.WorldPoint]
		if !ok {
			continue
		}
		pos, anchored := wp.EffectiveXYZ()
		if !(anchored[0] && anchored[1] && anchored[2]) {
			continue
		}
		anchors = append(anchors, poseinit.Anchor{World: pos, U: ip.U, V: ip.V})
	}
	return anchors
}

// applyVPEMHybrid re-estimates focal length and rotation from vanishing
// points when either camera in the pair has >= 2 valid ones, transferring
// the focal length to a partner camera that lacks its own vanishing points,
// and rotates the whole pair's frame so it agrees with the VP-derived
// orientation: camera1's rotation becomes q_vp directly, camera2's becomes
// q_vp * q_em_2, and camera2's position is rotated (not translated) by q_vp.
func applyVPEMHybrid(s *scene.Scene, cam1, cam2 scene.ViewpointID, diag *Diagnostics) {
	v1, v2 := s.Viewpoints[cam1], s.Viewpoints[cam2]
	vps1 := vanishingPointsFor(s, v1)
	vps2 := vanishingPointsFor(s, v2)

	var source scene.Viewpoint
	var vps map[scene.Axis]r2.Point
	switch {
	case len(vps1) >= 2:
		source, vps = v1, vps1
	case len(vps2) >= 2:
		source, vps = v2, vps2
	default:
		return
	}

	x, okX := vps[scene.AxisX]
	z, okZ := vps[scene.AxisZ]
	if !okX || !okZ {
		return
	}
	focal, err := poseinit.FocalFromOrthogonalVPs(x, z, source.PrincipalPoint.X, source.PrincipalPoint.Y)
	if err != nil || !poseinit.ValidFocal(focal, source.Width) {
		return
	}
	candidates, err := poseinit.RotationFromVPs(vps, focal, source.PrincipalPoint.X, source.PrincipalPoint.Y)
	if err != nil || len(candidates) == 0 {
		return
	}
	qVP := pickHybridCandidate(s, candidates, v1)

	if source.ID == cam1 || len(vps1) < 2 {
		v1.FocalLength = focal
	}
	if source.ID == cam2 || len(vps2) < 2 {
		v2.FocalLength = focal
	}
	v1.Rotation = qVP
	v2.Rotation = qVP.Multiply(v2.Rotation)
	v2.Position = r3.Point{}.Add(qVP.RotateUnit(v2.Position.Vec()))

	s.Viewpoints[cam1] = v1
	s.Viewpoints[cam2] = v2
	diag.VPEMHybridApplied = true
}

// pickHybridCandidate picks whichever RotationFromVPs candidate leaves the
// most of v1's anchored points in front of the camera, since the
// vanishing-point rotation alone carries the usual sign ambiguity.
func pickHybridCandidate(s *scene.Scene, candidates []quat.Quat, v1 scene.Viewpoint) quat.Quat {
	anchors := anchorsOnly(s, v1)
	if len(anchors) == 0 {
		return candidates[0]
	}
	best := candidates[0]
	bestCount := -1
	for _, cand := range candidates {
		count := 0
		for _, a := range anchors {
			camSpace := cand.Conjugate().RotateUnit(a.World.Sub(v1.Position))
			if camSpace.Z > 0 {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = cand
		}
	}
	return best
}

