package orchestrate

import (
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/strategy"
)

// composeEssentialOntoVP runs essential-matrix-init between vpCam and emCam,
// then re-expresses emCam's recovered pose in vpCam's already-established
// world frame instead of the identity frame essential-matrix-init assumes:
// vpCam keeps the rotation/position vp-init gave it, and emCam's pose is
// composed through it (q_total = q_vp * q_em, p_total = p_vp + R_vp * p_em).
// Essential-matrix-init's own mutation of vpCam (to identity/origin) is
// overwritten afterward, never left in place.
func composeEssentialOntoVP(s *scene.Scene, vpCam, emCam scene.ViewpointID, diag *Diagnostics) bool {
	vpRot := s.Viewpoints[vpCam].Rotation
	vpPos := s.Viewpoints[vpCam].Position

	res := strategy.EssentialMatrixInit(vpCam, emCam).Evaluate(s)
	if !res.Success {
		return false
	}

	vp := s.Viewpoints[vpCam]
	vp.Rotation = vpRot
	vp.Position = vpPos
	vp.Initialized = true
	s.Viewpoints[vpCam] = vp

	em := s.Viewpoints[emCam]
	em.Rotation = vpRot.Multiply(em.Rotation)
	em.Position = vpPos.Add(vpRot.RotateUnit(em.Position.Vec()))
	em.Initialized = true
	s.Viewpoints[emCam] = em

	diag.record(emCam, "essential-matrix-init")
	return true
}
