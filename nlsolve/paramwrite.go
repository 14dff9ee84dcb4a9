package nlsolve

import (
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/residual"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// applyDelta writes a solved step back onto every free camera and
// world-point component named in pm. Locked components (residual.Locked
// indices) are left untouched.
func applyDelta(s *scene.Scene, pm *paramMap, delta []float64) {
	add := func(idx int, v float64) float64 {
		if idx == residual.Locked {
			return v
		}
		return v + delta[idx]
	}

	for id, idx := range pm.cameraIdx {
		v := s.Viewpoints[id]
		if idx == lockedCamera {
			continue
		}

		v.Rotation = quat.Quat{
			W: add(idx.QW, v.Rotation.W),
			X: add(idx.QX, v.Rotation.X),
			Y: add(idx.QY, v.Rotation.Y),
			Z: add(idx.QZ, v.Rotation.Z),
		}
		v.Position.X = add(idx.PX, v.Position.X)
		v.Position.Y = add(idx.PY, v.Position.Y)
		v.Position.Z = add(idx.PZ, v.Position.Z)

		ci := v.Intrinsics()
		fx := add(idx.Fx, ci.Fx)
		fy := add(idx.Fy, ci.Fy)
		v.FocalLength = fx
		if fx != 0 {
			v.AspectRatio = fy / fx
		}
		v.PrincipalPoint.X = add(idx.Cx, v.PrincipalPoint.X)
		v.PrincipalPoint.Y = add(idx.Cy, v.PrincipalPoint.Y)
		v.K1 = add(idx.K1, v.K1)
		v.K2 = add(idx.K2, v.K2)
		v.K3 = add(idx.K3, v.K3)
		v.P1 = add(idx.P1, v.P1)
		v.P2 = add(idx.P2, v.P2)

		s.Viewpoints[id] = v
	}

	for id, axes := range pm.pointIdx {
		p := s.WorldPoints[id]
		p.OptimizedXYZ.X = add(axes[0], p.OptimizedXYZ.X)
		p.OptimizedXYZ.Y = add(axes[1], p.OptimizedXYZ.Y)
		p.OptimizedXYZ.Z = add(axes[2], p.OptimizedXYZ.Z)
		s.WorldPoints[id] = p
	}
}

// renormalizeQuaternions re-normalizes every optimized camera's orientation
// to unit length. The packed parameter vector treats the four quaternion
// components as independent free reals, so a step can leave the quaternion
// off the unit sphere. Solve calls this on every trial state right after
// applyDelta, before the trial's cost is evaluated, so an accepted step is
// always unit length; a rejected trial is discarded along with it.
func renormalizeQuaternions(s *scene.Scene, pm *paramMap) {
	for id, idx := range pm.cameraIdx {
		if idx == lockedCamera {
			continue
		}
		v := s.Viewpoints[id]
		v.Rotation = v.Rotation.Unit()
		s.Viewpoints[id] = v
	}
}
