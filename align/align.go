// Package align brings an internally-consistent but arbitrarily scaled,
// rotated, and translated reconstruction frame into the user's chosen world
// frame: scale from a known distance, rotation from axis-aligned line hints,
// translation from locked/fixed anchor points. Each stage runs only if the
// scene supplies the reference it needs; a scene with none of these simply
// keeps its working frame unchanged.
package align

import (
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// Result reports which stages actually fired and the transform each applied,
// for diagnostics.
type Result struct {
	ScaleApplied       bool
	Scale              float64
	RotationApplied    bool
	Rotation           quat.Quat
	TranslationApplied bool
	Translation        r3.Vec
}

// Align mutates every camera's pose and every world point's OptimizedXYZ in
// s to bring the current reconstruction frame into the scene's world frame,
// applying scale, then rotation, then translation, in that order. Each stage
// reads its reference data from the scene as the previous stage left it:
// rotation sees the scaled positions, and translation sees the scaled and
// rotated ones.
func Align(s *scene.Scene) Result {
	var res Result

	if scale, ok := computeScale(s); ok {
		applyScale(s, scale)
		res.ScaleApplied = true
		res.Scale = scale
	}

	if rot, ok := computeRotation(s); ok {
		applyRotation(s, rot)
		res.RotationApplied = true
		res.Rotation = rot
	}

	if t, ok := computeTranslation(s); ok {
		applyTranslation(s, t)
		res.TranslationApplied = true
		res.Translation = t
	}

	return res
}

// Every stage transforms OptimizedXYZ unconditionally, including on points
// whose axes are locked: at this stage (before the residual solve excludes
// locked axes from the free parameter vector) OptimizedXYZ still holds
// triangulation's raw estimate, and it is exactly that estimate a locked
// point's anchor role in computeTranslation needs transformed consistently
// with the rest of the scene. EffectiveXYZ never reads OptimizedXYZ for a
// locked axis, so this never perturbs anything past this package's own
// reference reads.
func applyScale(s *scene.Scene, scale float64) {
	for id, wp := range s.WorldPoints {
		wp.OptimizedXYZ = r3.Point{}.Add(wp.OptimizedXYZ.Vec().Muls(scale))
		s.WorldPoints[id] = wp
	}
	for id, v := range s.Viewpoints {
		v.Position = r3.Point{}.Add(v.Position.Vec().Muls(scale))
		s.Viewpoints[id] = v
	}
}

func applyRotation(s *scene.Scene, rot quat.Quat) {
	for id, wp := range s.WorldPoints {
		wp.OptimizedXYZ = r3.Point{}.Add(rot.RotateUnit(wp.OptimizedXYZ.Vec()))
		s.WorldPoints[id] = wp
	}
	for id, v := range s.Viewpoints {
		v.Position = r3.Point{}.Add(rot.RotateUnit(v.Position.Vec()))
		v.Rotation = rot.Multiply(v.Rotation)
		s.Viewpoints[id] = v
	}
}

func applyTranslation(s *scene.Scene, t r3.Vec) {
	for id, wp := range s.WorldPoints {
		wp.OptimizedXYZ = wp.OptimizedXYZ.Add(t)
		s.WorldPoints[id] = wp
	}
	for id, v := range s.Viewpoints {
		v.Position = v.Position.Add(t)
		s.Viewpoints[id] = v
	}
}
