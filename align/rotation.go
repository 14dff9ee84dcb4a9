package align

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// axisUnitVectors averages the current-frame direction of every Line tagged
// with an unambiguous world-axis hint (x-aligned, vertical, z-aligned;
// DirectionHorizontal and DirectionFree carry none, matching vanish's
// treatment of the same tags), keyed by the axis each line is aligned to.
func axisUnitVectors(s *scene.Scene) map[scene.Axis]r3.Vec {
	sums := make(map[scene.Axis]r3.Vec)
	counts := make(map[scene.Axis]int)
	for _, l := range s.Lines {
		axis, ok := l.Direction.VanishingAxis()
		if !ok {
			continue
		}
		pa, okA := s.WorldPoints[l.PointA]
		pb, okB := s.WorldPoints[l.PointB]
		if !okA || !okB {
			continue
		}
		posA, _ := pa.EffectiveXYZ()
		posB, _ := pb.EffectiveXYZ()
		dir := posB.Sub(posA)
		if dir.Length() < 1e-9 {
			continue
		}
		sums[axis] = sums[axis].Add(dir.Unit())
		counts[axis]++
	}
	out := make(map[scene.Axis]r3.Vec, len(sums))
	for axis, sum := range sums {
		out[axis] = sum.Divs(float64(counts[axis])).Unit()
	}
	return out
}

var canonical = map[scene.Axis]r3.Vec{
	scene.AxisX: {X: 1, Y: 0, Z: 0},
	scene.AxisY: {X: 0, Y: 1, Z: 0},
	scene.AxisZ: {X: 0, Y: 0, Z: 1},
}

// computeRotation resolves the rotation that carries the current frame's
// axis-hint directions onto the corresponding world axes. With >= 2
// non-parallel hints the rotation is fully determined; with exactly 1, the
// shortest-arc rotation onto that axis is compared with its twin turned 180
// degrees about a perpendicular axis (which reverses the hinted axis's
// sign), and whichever gives the lower locked-point residual wins, per
// spec.md's noted Y-sign ambiguity. Rotation about the hinted axis itself is
// not searched.
func computeRotation(s *scene.Scene) (quat.Quat, bool) {
	axes := axisUnitVectors(s)
	if len(axes) == 0 {
		return quat.Quat{}, false
	}
	if len(axes) >= 2 {
		rot, ok := rotationFromTwoAxes(axes)
		if ok {
			return rot, true
		}
	}

	// Exactly one usable axis (or two that turned out to be parallel):
	// resolve the single hint and pick between the minimal-rotation
	// candidate and its 180-degree-about-a-perpendicular-axis twin.
	var axis scene.Axis
	var dir r3.Vec
	for a, d := range axes {
		axis, dir = a, d
		break
	}
	primary := minimalRotation(dir, canonical[axis])
	flipped := flipAboutPerpendicular(primary, canonical[axis])
	if residualForRotation(s, flipped) < residualForRotation(s, primary) {
		return flipped, true
	}
	return primary, true
}

// rotationFromTwoAxes builds the rotation from whichever two axes are
// present (preferring X/Y, then Y/Z, then X/Z). The second direction is
// Gram-Schmidt re-orthogonalized against the first, and the third axis is
// derived from the right-handed cross product (Y=Z×X, Z=X×Y, X=Y×Z) so the
// result is an orthonormal frame regardless of input noise. The assembled
// matrix's columns are the current-frame direction of each world axis
// (world-to-current, mirroring poseinit.RotationFromVPs' own convention);
// current-to-world is its transpose.
func rotationFromTwoAxes(axes map[scene.Axis]r3.Vec) (quat.Quat, bool) {
	if dirX, dirY, ok := axesXY(axes); ok {
		return assembleFromXY(dirX, dirY), true
	}
	if dirY, dirZ, ok := axesYZ(axes); ok {
		return assembleFromYZ(dirY, dirZ), true
	}
	if dirX, dirZ, ok := axesXZ(axes); ok {
		return assembleFromXZ(dirX, dirZ), true
	}
	return quat.Quat{}, false
}

func axesXY(axes map[scene.Axis]r3.Vec) (x, y r3.Vec, ok bool) {
	x, okX := axes[scene.AxisX]
	y, okY := axes[scene.AxisY]
	return x, y, okX && okY && orthogonalizable(x, y)
}

func axesYZ(axes map[scene.Axis]r3.Vec) (y, z r3.Vec, ok bool) {
	y, okY := axes[scene.AxisY]
	z, okZ := axes[scene.AxisZ]
	return y, z, okY && okZ && orthogonalizable(y, z)
}

func axesXZ(axes map[scene.Axis]r3.Vec) (x, z r3.Vec, ok bool) {
	x, okX := axes[scene.AxisX]
	z, okZ := axes[scene.AxisZ]
	return x, z, okX && okZ && orthogonalizable(x, z)
}

func orthogonalizable(a, b r3.Vec) bool {
	return a.Cross(b).Length() > 1e-6
}

func assembleFromXY(dirX, dirY r3.Vec) quat.Quat {
	x := dirX.Unit()
	y := dirY.Sub(x.Muls(x.Dot(dirY))).Unit()
	z := x.Cross(y).Unit()
	worldToCurrent := r3.MatFromCols(x, y, z)
	return quat.FromRotationMatrix(worldToCurrent.Transpose())
}

func assembleFromYZ(dirY, dirZ r3.Vec) quat.Quat {
	y := dirY.Unit()
	z := dirZ.Sub(y.Muls(y.Dot(dirZ))).Unit()
	x := y.Cross(z).Unit()
	worldToCurrent := r3.MatFromCols(x, y, z)
	return quat.FromRotationMatrix(worldToCurrent.Transpose())
}

func assembleFromXZ(dirX, dirZ r3.Vec) quat.Quat {
	x := dirX.Unit()
	z := dirZ.Sub(x.Muls(x.Dot(dirZ))).Unit()
	y := z.Cross(x).Unit()
	worldToCurrent := r3.MatFromCols(x, y, z)
	return quat.FromRotationMatrix(worldToCurrent.Transpose())
}

// minimalRotation returns the shortest-arc rotation taking unit vector from
// to unit vector to.
func minimalRotation(from, to r3.Vec) quat.Quat {
	from, to = from.Unit(), to.Unit()
	dot := from.Dot(to)
	if dot > 1-1e-9 {
		return quat.Identity()
	}
	if dot < -1+1e-9 {
		// 180 degrees: any perpendicular axis works.
		perp := from.Cross(r3.Vec{X: 1})
		if perp.Length() < 1e-6 {
			perp = from.Cross(r3.Vec{Y: 1})
		}
		return quat.New(0, perp.Unit().X, perp.Unit().Y, perp.Unit().Z)
	}
	axis := from.Cross(to).Unit()
	angle := math.Acos(dot)
	half := angle / 2
	s := math.Sin(half)
	return quat.New(math.Cos(half), axis.X*s, axis.Y*s, axis.Z*s)
}

// flipAboutPerpendicular rotates rot by 180 degrees about an axis
// perpendicular to fixedAxis, giving the Y-sign-ambiguity twin candidate.
func flipAboutPerpendicular(rot quat.Quat, fixedAxis r3.Vec) quat.Quat {
	perp := fixedAxis.Cross(r3.Vec{X: 1})
	if perp.Length() < 1e-6 {
		perp = fixedAxis.Cross(r3.Vec{Y: 1})
	}
	perp = perp.Unit()
	flip := quat.New(0, perp.X, perp.Y, perp.Z)
	return flip.Multiply(rot)
}

// residualForRotation sums squared distance between every fully-constrained
// point's locked position and where rot would place its current-frame
// position, as the tiebreaker spec.md calls for.
func residualForRotation(s *scene.Scene, rot quat.Quat) float64 {
	sum := 0.0
	for _, wp := range s.WorldPoints {
		if !wp.FullyConstrained() {
			continue
		}
		target, _ := wp.EffectiveXYZ()
		rotated := r3.Point{}.Add(rot.RotateUnit(wp.OptimizedXYZ.Vec()))
		d := rotated.Sub(target)
		sum += d.Dot(d)
	}
	return sum
}
