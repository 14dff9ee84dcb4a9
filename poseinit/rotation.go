package poseinit

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// vpDirection converts a pixel-space vanishing point to the unit
// camera-space direction it represents, using the same convention as
// geom.CameraRay (right-handed camera space, +Y up, +Z forward).
func vpDirection(vp r2.Point, focal, cx, cy float64) r3.Vec {
	x := (vp.X - cx) / focal
	y := -(vp.Y - cy) / focal
	return r3.Vec{X: x, Y: y, Z: 1}.Unit()
}

// projectDirectionU maps a camera-space direction (not necessarily unit)
// back to its pixel u-coordinate under a pinhole model, used only for
// comparing where an axis direction would land in the image (roll search,
// orthogonality diagnostics). It ignores distortion.
func projectDirectionU(d r3.Vec, focal, cx float64) float64 {
	return cx + focal*d.X/d.Z
}

// RotationFromVPs derives one or two candidate world-from-camera
// rotations from two or three vanishing-point directions. vps must
// contain at least two of {AxisX, AxisY, AxisZ}.
//
// With exactly two axes present, the third is derived by a right-hand
// cross product of the other two's camera-space directions. When the
// missing axis is Y (the common X-Z pair), both cross-product orders are
// returned as separate candidates so the caller can explore both
// chiralities; the other two-axis combinations produce a single
// candidate. If all three axes are present, Y is re-derived from X and Z
// exactly as in the two-axis case (camera-space VP directions are noisy
// and rarely exactly orthogonal, so re-deriving keeps the result a clean
// orthonormal frame).
//
// The rotation returned is the camera's world-from-camera orientation:
// RotateUnit maps a camera-space vector into world space.
func RotationFromVPs(vps map[scene.Axis]r2.Point, focal, cx, cy float64) ([]quat.Quat, error) {
	if focal <= 0 {
		return nil, fmt.Errorf("poseinit: RotationFromVPs: focal length must be positive, got %g", focal)
	}
	dir := make(map[scene.Axis]r3.Vec, len(vps))
	for axis, p := range vps {
		dir[axis] = vpDirection(p, focal, cx, cy)
	}
	_, hasX := dir[scene.AxisX]
	_, hasY := dir[scene.AxisY]
	_, hasZ := dir[scene.AxisZ]

	switch {
	case hasX && hasZ:
		x, z := dir[scene.AxisX], dir[scene.AxisZ]
		y1 := z.Cross(x).Unit()
		z1 := x.Cross(y1).Unit()
		y2 := x.Cross(z).Unit()
		z2 := x.Cross(y2).Unit()

		targetU := (vps[scene.AxisX].X + vps[scene.AxisZ].X) / 2
		y1c, z1c := correctRoll(x, y1, z1, focal, cx, targetU)
		y2c, z2c := correctRoll(x, y2, z2, focal, cx, targetU)

		r1 := assembleRotation(x, y1c, z1c)
		r2q := assembleRotation(x, y2c, z2c)
		return []quat.Quat{r1, r2q}, nil
	case hasX && hasY:
		x, y := dir[scene.AxisX], dir[scene.AxisY]
		z := x.Cross(y).Unit()
		yOrtho := z.Cross(x).Unit()
		return []quat.Quat{assembleRotation(x, yOrtho, z)}, nil
	case hasY && hasZ:
		y, z := dir[scene.AxisY], dir[scene.AxisZ]
		x := y.Cross(z).Unit()
		zOrtho := x.Cross(y).Unit()
		return []quat.Quat{assembleRotation(x, y, zOrtho)}, nil
	default:
		return nil, fmt.Errorf("poseinit: RotationFromVPs: need at least two of {X,Y,Z} vanishing points, got %d", len(vps))
	}
}

// correctRoll searches roll in [-pi, pi] step 0.05 rad for the rotation
// (about the x axis, in the y-z plane) that makes y project closest to
// targetU, applying the correction only if it both improves on the
// uncorrected projection and represents a meaningful (>0.001 rad) turn.
func correctRoll(x, y, z r3.Vec, focal, cx, targetU float64) (r3.Vec, r3.Vec) {
	baseErr := math.Abs(projectDirectionU(y, focal, cx) - targetU)
	bestRoll := 0.0
	bestErr := baseErr
	for roll := -math.Pi; roll <= math.Pi; roll += 0.05 {
		c, s := math.Cos(roll), math.Sin(roll)
		yr := y.Muls(c).Add(z.Muls(s))
		u := projectDirectionU(yr, focal, cx)
		if err := math.Abs(u - targetU); err < bestErr {
			bestErr = err
			bestRoll = roll
		}
	}
	if bestErr >= baseErr || math.Abs(bestRoll) <= 0.001 {
		return y, z
	}
	c, s := math.Cos(bestRoll), math.Sin(bestRoll)
	yr := y.Muls(c).Add(z.Muls(s))
	zr := y.Muls(-s).Add(z.Muls(c))
	return yr.Unit(), zr.Unit()
}

// assembleRotation builds the world-from-camera rotation quaternion from
// three orthonormal camera-space axis directions x, y, z (each the
// camera-space direction of the corresponding world axis). These
// directions form the columns of the world-to-camera matrix; the
// camera-to-world matrix returned by ToRotationMatrix/FromRotationMatrix
// is its transpose.
func assembleRotation(x, y, z r3.Vec) quat.Quat {
	worldToCam := r3.MatFromCols(x, y, z)
	camToWorld := worldToCam.Transpose()
	return quat.FromRotationMatrix(camToWorld)
}
