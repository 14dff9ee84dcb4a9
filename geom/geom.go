// Package geom implements the camera-ray, triangulation, reprojection, and
// lens-distortion primitives that every higher-level solver component in
// this repository builds on.
//
// The distortion model is an OpenCV-style radial + tangential model,
// generalized into both directions: Distort (forward, used by the
// reprojection residual to match observed pixels) and Undistort (inverse,
// used when building a camera ray from an observed, distorted pixel for
// triangulation).
package geom

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// Ray is a parametric line in world space: points on the ray are
// Origin + t*Dir for t >= 0.
type Ray struct {
	Origin r3.Point
	Dir    r3.Vec // unit length by convention
}

// Intrinsics is the minimal pinhole+distortion parameter set geom needs;
// larger packages (scene) embed a superset and convert down to this.
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
	Skew   float64
	K1, K2, K3 float64
	P1, P2     float64
}

// Distort applies OpenCV-style forward radial+tangential distortion to a
// normalized ideal camera-space coordinate (x, y), returning the distorted
// normalized coordinate (xd, yd).
func (ci Intrinsics) Distort(x, y float64) (xd, yd float64) {
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radial := 1.0 + ci.K1*r2 + ci.K2*r4 + ci.K3*r6
	dx := 2.0*ci.P1*x*y + ci.P2*(r2+2.0*x*x)
	dy := ci.P1*(r2+2.0*y*y) + 2.0*ci.P2*x*y
	xd = x*radial + dx
	yd = y*radial + dy
	return xd, yd
}

// Undistort inverts Distort iteratively (Newton-free fixed-point iteration),
// starting from the distorted coordinate itself as the small-distortion
// initial guess and refining for 8 iterations.
func (ci Intrinsics) Undistort(xd, yd float64) (x, y float64) {
	x, y = xd, yd
	const iters = 8
	for i := 0; i < iters; i++ {
		r2 := x*x + y*y
		r4 := r2 * r2
		r6 := r4 * r2
		radial := 1.0 + ci.K1*r2 + ci.K2*r4 + ci.K3*r6
		if radial == 0 {
			radial = 1
		}
		dx := 2.0*ci.P1*x*y + ci.P2*(r2+2.0*x*x)
		dy := ci.P1*(r2+2.0*y*y) + 2.0*ci.P2*x*y
		x = (xd - dx) / radial
		y = (yd - dy) / radial
	}
	return x, y
}

// PixelToNormalized converts a pixel coordinate (u, v) to a distorted
// normalized image coordinate using the pinhole intrinsics (no skew
// correction beyond the simple subtraction).
func (ci Intrinsics) PixelToNormalized(u, v float64) (xd, yd float64) {
	xd = (u - ci.Cx) / ci.Fx
	yd = (v - ci.Cy) / ci.Fy
	return xd, yd
}

// NormalizedToPixel converts an ideal normalized camera-space coordinate
// (post-distortion) back to a pixel coordinate.
func (ci Intrinsics) NormalizedToPixel(xd, yd float64) (u, v float64) {
	u = ci.Fx*xd + ci.Cx
	v = ci.Fy*yd + ci.Cy
	return u, v
}

// CameraRay builds the normalized camera-space ray direction for pixel
// (u, v) under intrinsics ci: undistort the pixel, then form
// ((u-cx)/f, (cy-v)/f, 1) and normalize. Camera-space is right-handed with
// +Y up and +Z forward, so the pixel v axis (downward) is inverted
// relative to camera Y.
func CameraRay(u, v float64, ci Intrinsics) r3.Vec {
	xd, yd := ci.PixelToNormalized(u, v)
	x, y := ci.Undistort(xd, yd)
	return r3.Vec{X: x, Y: -y, Z: 1}.Unit()
}

// WorldRay constructs the world-space ray passing through pixel (u, v) as
// observed by a camera at camPos with orientation camRot (world-from-camera
// rotation): the camera-space ray direction is rotated into world space by
// camRot itself, the inverse of the world-to-camera rotation Project uses.
//
// This rotation step is mandatory: triangulating directly against a
// camera-space ray as if it were already world-space silently produces a
// wrong point whenever the camera is not axis-aligned with the world
// frame.
func WorldRay(camPos r3.Point, camRot quat.Quat, u, v float64, ci Intrinsics) Ray {
	dirCam := CameraRay(u, v, ci)
	dirWorld := camRot.RotateUnit(dirCam)
	return Ray{Origin: camPos, Dir: dirWorld.Unit()}
}

// TriangulationResult reports the closed-form ray-ray solve along with the
// per-ray depths, for diagnostics and for cheirality checks downstream.
type TriangulationResult struct {
	Point        r3.Point
	Depth1       float64
	Depth2       float64
	NearParallel bool // true when the fallback depth was used because the rays were nearly parallel
	Clamped1     bool
	Clamped2     bool
}

// Triangulate finds the world point nearest to both rays defined by
// (o1, d1) and (o2, d2):
//
//   - Solve the 2x2 normal-equation system for (t1, t2) minimizing
//     ‖(o1+t1*d1) - (o2+t2*d2)‖.
//   - If |a*c - b*b| < 1e-10 (near-parallel rays), both depths fall back to
//     fallbackDepth.
//   - A negative solved depth is replaced by fallbackDepth.
//   - A solved depth exceeding max(100*baseline, 10*fallbackDepth) is
//     clamped to that bound.
//   - The result point is the midpoint of the two closest points on the
//     rays.
func Triangulate(o1, o2 r3.Point, d1, d2 r3.Vec, fallbackDepth float64) TriangulationResult {
	w := o1.Sub(o2)
	a := d1.Dot(d1)
	b := d1.Dot(d2)
	c := d2.Dot(d2)
	d := d1.Dot(w)
	e := d2.Dot(w)

	baseline := o1.Sub(o2).Length()
	maxDepth := math.Max(100*baseline, 10*fallbackDepth)

	denom := a*c - b*b
	var t1, t2 float64
	result := TriangulationResult{}
	if math.Abs(denom) < 1e-10 {
		t1, t2 = fallbackDepth, fallbackDepth
		result.NearParallel = true
	} else {
		t1 = (b*e - c*d) / denom
		t2 = (a*e - b*d) / denom
		if t1 < 0 {
			t1 = fallbackDepth
		}
		if t2 < 0 {
			t2 = fallbackDepth
		}
		if t1 > maxDepth {
			t1 = maxDepth
			result.Clamped1 = true
		}
		if t2 > maxDepth {
			t2 = maxDepth
			result.Clamped2 = true
		}
	}

	p1 := o1.Add(d1.Muls(t1))
	p2 := o2.Add(d2.Muls(t2))
	midpoint := r3.Point{
		X: (p1.X + p2.X) / 2,
		Y: (p1.Y + p2.Y) / 2,
		Z: (p1.Z + p2.Z) / 2,
	}
	result.Point = midpoint
	result.Depth1 = t1
	result.Depth2 = t2
	return result
}

// PointInFront reports whether p lies in front of a camera at camPos with
// orientation camRot: build the third row of the rotation matrix (the
// camera's forward axis expressed in world space) and dot it with
// (p - camPos); a positive result means p is in front.
func PointInFront(camPos r3.Point, camRot quat.Quat, p r3.Point) bool {
	return ForwardAxis(camRot).Dot(p.Sub(camPos)) > 0
}

// ForwardAxis returns the camera's +Z (forward) axis expressed in world
// space: camRot is the camera-to-world rotation, so its third column is
// the image of the camera-space forward axis (0, 0, 1) under that
// rotation. Equivalently, it is the third row of the world-to-camera
// rotation (camRot's inverse), which is the row-form description commonly
// used for this check: "build the third row of the rotation matrix".
func ForwardAxis(camRot quat.Quat) r3.Vec {
	return camRot.ToRotationMatrix().Col(2)
}

// Projection is the result of reprojecting a world point into a camera.
type Projection struct {
	U, V    float64
	Depth   float64 // camera-space Z; <=0 means behind the camera
	InFront bool
}

// Project reprojects world point p into the camera at camPos/camRot with
// intrinsics ci: transform to camera space via the inverse rotation,
// perspective-divide, distort, and scale by focal length. The v axis is
// inverted relative to camera Y since pixel v grows downward while camera
// Y is up.
func Project(camPos r3.Point, camRot quat.Quat, p r3.Point, ci Intrinsics) (Projection, error) {
	camInv, err := camRot.Inverse()
	if err != nil {
		return Projection{}, fmt.Errorf("geom: Project: %w", err)
	}
	rel := p.Sub(camPos)
	camSpace := camInv.RotateUnit(rel)
	if camSpace.Z == 0 {
		return Projection{}, fmt.Errorf("geom: Project: point on camera plane, z=0")
	}
	xIdeal := camSpace.X / camSpace.Z
	yIdeal := camSpace.Y / camSpace.Z
	xd, yd := ci.Distort(xIdeal, yIdeal)
	u := ci.Fx*xd + ci.Cx
	v := ci.Cy - ci.Fy*yd
	return Projection{U: u, V: v, Depth: camSpace.Z, InFront: camSpace.Z > 0}, nil
}
