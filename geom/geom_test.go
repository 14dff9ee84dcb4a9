package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

func undistortedIntrinsics() geom.Intrinsics {
	return geom.Intrinsics{Fx: 1000, Fy: 1000, Cx: 500, Cy: 500}
}

func TestTriangulateRoundTrip(t *testing.T) {
	// Two cameras with known pose observing a single point not on their
	// baseline; projecting to both images and re-triangulating should
	// recover the original point within 1e-6 in the noise-free case.
	ci := undistortedIntrinsics()
	cam1Pos := r3.Point{X: 0, Y: 0, Z: 0}
	cam2Pos := r3.Point{X: 2, Y: 0, Z: 0}
	rot := quat.Identity()

	world := r3.Point{X: 0.3, Y: 0.2, Z: 5}

	proj1, err := geom.Project(cam1Pos, rot, world, ci)
	assert.NoError(t, err)
	proj2, err := geom.Project(cam2Pos, rot, world, ci)
	assert.NoError(t, err)

	ray1 := geom.WorldRay(cam1Pos, rot, proj1.U, proj1.V, ci)
	ray2 := geom.WorldRay(cam2Pos, rot, proj2.U, proj2.V, ci)

	result := geom.Triangulate(ray1.Origin, ray2.Origin, ray1.Dir, ray2.Dir, 10)
	assert.InDelta(t, world.X, result.Point.X, 1e-6)
	assert.InDelta(t, world.Y, result.Point.Y, 1e-6)
	assert.InDelta(t, world.Z, result.Point.Z, 1e-6)
	assert.False(t, result.NearParallel)
}

func TestTriangulateNearParallelUsesFallback(t *testing.T) {
	o1 := r3.Point{X: 0, Y: 0, Z: 0}
	o2 := r3.Point{X: 0.001, Y: 0, Z: 0}
	d := r3.Vec{X: 0, Y: 0, Z: 1}
	result := geom.Triangulate(o1, o2, d, d, 7.0)
	assert.True(t, result.NearParallel)
	assert.InDelta(t, 7.0, result.Depth1, 1e-9)
	assert.InDelta(t, 7.0, result.Depth2, 1e-9)
}

func TestPointInFrontOfCamera(t *testing.T) {
	camPos := r3.Point{X: 0, Y: 0, Z: 0}
	rot := quat.Identity()
	front := r3.Point{X: 0, Y: 0, Z: 5}
	behind := r3.Point{X: 0, Y: 0, Z: -5}
	assert.True(t, geom.PointInFront(camPos, rot, front))
	assert.False(t, geom.PointInFront(camPos, rot, behind))
}

func TestDistortUndistortRoundTrip(t *testing.T) {
	ci := geom.Intrinsics{Fx: 1000, Fy: 1000, Cx: 500, Cy: 500, K1: -0.2, K2: 0.05, P1: 0.001, P2: -0.001}
	x, y := 0.1, -0.15
	xd, yd := ci.Distort(x, y)
	xu, yu := ci.Undistort(xd, yd)
	assert.InDelta(t, x, xu, 1e-6)
	assert.InDelta(t, y, yu, 1e-6)
}

func TestProjectPrincipalPoint(t *testing.T) {
	ci := undistortedIntrinsics()
	camPos := r3.Point{X: 0, Y: 0, Z: 0}
	rot := quat.Identity()
	p := r3.Point{X: 0, Y: 0, Z: 10}
	proj, err := geom.Project(camPos, rot, p, ci)
	assert.NoError(t, err)
	assert.InDelta(t, ci.Cx, proj.U, 1e-9)
	assert.InDelta(t, ci.Cy, proj.V, 1e-9)
	assert.True(t, proj.InFront)
}
