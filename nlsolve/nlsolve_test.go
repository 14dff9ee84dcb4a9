package nlsolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

func lockedFloat(v float64) *float64 { return &v }

func TestSolveStepIdentitySystem(t *testing.T) {
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	delta, ok := solveStep(j, []float64{3, 4}, 0)
	require.True(t, ok)
	assert.InDelta(t, -3, delta[0], 1e-9)
	assert.InDelta(t, -4, delta[1], 1e-9)
}

func TestSolveStepFallsBackToSVDForRankDeficientColumn(t *testing.T) {
	// the second parameter touches no residual, so JᵀJ's second diagonal
	// entry is exactly zero and the damped matrix is only
	// positive-semidefinite, not positive-definite.
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	delta, ok := solveStep(j, []float64{2, 0}, 0.1)
	require.True(t, ok)
	assert.InDelta(t, -2/1.1, delta[0], 1e-6)
}

func TestBuildParamMapLocksUninitializedCamerasAndAnchoredAxes(t *testing.T) {
	s := scene.New()
	s.Viewpoints["cam-free"] = scene.Viewpoint{ID: "cam-free", Initialized: true, Rotation: quat.Identity(), FocalLength: 500}
	s.Viewpoints["cam-uninit"] = scene.Viewpoint{ID: "cam-uninit", Initialized: false}
	s.WorldPoints["p-free"] = scene.WorldPoint{ID: "p-free"}
	s.WorldPoints["p-locked"] = scene.WorldPoint{ID: "p-locked", LockedX: lockedFloat(1), LockedY: lockedFloat(2), LockedZ: lockedFloat(3)}

	pm := buildParamMap(s, Options{LockedCameras: map[scene.ViewpointID]bool{}})

	assert.NotEqual(t, lockedCamera, pm.cameraIdx["cam-free"])
	assert.Equal(t, lockedCamera, pm.cameraIdx["cam-uninit"])

	freeAxes := pm.pointIdx["p-free"]
	for _, idx := range freeAxes {
		assert.NotEqual(t, -1, idx)
	}
	lockedAxes := pm.pointIdx["p-locked"]
	for _, idx := range lockedAxes {
		assert.Equal(t, -1, idx)
	}

	// 7 free pose components for cam-free, 3 free axes for p-free, nothing
	// for cam-uninit or p-locked.
	assert.Equal(t, 10, pm.size)
}

func TestBuildParamMapFreesIntrinsicsWhenRequested(t *testing.T) {
	s := scene.New()
	s.Viewpoints["cam"] = scene.Viewpoint{ID: "cam", Initialized: true, Rotation: quat.Identity(), FocalLength: 500}

	pm := buildParamMap(s, Options{OptimizeIntrinsics: true})
	idx := pm.cameraIdx["cam"]
	assert.NotEqual(t, -1, idx.Fx)
	assert.NotEqual(t, -1, idx.K3)
	assert.Equal(t, 16, pm.size)
}

// syntheticScene builds a one-camera bundle-adjustment scene: four
// non-coplanar, fully locked world points observed by a single camera
// whose pose is perturbed away from the ground truth used to generate the
// pixel observations.
func syntheticScene(t *testing.T) (*scene.Scene, quat.Quat, r3.Point) {
	t.Helper()
	truthRot := quat.Identity()
	truthPos := r3.Point{X: 0, Y: 0, Z: 0}
	ci := geom.Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}

	points := map[scene.PointID]r3.Point{
		"p0": {X: 0, Y: 0, Z: 5},
		"p1": {X: 1, Y: 0, Z: 5},
		"p2": {X: 0, Y: 1, Z: 5.5},
		"p3": {X: -1, Y: 0.5, Z: 6},
	}

	s := scene.New()
	for id, p := range points {
		s.WorldPoints[id] = scene.WorldPoint{
			ID: id,
			LockedX: lockedFloat(p.X), LockedY: lockedFloat(p.Y), LockedZ: lockedFloat(p.Z),
		}
	}

	v := scene.Viewpoint{
		ID: "cam0", Initialized: true,
		FocalLength: ci.Fx, AspectRatio: ci.Fy / ci.Fx,
		PrincipalPoint: r2.Point{X: ci.Cx, Y: ci.Cy},
		Rotation:       quat.Quat{W: 0.999, X: 0.02, Y: -0.01, Z: 0.03}.Unit(),
		Position:       r3.Point{X: 0.15, Y: -0.1, Z: -0.2},
	}
	for id, p := range points {
		proj, err := geom.Project(truthPos, truthRot, p, ci)
		require.NoError(t, err)
		v.ImagePoints = append(v.ImagePoints, scene.ImagePoint{
			ID: scene.ImagePointID("ip-" + string(id)), WorldPoint: id,
			U: proj.U, V: proj.V, Visible: true, Confidence: 1,
		})
	}
	s.Viewpoints["cam0"] = v

	return s, truthRot, truthPos
}

func TestSolveRecoversPerturbedCameraPose(t *testing.T) {
	s, truthRot, truthPos := syntheticScene(t)

	result, err := Solve(context.Background(), s, DefaultOptions())
	require.NoError(t, err)

	assert.Less(t, result.FinalResidualNormSquared, 1e-6)

	solved := s.Viewpoints["cam0"]
	assert.InDelta(t, truthPos.X, solved.Position.X, 1e-3)
	assert.InDelta(t, truthPos.Y, solved.Position.Y, 1e-3)
	assert.InDelta(t, truthPos.Z, solved.Position.Z, 1e-3)

	dot := solved.Rotation.Unit().W*truthRot.W + solved.Rotation.Unit().X*truthRot.X +
		solved.Rotation.Unit().Y*truthRot.Y + solved.Rotation.Unit().Z*truthRot.Z
	assert.Greater(t, dot*dot, 1-1e-4)
}

func TestSolveNoFreeParametersConvergesImmediately(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = scene.WorldPoint{ID: "p0", LockedX: lockedFloat(0), LockedY: lockedFloat(0), LockedZ: lockedFloat(0)}
	result, err := Solve(context.Background(), s, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, result.Converged)
	assert.Equal(t, 0, result.Iterations)
}
