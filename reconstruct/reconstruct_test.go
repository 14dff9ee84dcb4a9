package reconstruct_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct"
	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

func lockedFloat(v float64) *float64 { return &v }

func TestNewSessionRejectsInvalidScene(t *testing.T) {
	s := scene.New()
	s.Lines["l0"] = scene.Line{ID: "l0", PointA: "missing-a", PointB: "missing-b"}

	_, err := reconstruct.NewSession(s, reconstruct.DefaultOptions(), nil)
	require.Error(t, err)
}

// syntheticScene mirrors package nlsolve's own fixture: a single camera,
// perturbed away from the ground truth pose used to generate its pixel
// observations, looking at four fully locked world points.
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
			ID:      id,
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

func TestSolveEndToEndRecoversPerturbedCamera(t *testing.T) {
	s, truthRot, truthPos := syntheticScene(t)

	sess, err := reconstruct.NewSession(s, reconstruct.DefaultOptions(), nil)
	require.NoError(t, err)

	result, err := sess.Solve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Diagnostics)

	assert.True(t, result.Diagnostics.Converged)
	assert.Less(t, result.Diagnostics.FinalResidual, 1e-6)
	assert.Empty(t, result.Diagnostics.CheiralityViolations)
	assert.Empty(t, result.Diagnostics.UnreliableCameras)

	solved := s.Viewpoints["cam0"]
	assert.InDelta(t, truthPos.X, solved.Position.X, 1e-3)
	assert.InDelta(t, truthPos.Y, solved.Position.Y, 1e-3)
	assert.InDelta(t, truthPos.Z, solved.Position.Z, 1e-3)

	dot := solved.Rotation.Unit().W*truthRot.W + solved.Rotation.Unit().X*truthRot.X +
		solved.Rotation.Unit().Y*truthRot.Y + solved.Rotation.Unit().Z*truthRot.Z
	assert.Greater(t, dot*dot, 1-1e-4)
}

func TestSolveVerboseReturnsLog(t *testing.T) {
	s, _, _ := syntheticScene(t)
	opt := reconstruct.DefaultOptions()
	opt.Verbose = true

	sess, err := reconstruct.NewSession(s, opt, nil)
	require.NoError(t, err)

	result, err := sess.Solve(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Log)
}

func TestSolveRejectsUnconstrainedScene(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = scene.WorldPoint{ID: "p0"}
	s.WorldPoints["p1"] = scene.WorldPoint{ID: "p1"}

	sess, err := reconstruct.NewSession(s, reconstruct.DefaultOptions(), nil)
	require.NoError(t, err)

	_, err = sess.Solve(context.Background())
	require.Error(t, err)
}

func TestSolveHonorsContextCancellation(t *testing.T) {
	s, _, _ := syntheticScene(t)

	sess, err := reconstruct.NewSession(s, reconstruct.DefaultOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sess.Solve(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Diagnostics)
	assert.True(t, result.Diagnostics.Cancelled)
	assert.False(t, result.Diagnostics.Converged)

	solved := s.Viewpoints["cam0"]
	assert.NotZero(t, solved.Position)
}
