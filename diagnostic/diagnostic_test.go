package diagnostic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct/align"
	"github.com/scottlawsonbc/reconstruct/diagnostic"
	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/nlsolve"
	"github.com/scottlawsonbc/reconstruct/orchestrate"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

func lockedPoint(id scene.PointID, p r3.Point) scene.WorldPoint {
	x, y, z := p.X, p.Y, p.Z
	return scene.WorldPoint{ID: id, LockedX: &x, LockedY: &y, LockedZ: &z}
}

func TestClassifySeverityThresholds(t *testing.T) {
	assert.Equal(t, diagnostic.SeverityNone, diagnostic.ClassifySeverity(0.0005))
	assert.Equal(t, diagnostic.SeverityWarning, diagnostic.ClassifySeverity(0.005))
	assert.Equal(t, diagnostic.SeverityMedium, diagnostic.ClassifySeverity(0.02))
	assert.Equal(t, diagnostic.SeverityHigh, diagnostic.ClassifySeverity(0.10))
	assert.Equal(t, diagnostic.SeverityCritical, diagnostic.ClassifySeverity(0.5))
}

func TestCheckPreSolveRejectsEmptyScene(t *testing.T) {
	s := scene.New()
	_, err := diagnostic.CheckPreSolve(s)
	require.Error(t, err)
}

func TestCheckPreSolveWarnsWhenUnderdeterminedByConstraintsAlone(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = scene.WorldPoint{ID: "p0"}
	s.WorldPoints["p1"] = scene.WorldPoint{ID: "p1"}
	s.Constraints["d0"] = scene.NewDistance("d0", "p0", "p1", 1.0)

	report, err := diagnostic.CheckPreSolve(s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.EnabledConstraints)
	assert.Equal(t, 1, report.ConstraintResidualCount)
	assert.Equal(t, 6, report.FreeParameterCount) // 2 unlocked points * 3
	assert.Greater(t, report.DegreesOfFreedom, 0)
	assert.NotEmpty(t, report.Warnings)
}

func TestCheckPreSolveAcceptsReprojectionOnlyScene(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = lockedPoint("p0", r3.Point{X: 0, Y: 0, Z: 5})
	s.Viewpoints["cam0"] = scene.Viewpoint{
		ID: "cam0", Initialized: true,
		ImagePoints: []scene.ImagePoint{{ID: "ip0", WorldPoint: "p0", U: 320, V: 240, Visible: true}},
	}
	report, err := diagnostic.CheckPreSolve(s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ReprojectionObservations)
	assert.Empty(t, report.Warnings)
}

func TestEvaluateConstraintsDetectsSatisfiedAndViolated(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = lockedPoint("p0", r3.Point{X: 0, Y: 0, Z: 0})
	s.WorldPoints["p1"] = lockedPoint("p1", r3.Point{X: 1, Y: 0, Z: 0})
	s.Constraints["ok"] = scene.NewDistance("ok", "p0", "p1", 1.0)
	s.Constraints["bad"] = scene.NewDistance("bad", "p0", "p1", 5.0)

	results := diagnostic.EvaluateConstraints(s)
	require.Len(t, results, 2)

	byID := map[scene.ConstraintID]diagnostic.ConstraintResidual{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.InDelta(t, 0, byID["ok"].Residual, 1e-9)
	assert.Equal(t, diagnostic.SeverityNone, byID["ok"].Severity)

	// |1 - 5| = 4, relative to target 5 => 0.8, well past critical.
	assert.InDelta(t, 4, byID["bad"].Residual, 1e-9)
	assert.Equal(t, diagnostic.SeverityCritical, byID["bad"].Severity)
}

func TestIsolatedPointsFindsUnreferencedPoint(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = scene.WorldPoint{ID: "p0"}
	s.WorldPoints["p1"] = scene.WorldPoint{ID: "p1"}
	s.WorldPoints["lonely"] = scene.WorldPoint{ID: "lonely"}
	s.Constraints["d0"] = scene.NewDistance("d0", "p0", "p1", 1.0)

	isolated := diagnostic.IsolatedPoints(s)
	require.Len(t, isolated, 1)
	assert.Equal(t, scene.PointID("lonely"), isolated[0])
}

func TestAuditCheiralityFlagsPointBehindCamera(t *testing.T) {
	s := scene.New()
	s.WorldPoints["behind"] = lockedPoint("behind", r3.Point{X: 0, Y: 0, Z: -5})
	s.Viewpoints["cam0"] = scene.Viewpoint{
		ID: "cam0", Initialized: true, Rotation: quat.Identity(), Position: r3.Point{},
		ImagePoints: []scene.ImagePoint{{ID: "ip0", WorldPoint: "behind", U: 320, V: 240, Visible: true}},
	}
	violations := diagnostic.AuditCheirality(s)
	require.Len(t, violations, 1)
	assert.Equal(t, scene.ViewpointID("cam0"), violations[0].Viewpoint)
}

func TestUnreliableCamerasFlagsHighReprojectionError(t *testing.T) {
	ci := geom.Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
	truth := r3.Point{X: 0, Y: 0, Z: 5}
	proj, err := geom.Project(r3.Point{}, quat.Identity(), truth, ci)
	require.NoError(t, err)

	s := scene.New()
	s.WorldPoints["p0"] = lockedPoint("p0", truth)
	s.Viewpoints["cam0"] = scene.Viewpoint{
		ID: "cam0", Initialized: true, Rotation: quat.Identity(),
		FocalLength: ci.Fx, PrincipalPoint: r2.Point{X: ci.Cx, Y: ci.Cy},
		ImagePoints: []scene.ImagePoint{{ID: "ip0", WorldPoint: "p0", U: proj.U + 50, V: proj.V, Visible: true}},
	}

	unreliable := diagnostic.UnreliableCameras(s, diagnostic.UnreliableCameraThresholdPixels, nil)
	require.Len(t, unreliable, 1)
	assert.Equal(t, scene.ViewpointID("cam0"), unreliable[0])
}

func TestEvaluateAlignmentReportsAnchorResidual(t *testing.T) {
	s := scene.New()
	anchor := lockedPoint("anchor", r3.Point{X: 1, Y: 2, Z: 3})
	anchor.OptimizedXYZ = r3.Point{X: 1, Y: 2, Z: 3.5}
	s.WorldPoints["anchor"] = anchor

	q := diagnostic.EvaluateAlignment(s, align.Result{TranslationApplied: true})
	assert.True(t, q.TranslationApplied)
	assert.InDelta(t, 0.5, q.MaxAnchorResidual, 1e-9)
}

func TestEvaluateAssemblesFullReport(t *testing.T) {
	s := scene.New()
	s.WorldPoints["p0"] = lockedPoint("p0", r3.Point{X: 0, Y: 0, Z: 0})

	orch := &orchestrate.Diagnostics{UsedEssentialMatrix: true}
	solve := &nlsolve.Result{Converged: true, Iterations: 3, FinalResidualNormSquared: 1e-12}

	report := diagnostic.Evaluate(s, orch, solve, align.Result{})
	assert.True(t, report.Converged)
	assert.Equal(t, 3, report.Iterations)
	assert.True(t, report.UsedEssentialMatrix)
	assert.Equal(t, diagnostic.SeverityNone, report.MostSevere())
}
