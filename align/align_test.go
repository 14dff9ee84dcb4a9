package align_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct/align"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

func TestAlignScaleFromDistanceConstraint(t *testing.T) {
	s := scene.New()
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a", OptimizedXYZ: r3.Point{X: 0, Y: 0, Z: 0}}
	s.WorldPoints["b"] = scene.WorldPoint{ID: "b", OptimizedXYZ: r3.Point{X: 2, Y: 0, Z: 0}}
	s.Constraints["d"] = scene.NewDistance("d", "a", "b", 10)

	res := align.Align(s)

	require.True(t, res.ScaleApplied)
	assert.InDelta(t, 5.0, res.Scale, 1e-9)
	b := s.WorldPoints["b"]
	assert.InDelta(t, 10, b.OptimizedXYZ.Sub(s.WorldPoints["a"].OptimizedXYZ).Length(), 1e-6)
}

func TestAlignScaleFromLineTargetLength(t *testing.T) {
	s := scene.New()
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a", OptimizedXYZ: r3.Point{X: 0, Y: 0, Z: 0}}
	s.WorldPoints["b"] = scene.WorldPoint{ID: "b", OptimizedXYZ: r3.Point{X: 0, Y: 4, Z: 0}}
	target := 8.0
	s.Lines["l"] = scene.Line{ID: "l", PointA: "a", PointB: "b", TargetLength: &target}

	res := align.Align(s)
	require.True(t, res.ScaleApplied)
	assert.InDelta(t, 2.0, res.Scale, 1e-9)
}

func TestAlignNoScaleReferenceLeavesSceneUntouched(t *testing.T) {
	s := scene.New()
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a", OptimizedXYZ: r3.Point{X: 1, Y: 2, Z: 3}}

	res := align.Align(s)
	assert.False(t, res.ScaleApplied)
	assert.False(t, res.RotationApplied)
	assert.False(t, res.TranslationApplied)
	assert.Equal(t, r3.Point{X: 1, Y: 2, Z: 3}, s.WorldPoints["a"].OptimizedXYZ)
}

func TestAlignRotationFromTwoAxisLines(t *testing.T) {
	s := scene.New()
	// Current-frame X-aligned line actually points along current +Z, and
	// current-frame Z-aligned line points along current +X: a 180-degree turn
	// about the X+Z diagonal, which also reverses Y.
	s.WorldPoints["xa"] = scene.WorldPoint{ID: "xa", OptimizedXYZ: r3.Point{}}
	s.WorldPoints["xb"] = scene.WorldPoint{ID: "xb", OptimizedXYZ: r3.Point{Z: 1}}
	s.WorldPoints["za"] = scene.WorldPoint{ID: "za", OptimizedXYZ: r3.Point{}}
	s.WorldPoints["zb"] = scene.WorldPoint{ID: "zb", OptimizedXYZ: r3.Point{X: 1}}
	s.Lines["lx"] = scene.Line{ID: "lx", PointA: "xa", PointB: "xb", Direction: scene.DirectionXAligned}
	s.Lines["lz"] = scene.Line{ID: "lz", PointA: "za", PointB: "zb", Direction: scene.DirectionZAligned}

	res := align.Align(s)
	require.True(t, res.RotationApplied)

	xb := s.WorldPoints["xb"].OptimizedXYZ
	assert.InDelta(t, 1, xb.X, 1e-6)
	assert.InDelta(t, 0, xb.Z, 1e-6)
	zb := s.WorldPoints["zb"].OptimizedXYZ
	assert.InDelta(t, 1, zb.Z, 1e-6)
	assert.InDelta(t, 0, zb.X, 1e-6)
}

func TestAlignRotationSingleAxisPicksLowerResidualCandidate(t *testing.T) {
	s := scene.New()
	s.WorldPoints["va"] = scene.WorldPoint{ID: "va", OptimizedXYZ: r3.Point{}}
	s.WorldPoints["vb"] = scene.WorldPoint{ID: "vb", OptimizedXYZ: r3.Point{Y: 1}}
	s.Lines["lv"] = scene.Line{ID: "lv", PointA: "va", PointB: "vb", Direction: scene.DirectionVertical}

	lockedX, lockedY, lockedZ := 3.0, 0.0, 0.0
	s.WorldPoints["anchor"] = scene.WorldPoint{
		ID: "anchor", OptimizedXYZ: r3.Point{X: 3, Y: 0, Z: 0},
		LockedX: &lockedX, LockedY: &lockedY, LockedZ: &lockedZ,
	}

	res := align.Align(s)
	require.True(t, res.RotationApplied)
	anchor := s.WorldPoints["anchor"].OptimizedXYZ
	assert.InDelta(t, 3, anchor.X, 1e-6)
	assert.InDelta(t, 0, anchor.Y, 1e-6)
	assert.InDelta(t, 0, anchor.Z, 1e-6)
}

func TestAlignTranslationFromLockedPoint(t *testing.T) {
	s := scene.New()
	lockedX, lockedY, lockedZ := 10.0, 20.0, 30.0
	s.WorldPoints["a"] = scene.WorldPoint{
		ID: "a", OptimizedXYZ: r3.Point{X: 1, Y: 1, Z: 1},
		LockedX: &lockedX, LockedY: &lockedY, LockedZ: &lockedZ,
	}
	s.WorldPoints["b"] = scene.WorldPoint{ID: "b", OptimizedXYZ: r3.Point{X: 5, Y: 5, Z: 5}}

	res := align.Align(s)
	require.True(t, res.TranslationApplied)
	assert.InDelta(t, 10, s.WorldPoints["a"].OptimizedXYZ.X, 1e-6)
	assert.InDelta(t, 20, s.WorldPoints["a"].OptimizedXYZ.Y, 1e-6)
	assert.InDelta(t, 30, s.WorldPoints["a"].OptimizedXYZ.Z, 1e-6)
	// b moves by the same rigid offset as a.
	assert.InDelta(t, 5+9, s.WorldPoints["b"].OptimizedXYZ.X, 1e-6)
}

func TestAlignTranslationFromFixedPointConstraint(t *testing.T) {
	s := scene.New()
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a", OptimizedXYZ: r3.Point{X: 1, Y: 1, Z: 1}}
	targetX := 100.0
	s.Constraints["fp"] = scene.NewFixedPoint("fp", "a", &targetX, nil, nil)

	res := align.Align(s)
	require.True(t, res.TranslationApplied)
	assert.InDelta(t, 100, s.WorldPoints["a"].OptimizedXYZ.X, 1e-6)
	// Y/Z unconstrained by the FixedPoint: translation only moves X.
	assert.InDelta(t, 1, s.WorldPoints["a"].OptimizedXYZ.Y, 1e-6)
}

func TestAlignAppliesToCameraPoses(t *testing.T) {
	s := scene.New()
	s.Viewpoints["cam"] = scene.Viewpoint{ID: "cam", Position: r3.Point{X: 1, Y: 0, Z: 0}, Rotation: quat.Identity()}
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a", OptimizedXYZ: r3.Point{X: 0, Y: 0, Z: 0}}
	s.WorldPoints["b"] = scene.WorldPoint{ID: "b", OptimizedXYZ: r3.Point{X: 2, Y: 0, Z: 0}}
	s.Constraints["d"] = scene.NewDistance("d", "a", "b", 4)

	align.Align(s)
	cam := s.Viewpoints["cam"]
	assert.InDelta(t, 2, cam.Position.X, 1e-6) // scaled by 2x along with the world points
	_ = math.Pi
}
