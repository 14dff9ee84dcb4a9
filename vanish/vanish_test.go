package vanish_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/vanish"
)

func TestExtractTwoExplicitLines(t *testing.T) {
	s := scene.New()
	v := scene.Viewpoint{
		ID: "cam1", Width: 1000, Height: 1000,
		FocalLength: 1000, PrincipalPoint: r2.Point{X: 500, Y: 500},
		// Both lines lie on the line through (-500, 500) with slopes -0.1
		// and +0.1 respectively, so they converge at (-500, 500).
		VanishingLines: []scene.VanishingLine{
			{P1: r2.Point{X: 200, Y: 430}, P2: r2.Point{X: 400, Y: 410}, Axis: scene.AxisX},
			{P1: r2.Point{X: 200, Y: 570}, P2: r2.Point{X: 400, Y: 590}, Axis: scene.AxisX},
		},
	}
	points := vanish.Extract(v, s, vanish.Equal)
	p, ok := points[scene.AxisX]
	require.True(t, ok)
	assert.True(t, p.Valid)
	assert.Equal(t, 2, p.LineCount)
	assert.InDelta(t, -500, p.Pixel.X, 1e-6)
	assert.InDelta(t, 500, p.Pixel.Y, 1e-6)
}

func TestExtractSingleLineWarns(t *testing.T) {
	s := scene.New()
	v := scene.Viewpoint{
		VanishingLines: []scene.VanishingLine{
			{P1: r2.Point{X: 200, Y: 500}, P2: r2.Point{X: 400, Y: 500}, Axis: scene.AxisZ},
		},
	}
	points := vanish.Extract(v, s, vanish.Equal)
	p, ok := points[scene.AxisZ]
	require.True(t, ok)
	assert.False(t, p.Valid)
	assert.NotEmpty(t, p.Warnings)
}

func TestExtractAbsentAxis(t *testing.T) {
	s := scene.New()
	v := scene.Viewpoint{}
	points := vanish.Extract(v, s, vanish.Equal)
	_, ok := points[scene.AxisY]
	assert.False(t, ok)
}

func TestExtractVirtualLineFromSceneLine(t *testing.T) {
	s := scene.New()
	s.WorldPoints["a"] = scene.WorldPoint{ID: "a"}
	s.WorldPoints["b"] = scene.WorldPoint{ID: "b"}
	s.WorldPoints["c"] = scene.WorldPoint{ID: "c"}
	s.WorldPoints["d"] = scene.WorldPoint{ID: "d"}
	s.Lines["l1"] = scene.Line{ID: "l1", PointA: "a", PointB: "b", Direction: scene.DirectionZAligned}
	s.Lines["l2"] = scene.Line{ID: "l2", PointA: "c", PointB: "d", Direction: scene.DirectionZAligned}

	v := scene.Viewpoint{
		ImagePoints: []scene.ImagePoint{
			{WorldPoint: "a", U: 400, V: 450, Visible: true},
			{WorldPoint: "b", U: 1000, V: 500, Visible: true},
			{WorldPoint: "c", U: 400, V: 550, Visible: true},
			{WorldPoint: "d", U: 1000, V: 500, Visible: true},
		},
	}
	points := vanish.Extract(v, s, vanish.Equal)
	p, ok := points[scene.AxisZ]
	require.True(t, ok)
	assert.True(t, p.Valid)
	assert.InDelta(t, 1000, p.Pixel.X, 1e-6)
	assert.InDelta(t, 500, p.Pixel.Y, 1e-6)
}

func TestValidateOrthogonalityFlagsNonOrthogonal(t *testing.T) {
	v := scene.Viewpoint{FocalLength: 1000, PrincipalPoint: r2.Point{X: 500, Y: 500}}
	points := map[scene.Axis]vanish.Point{
		scene.AxisX: {Axis: scene.AxisX, Valid: true, Pixel: r2.Point{X: 0, Y: 500}},
		scene.AxisZ: {Axis: scene.AxisZ, Valid: true, Pixel: r2.Point{X: 10, Y: 500}},
	}
	warnings := vanish.ValidateOrthogonality(v, points)
	assert.NotEmpty(t, warnings)
}
