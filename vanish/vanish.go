// Package vanish implements vanishing-point extraction: aggregating
// explicit vanishing-line hints with the virtual lines implied by
// axis-aligned Line constraints, fitting one vanishing point per axis, and
// flagging orthogonality warnings.
package vanish

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/linalg"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// Weighting resolves whether virtual lines (implied by a Line's direction
// hint) should be down-weighted relative to explicit VanishingLine hints.
// Default is Equal, left as a tunable.
type Weighting int

const (
	// Equal weights every contributing line identically regardless of
	// whether it came from an explicit VanishingLine or a Line's direction
	// hint. This is the default.
	Equal Weighting = iota
	// PreferExplicit halves the contribution of virtual (Line-derived)
	// lines relative to explicit VanishingLine hints, by duplicating each
	// explicit line's homogeneous row twice in the least-squares system.
	PreferExplicit
)

// Point is a single vanishing point fit for one axis of one viewpoint.
type Point struct {
	Axis     scene.Axis
	Pixel    r2.Point
	Valid    bool
	LineCount int
	Warnings []string
}

// homogLine is a line in homogeneous form (a, b, c) such that a point
// (x, y) lies on the line iff a*x + b*y + c == 0.
type homogLine struct {
	coef r3.Vec
}

func toHomogPoint(p r2.Point) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: 1}
}

// lineFromEndpoints builds the homogeneous line through p1 and p2 via the
// cross product of their homogeneous coordinates, matching r2's Cross
// convention generalized to 3 components.
func lineFromEndpoints(p1, p2 r2.Point) homogLine {
	return homogLine{coef: toHomogPoint(p1).Cross(toHomogPoint(p2))}
}

// collectLines gathers, for one (viewpoint, axis) pair, the explicit
// VanishingLines tagged for axis and the virtual lines implied by every
// scene.Line whose Direction maps unambiguously to axis, using the pixel
// positions of the line's endpoints in this viewpoint. A virtual line is
// skipped if either endpoint lacks a visible ImagePoint in this viewpoint.
func collectLines(v scene.Viewpoint, s *scene.Scene, axis scene.Axis, w Weighting) []homogLine {
	var lines []homogLine
	for _, vl := range v.VanishingLines {
		if vl.Axis != axis {
			continue
		}
		l := lineFromEndpoints(vl.P1, vl.P2)
		lines = append(lines, l)
		if w == PreferExplicit {
			lines = append(lines, l) // double weight for explicit hints
		}
	}
	for _, line := range s.Lines {
		lineAxis, ok := line.Direction.VanishingAxis()
		if !ok || lineAxis != axis {
			continue
		}
		ipA, okA := v.ImagePointFor(line.PointA)
		ipB, okB := v.ImagePointFor(line.PointB)
		if !okA || !okB {
			continue
		}
		lines = append(lines, lineFromEndpoints(
			r2.Point{X: ipA.U, Y: ipA.V},
			r2.Point{X: ipB.U, Y: ipB.V},
		))
	}
	return lines
}

// fit intersects a set of homogeneous lines at a single vanishing point.
// For exactly two lines the closed-form cross-product intersection is
// used; for more, the kernel's smallest-eigenvector solve on AᵀA finds the
// least-squares intersection. Returns (point, ok); ok is false if the
// homogeneous w of the result is below 1e-10 (point at infinity).
func fit(lines []homogLine) (r2.Point, bool) {
	var homog r3.Vec
	switch len(lines) {
	case 2:
		homog = lines[0].coef.Cross(lines[1].coef)
	default:
		ata := make([][]float64, 3)
		for i := range ata {
			ata[i] = make([]float64, 3)
		}
		for _, l := range lines {
			row := []float64{l.coef.X, l.coef.Y, l.coef.Z}
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					ata[i][j] += row[i] * row[j]
				}
			}
		}
		v, err := linalg.SmallestEigenvector(ata)
		if err != nil {
			return r2.Point{}, false
		}
		homog = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	if math.Abs(homog.Z) < 1e-10 {
		return r2.Point{}, false
	}
	return r2.Point{X: homog.X / homog.Z, Y: homog.Y / homog.Z}, true
}

// Extract computes the per-axis vanishing points for a single viewpoint.
// Axes with zero contributing lines are absent from the result map. Axes
// with exactly one line are present with Valid=false and a warning. Axes
// with >=2 lines that fail the homogeneous-w check are present with
// Valid=false and a warning.
func Extract(v scene.Viewpoint, s *scene.Scene, w Weighting) map[scene.Axis]Point {
	out := make(map[scene.Axis]Point)
	for _, axis := range []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ} {
		lines := collectLines(v, s, axis, w)
		if len(lines) == 0 {
			continue
		}
		if len(lines) == 1 {
			out[axis] = Point{Axis: axis, LineCount: 1, Valid: false,
				Warnings: []string{"only one vanishing-line for this axis; vanishing point is underdetermined"}}
			continue
		}
		pixel, ok := fit(lines)
		if !ok {
			out[axis] = Point{Axis: axis, LineCount: len(lines), Valid: false,
				Warnings: []string{"vanishing point at infinity (homogeneous w below tolerance)"}}
			continue
		}
		out[axis] = Point{Axis: axis, Pixel: pixel, LineCount: len(lines), Valid: true}
	}
	return out
}

// ValidateOrthogonality checks every pair of valid vanishing points against
// the viewpoint's current focal length and principal point: the camera-space
// ray from the principal point to each vanishing point (constructed via
// geom.CameraRay's formula) should be near-orthogonal across axes that are
// orthogonal in the world. Pairs whose angle falls outside [85, 95] degrees
// produce a warning; they do not invalidate the points.
func ValidateOrthogonality(v scene.Viewpoint, points map[scene.Axis]Point) []string {
	var warnings []string
	ci := v.Intrinsics()
	axes := []scene.Axis{scene.AxisX, scene.AxisY, scene.AxisZ}
	rays := make(map[scene.Axis]r3.Vec)
	for _, axis := range axes {
		p, ok := points[axis]
		if !ok || !p.Valid {
			continue
		}
		x := (p.Pixel.X - ci.Cx) / ci.Fx
		y := (p.Pixel.Y - ci.Cy) / ci.Fy
		rays[axis] = r3.Vec{X: x, Y: -y, Z: 1}.Unit()
	}
	for i := 0; i < len(axes); i++ {
		for j := i + 1; j < len(axes); j++ {
			ri, ok1 := rays[axes[i]]
			rj, ok2 := rays[axes[j]]
			if !ok1 || !ok2 {
				continue
			}
			cosAngle := ri.Dot(rj)
			cosAngle = math.Max(-1, math.Min(1, cosAngle))
			angleDeg := math.Acos(cosAngle) * 180 / math.Pi
			if angleDeg < 85 || angleDeg > 95 {
				warnings = append(warnings, axisPairWarning(axes[i], axes[j], angleDeg))
			}
		}
	}
	return warnings
}

func axisPairWarning(a, b scene.Axis, angleDeg float64) string {
	return fmt.Sprintf("%s/%s vanishing-point rays are not orthogonal (angle=%.2f deg)", a, b, angleDeg)
}
