// Package strategy implements the per-camera and per-camera-pair
// initialization strategies: vanishing-point pose recovery, PnP,
// essential-matrix relative pose, and the relaxed/composite variants the
// orchestrator selects between. Every strategy is an Evaluator: it captures
// a snapshot of the camera state it is about to touch before mutating
// anything, so a caller that rejects the result can restore the scene
// exactly.
package strategy

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/poseinit"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/vanish"
)

// reliableReprojPixels bounds the mean reprojection error a successful
// initialization must meet to be marked Reliable, matching the pixel-error
// order of magnitude poseinit's own solvers use for their Reliable flags.
const reliableReprojPixels = 5.0

// Result is the outcome of one Evaluator.Evaluate call.
type Result struct {
	// Success reports whether the strategy produced a pose at all.
	Success bool
	// Reliable reports whether the produced pose meets the quality bar
	// (bounded reprojection error, points in front of the camera). A
	// strategy can succeed without being reliable; the caller then treats
	// the camera as needing a later, better-informed pass (late-PnP).
	Reliable bool
	// Snapshot is the camera state captured before any mutation, for the
	// primary target camera (cam1, for pair strategies).
	Snapshot scene.CameraState
	// Snapshot2 is the pre-mutation snapshot of the second camera, set only
	// by strategies that target a pair (essential-matrix-init).
	Snapshot2 *scene.CameraState

	MeanReprojError float64
	InFrontCount    int

	// Reason explains a non-success outcome, for debug-level logging.
	Reason string
	// Err is the underlying error behind a non-success outcome, when the
	// failure came from a wrapped error rather than a quality check (e.g. a
	// poseinit solve returning linalg.ErrSingular). nil when Success is
	// true or the failure was a plain quality-bound rejection with no
	// underlying error value. Callers use errors.Is/errors.As against this
	// field, not Reason, to distinguish error kinds.
	Err error
}

// Evaluator is a named, possibly-mutating initialization attempt against one
// or two cameras in a scene.
type Evaluator interface {
	Name() string
	Evaluate(s *scene.Scene) Result
}

// anchorsForViewpoint collects every visible image point in v whose world
// point is fully constrained (locked or inferred on all three axes), in the
// form poseinit's solvers consume.
func anchorsForViewpoint(s *scene.Scene, v scene.Viewpoint) []poseinit.Anchor {
	var anchors []poseinit.Anchor
	for _, ip := range v.ImagePoints {
		if !ip.Visible {
			continue
		}
		wp, ok := s.WorldPoints[ip.WorldPoint]
		if !ok {
			continue
		}
		pos, anchored := wp.EffectiveXYZ()
		if !(anchored[0] && anchored[1] && anchored[2]) {
			continue
		}
		anchors = append(anchors, poseinit.Anchor{World: pos, U: ip.U, V: ip.V})
	}
	return anchors
}

// vpsForViewpoint extracts the valid vanishing points for v, discarding axes
// that came back invalid or absent.
func vpsForViewpoint(v scene.Viewpoint, s *scene.Scene) map[scene.Axis]r2.Point {
	extracted := vanish.Extract(v, s, vanish.Equal)
	out := make(map[scene.Axis]r2.Point, len(extracted))
	for axis, p := range extracted {
		if p.Valid {
			out[axis] = p.Pixel
		}
	}
	return out
}

// countLockedPoints returns the number of world points in s with at least
// one locked coordinate.
func countLockedPoints(s *scene.Scene) int {
	n := 0
	for _, wp := range s.WorldPoints {
		if wp.LockedX != nil || wp.LockedY != nil || wp.LockedZ != nil {
			n++
		}
	}
	return n
}

// resolveFocal returns a usable focal length for v: its own intrinsic value
// if positive, else the value recovered from an orthogonal X/Z vanishing
// point pair.
func resolveFocal(v scene.Viewpoint, vps map[scene.Axis]r2.Point) (float64, error) {
	if v.FocalLength > 0 {
		return v.FocalLength, nil
	}
	x, okX := vps[scene.AxisX]
	z, okZ := vps[scene.AxisZ]
	if !okX || !okZ {
		return 0, fmt.Errorf("strategy: no usable focal length: camera has no intrinsic focal length and lacks an X/Z vanishing-point pair")
	}
	f, err := poseinit.FocalFromOrthogonalVPs(x, z, v.PrincipalPoint.X, v.PrincipalPoint.Y)
	if err != nil {
		return 0, fmt.Errorf("strategy: focal recovery failed: %w", err)
	}
	if !poseinit.ValidFocal(f, v.Width) {
		return 0, fmt.Errorf("strategy: recovered focal length %.1f outside the plausible range for image width %d", f, v.Width)
	}
	return f, nil
}

func intrinsicsAt(focal float64, pp r2.Point) geom.Intrinsics {
	return geom.Intrinsics{Fx: focal, Fy: focal, Cx: pp.X, Cy: pp.Y}
}
