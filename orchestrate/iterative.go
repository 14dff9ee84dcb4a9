package orchestrate

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/scene"
	"github.com/scottlawsonbc/reconstruct/strategy"
)

const maxIterations = 5

// PreliminarySolve triangulates/optimizes the points visible in whatever
// cameras are currently initialized, with loose tolerance and no intrinsic
// optimization — just enough to promote more world points to
// fully-constrained so later iterations can PnP more cameras. Supplied by
// the caller (reconstruct wires this to nlsolve) so orchestrate itself never
// depends on the solver package.
type PreliminarySolve func(s *scene.Scene) error

// RunIterative is the alternative orchestrator (spec 4.6's "iterative
// variant"): instead of the fixed Tier 1/2/3 sequence, it repeats up to
// maxIterations rounds of VP-then-PnP over whatever cameras remain,
// triangulating between rounds so each round has strictly more anchored
// points to work with than the last. Falls back to essential-matrix if
// cameras remain uninitialized after the loop.
func RunIterative(s *scene.Scene, solve PreliminarySolve) *Diagnostics {
	diag := newDiagnostics()

	iteration := 0
	for iteration = 1; iteration <= maxIterations; iteration++ {
		remaining := uninitializedCameras(s)
		if len(remaining) == 0 {
			break
		}
		progressed := iterateOnce(s, remaining, iteration, diag)
		if !progressed {
			break
		}
		triangulateSharedPoints(s)
		if solve != nil {
			if err := solve(s); err != nil {
				break
			}
		}
	}
	diag.IterationsUsed = iteration - 1
	if iteration > maxIterations {
		diag.IterationsUsed = maxIterations
	}

	remaining := uninitializedCameras(s)
	if len(remaining) >= 2 {
		runTier3(s, remaining, diag)
	} else {
		for _, cam := range remaining {
			diag.fail(cam)
		}
	}
	return diag
}

// iterateOnce attempts VP then PnP for every remaining camera, allowing the
// single-anchor VP path only from iteration 2 onward and only when exactly
// one camera remains (matching stepped-vp's single-anchor relaxation). Like
// Tier 2, that path takes the scene's external scale reference and is
// skipped when the scene has none.
func iterateOnce(s *scene.Scene, remaining []scene.ViewpointID, iteration int, diag *Diagnostics) bool {
	constrained := fullyConstrainedSet(s)
	progressed := false

	for _, cam := range remaining {
		v := s.Viewpoints[cam]
		if anchorCountFor(v, constrained) >= 2 && len(v.VanishingLines) > 0 {
			if res := strategy.VPInit(cam).Evaluate(s); res.Success {
				diag.record(cam, "vp-init")
				progressed = true
				continue
			}
		}
		if anchorCountFor(v, constrained) >= 3 {
			if res := strategy.PnPInit(cam).Evaluate(s); res.Success {
				diag.record(cam, "pnp-init")
				progressed = true
				continue
			}
		}
		if iteration >= 2 && len(remaining) == 1 {
			scale := externalScaleHint(s)
			if scale != nil && anchorCountFor(v, constrained) >= 1 {
				if res := strategy.SteppedVP(cam, scale).Evaluate(s); res.Success {
					diag.record(cam, "stepped-vp")
					progressed = true
					continue
				}
			}
		}
	}
	return progressed
}

// triangulationFallbackDepth is the depth Triangulate assumes for a
// near-parallel or negative-depth ray pair, scaled to the camera baseline
// rather than a fixed constant so it stays sane across scenes of very
// different scale.
func triangulationFallbackDepth(baseline float64) float64 {
	return math.Max(baseline, 1e-6)
}

// triangulateSharedPoints implements spec.md §4.6's triangulate-between-
// rounds step: for every world point that is not yet fully constrained and
// is visible from at least two cameras initialized so far, ray-ray
// triangulate it and write the result into whichever of InferredX/Y/Z are
// not already locked. This is what lets anchorCountFor see new anchors on
// the next round; nlsolve's own bundle adjustment only ever touches
// OptimizedXYZ, which anchorCountFor does not consult. Returns the number
// of points promoted (at least one newly-inferred axis).
func triangulateSharedPoints(s *scene.Scene) int {
	var initialized []scene.ViewpointID
	for id, v := range s.Viewpoints {
		if v.Initialized {
			initialized = append(initialized, id)
		}
	}
	if len(initialized) < 2 {
		return 0
	}

	promoted := 0
	for pid, wp := range s.WorldPoints {
		if wp.FullyConstrained() {
			continue
		}

		type observation struct {
			cam scene.ViewpointID
			ip  scene.ImagePoint
		}
		var obs []observation
		for _, cam := range initialized {
			v := s.Viewpoints[cam]
			if ip, ok := v.ImagePointFor(pid); ok {
				obs = append(obs, observation{cam, ip})
				if len(obs) == 2 {
					break
				}
			}
		}
		if len(obs) < 2 {
			continue
		}
		ipA, ipB := obs[0].ip, obs[1].ip

		va, vb := s.Viewpoints[obs[0].cam], s.Viewpoints[obs[1].cam]
		rayA := geom.WorldRay(va.Position, va.Rotation, ipA.U, ipA.V, va.Intrinsics())
		rayB := geom.WorldRay(vb.Position, vb.Rotation, ipB.U, ipB.V, vb.Intrinsics())
		fallback := triangulationFallbackDepth(va.Position.Sub(vb.Position).Length())
		tri := geom.Triangulate(rayA.Origin, rayB.Origin, rayA.Dir, rayB.Dir, fallback)

		changed := false
		if wp.LockedX == nil && wp.InferredX == nil {
			x := tri.Point.X
			wp.InferredX = &x
			changed = true
		}
		if wp.LockedY == nil && wp.InferredY == nil {
			y := tri.Point.Y
			wp.InferredY = &y
			changed = true
		}
		if wp.LockedZ == nil && wp.InferredZ == nil {
			z := tri.Point.Z
			wp.InferredZ = &z
			changed = true
		}
		if changed {
			s.WorldPoints[pid] = wp
			promoted++
		}
	}
	return promoted
}
