// Package orchestrate implements the initialization orchestrator: the
// control flow that decides, for an entire scene of uninitialized cameras,
// which strategy.Evaluator to run against which camera (or pair) and in what
// order, so that every camera ends up with a pose in one consistent world
// frame.
//
// The orchestrator never runs a bundle adjustment itself; it only produces
// enough initial poses (and triangulated points, via the caller's
// preliminary-solve hook in the iterative variant) for one to converge.
package orchestrate

import (
	"sort"

	"github.com/scottlawsonbc/reconstruct/scene"
)

// Diagnostics records what the orchestrator actually did, for the caller to
// surface alongside the solver's own diagnostics.
type Diagnostics struct {
	UsedEssentialMatrix bool
	SteppedVPReverted   bool
	VPEMHybridApplied   bool
	StrategyPerCamera   map[scene.ViewpointID]string
	CamerasFailed       []scene.ViewpointID
	IterationsUsed      int

	// FailureReasons carries the underlying error behind a failed camera's
	// last attempted strategy, when one is available (strategy.Result.Err).
	// Most failures are plain insufficient-anchor rejections with no
	// underlying error and have no entry here; the caller uses this to
	// distinguish a numerical singularity from an ordinary "not enough
	// constraints yet" deferral via errors.Is/errors.As.
	FailureReasons map[scene.ViewpointID]error
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{
		StrategyPerCamera: make(map[scene.ViewpointID]string),
		FailureReasons:    make(map[scene.ViewpointID]error),
	}
}

func (d *Diagnostics) record(cam scene.ViewpointID, strategyName string) {
	d.StrategyPerCamera[cam] = strategyName
}

// fail marks cam as failed-to-initialize-for-now. reason, when supplied and
// non-nil, is the underlying error from the last strategy attempted against
// cam (see Diagnostics.FailureReasons).
func (d *Diagnostics) fail(cam scene.ViewpointID, reason ...error) {
	d.CamerasFailed = append(d.CamerasFailed, cam)
	for _, err := range reason {
		if err != nil {
			d.FailureReasons[cam] = err
		}
	}
}

// Run executes Tier 1, falling through to Tier 2 and Tier 3 as each tier's
// own preconditions and outcomes dictate, against every uninitialized
// viewpoint in s. It mutates s in place and returns a Diagnostics describing
// what ran.
func Run(s *scene.Scene) *Diagnostics {
	diag := newDiagnostics()
	cameras := uninitializedCameras(s)
	if len(cameras) == 0 {
		return diag
	}

	if runTier1(s, cameras, diag) {
		return diag
	}

	if len(cameras) >= 2 && runTier2(s, cameras, diag) {
		return diag
	}

	if len(cameras) >= 2 {
		runTier3(s, cameras, diag)
		return diag
	}

	// A single camera with no usable anchors is left for late-PnP once more
	// points are triangulated by a later solve; record it as failed-for-now
	// rather than silently doing nothing.
	for _, cam := range cameras {
		if _, done := diag.StrategyPerCamera[cam]; !done {
			diag.fail(cam)
		}
	}
	return diag
}

// uninitializedCameras returns every viewpoint in s that has no pose yet, in
// a fixed (lexicographic ID) order so that orchestration is deterministic
// regardless of Go's randomized map iteration.
func uninitializedCameras(s *scene.Scene) []scene.ViewpointID {
	var ids []scene.ViewpointID
	for id, v := range s.Viewpoints {
		if !v.Initialized {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
