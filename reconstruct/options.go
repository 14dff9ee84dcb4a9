package reconstruct

import (
	"sync/atomic"

	"github.com/scottlawsonbc/reconstruct/nlsolve"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// Options configures a Solve, mirroring spec.md §6's option bag
// (max_iterations, tolerance, damping_initial, optimize_intrinsics,
// verbose, abort_flag) plus two supplements: RobustKernel/HuberDelta
// (§9's undefined `robust_kernel`, defined concretely in package residual)
// and LockedCameras (excluding specific already-posed cameras from the
// bundle adjustment, useful for a caller refining only newly added views).
type Options struct {
	MaxIterations      int
	Tolerance          float64
	DampingInitial     float64
	OptimizeIntrinsics bool
	Verbose            bool

	// AbortFlag is the atomic-bool alternative to context cancellation for
	// callers without a context.Context on hand; Solve checks both.
	AbortFlag *atomic.Bool

	RobustKernel  bool
	HuberDelta    float64
	LockedCameras map[scene.ViewpointID]bool
}

// DefaultOptions returns spec.md §4.9's literal solver defaults surfaced at
// the session level.
func DefaultOptions() Options {
	d := nlsolve.DefaultOptions()
	return Options{
		MaxIterations:  d.MaxIterations,
		Tolerance:      d.DeltaTolerance,
		DampingInitial: d.InitialLambda,
		HuberDelta:     d.HuberDelta,
	}
}

// toNLSolve converts the session-level option bag into nlsolve's packed-
// vector solver options. Tolerance governs both the step-size and the
// relative-cost termination tests: RelativeCostTolerance is derived as
// Tolerance² since cost is a squared residual norm and Tolerance is itself
// a length-scale tolerance, so squaring keeps the two tests consistent in
// units.
func (o Options) toNLSolve() nlsolve.Options {
	d := nlsolve.DefaultOptions()
	tol := o.Tolerance
	if tol == 0 {
		tol = d.DeltaTolerance
	}
	maxIter := o.MaxIterations
	if maxIter == 0 {
		maxIter = d.MaxIterations
	}
	lambda := o.DampingInitial
	if lambda == 0 {
		lambda = d.InitialLambda
	}
	huber := o.HuberDelta
	if huber == 0 {
		huber = d.HuberDelta
	}
	return nlsolve.Options{
		MaxIterations:         maxIter,
		DeltaTolerance:        tol,
		RelativeCostTolerance: tol * tol,
		InitialLambda:         lambda,
		OptimizeIntrinsics:    o.OptimizeIntrinsics,
		RobustKernel:          o.RobustKernel,
		HuberDelta:            huber,
		LockedCameras:         o.LockedCameras,
	}
}
