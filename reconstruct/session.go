// Package reconstruct wires the scene, vanishing-point/closed-form
// initialization orchestrator, frame alignment, nonlinear solver, and
// diagnostics packages into the single entry point spec.md §6 describes: a
// Session that borrows a scene, solves it, and returns updated poses/points
// alongside a full diagnostic report.
package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scottlawsonbc/reconstruct/align"
	"github.com/scottlawsonbc/reconstruct/diagnostic"
	"github.com/scottlawsonbc/reconstruct/linalg"
	"github.com/scottlawsonbc/reconstruct/nlsolve"
	"github.com/scottlawsonbc/reconstruct/orchestrate"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// Result is spec.md §6's Solve result: the scene (mutated in place with
// updated camera poses/intrinsics and world-point OptimizedXYZ), the full
// diagnostic report, and, when Options.Verbose was set, the ordered textual
// event log.
type Result struct {
	Diagnostics *diagnostic.Report
	Log         []string
}

// Session borrows a *scene.Scene by reference for its lifetime (the scene
// is read-only as far as any other goroutine is concerned; the caller must
// not mutate it concurrently with a Solve in progress, per spec.md §5).
type Session struct {
	scene *scene.Scene
	opt   Options
	log   Logger
}

// NewSession validates s structurally (every cross-reference resolves) and
// returns a Session ready to Solve. It does not run the pre-solve
// constrainedness check yet — that happens inside Solve, since it can
// depend on orchestration having already run (reprojection observations
// only count once a camera is initialized... no: spec.md counts raw
// observations regardless, so the check could run here too, but keeping it
// inside Solve lets a single Session be inspected and solved without a
// separate explicit step).
func NewSession(s *scene.Scene, opt Options, log Logger) (*Session, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("reconstruct: NewSession: %w", err)
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Session{scene: s, opt: opt, log: log}, nil
}

// Solve runs the full pipeline: pre-solve diagnostics, coordinate
// inference, tiered initialization (falling back to the iterative
// orchestrator for any camera Tier 1-3 could not place), frame alignment,
// bundle adjustment, and post-solve diagnostics. Per spec.md §7, the error
// kinds differ in fatality: ErrInsufficientConstraints and
// ErrInitializationFailed (optionally wrapping ErrNumericalSingular) are
// fatal and returned as a non-nil error with a nil Result. Cancellation
// (ctx or Options.AbortFlag, checked between solver iterations) and a
// non-converged or unreliable solve are non-fatal: Solve returns a nil
// error and a Result whose Diagnostics carries the Cancelled, NotConverged,
// or UnreliableCameras flag alongside whatever partial state was reached.
func (sess *Session) Solve(ctx context.Context) (*Result, error) {
	s := sess.scene
	logger := sess.log
	if sess.opt.Verbose {
		logger = &sliceLogger{}
	}

	ctx, cancel := sess.withAbortFlag(ctx)
	defer cancel()

	preReport, err := diagnostic.CheckPreSolve(s)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: Solve: %w", err)
	}
	for _, w := range preReport.Warnings {
		logger.Printf("pre-solve: %s", w)
	}

	s.InferCoordinates()

	diag := orchestrate.Run(s)
	logger.Printf("orchestrate.Run: %d camera(s) assigned a strategy", len(diag.StrategyPerCamera))

	if remaining := uninitializedCount(s); remaining > 0 {
		logger.Printf("orchestrate.Run left %d camera(s) uninitialized, falling back to the iterative orchestrator", remaining)
		iterDiag := orchestrate.RunIterative(s, sess.preliminarySolve(ctx))
		mergeDiagnostics(diag, iterDiag)
	}
	failed := stillUninitialized(s)
	diag.CamerasFailed = failed

	if len(s.Viewpoints) > 0 && len(failed) == len(s.Viewpoints) {
		return nil, initializationFailedError(diag, failed)
	}

	alignResult := align.Align(s)
	logger.Printf("align: scale=%v rotation=%v translation=%v", alignResult.ScaleApplied, alignResult.RotationApplied, alignResult.TranslationApplied)

	solveResult, err := nlsolve.Solve(ctx, s, sess.opt.toNLSolve())
	if err != nil {
		return nil, fmt.Errorf("reconstruct: Solve: %w", err)
	}
	if solveResult.Cancelled {
		logger.Printf("nlsolve: cancelled before completion, returning partial state")
	} else {
		logger.Printf("nlsolve: converged=%v iterations=%d final_residual=%g", solveResult.Converged, solveResult.Iterations, solveResult.FinalResidualNormSquared)
	}

	report := diagnostic.Evaluate(s, diag, solveResult, alignResult)

	result := &Result{Diagnostics: report}
	if sess.opt.Verbose {
		if sl, ok := logger.(*sliceLogger); ok {
			result.Log = sl.lines
		}
	}
	return result, nil
}

// preliminarySolve adapts nlsolve into orchestrate.PreliminarySolve: a
// loose-tolerance, intrinsics-locked solve just thorough enough to promote
// newly triangulated points to fully-constrained so later iteration rounds
// can PnP more cameras, per orchestrate.RunIterative's own doc comment.
func (sess *Session) preliminarySolve(ctx context.Context) orchestrate.PreliminarySolve {
	return func(s *scene.Scene) error {
		opt := nlsolve.Options{
			MaxIterations:         20,
			DeltaTolerance:        1e-6,
			RelativeCostTolerance: 1e-8,
		}
		_, err := nlsolve.Solve(ctx, s, opt)
		return err
	}
}

// withAbortFlag derives a context that is also cancelled when
// Options.AbortFlag is set, so a caller without a context.Context can still
// cooperatively cancel a Solve in progress. Polling a short-lived ticker is
// a deliberate trade for simplicity over plumbing the flag through every
// call site; the ticker and its goroutine are always cleaned up by the
// returned cancel func.
func (sess *Session) withAbortFlag(parent context.Context) (context.Context, context.CancelFunc) {
	if sess.opt.AbortFlag == nil {
		return context.WithCancel(parent)
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if sess.opt.AbortFlag.Load() {
					cancel()
					return
				}
			}
		}
	}()
	return ctx, func() {
		close(done)
		cancel()
	}
}

func uninitializedCount(s *scene.Scene) int {
	n := 0
	for _, v := range s.Viewpoints {
		if !v.Initialized {
			n++
		}
	}
	return n
}

func stillUninitialized(s *scene.Scene) []scene.ViewpointID {
	var out []scene.ViewpointID
	for id, v := range s.Viewpoints {
		if !v.Initialized {
			out = append(out, id)
		}
	}
	return out
}

// mergeDiagnostics folds src's findings into dst in place, used when the
// iterative orchestrator runs as a fallback after the tiered one.
func mergeDiagnostics(dst, src *orchestrate.Diagnostics) {
	dst.UsedEssentialMatrix = dst.UsedEssentialMatrix || src.UsedEssentialMatrix
	dst.SteppedVPReverted = dst.SteppedVPReverted || src.SteppedVPReverted
	dst.VPEMHybridApplied = dst.VPEMHybridApplied || src.VPEMHybridApplied
	dst.IterationsUsed += src.IterationsUsed
	for cam, strat := range src.StrategyPerCamera {
		dst.StrategyPerCamera[cam] = strat
	}
	for cam, reason := range src.FailureReasons {
		dst.FailureReasons[cam] = reason
	}
}

// initializationFailedError builds the fatal error for Solve's "no
// initialization strategy succeeded for any camera" outcome (spec.md §7's
// InitializationFailed kind), wrapping ErrNumericalSingular too when every
// failed camera's last attempted strategy traced back to a singular matrix
// solve.
func initializationFailedError(diag *orchestrate.Diagnostics, failed []scene.ViewpointID) error {
	err := fmt.Errorf("reconstruct: Solve: %w: %v", ErrInitializationFailed, failed)
	for _, cam := range failed {
		if reason, ok := diag.FailureReasons[cam]; !ok || !errors.Is(reason, linalg.ErrSingular) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", err, ErrNumericalSingular)
}
