// Package diagnostic implements pre- and post-solve validation and
// reporting: rejecting an unsolvable scene before a solve is attempted,
// and after a solve classifying per-constraint residual severity, auditing
// cheirality, finding isolated points, and summarizing alignment quality.
package diagnostic

import (
	"github.com/scottlawsonbc/reconstruct/align"
	"github.com/scottlawsonbc/reconstruct/nlsolve"
	"github.com/scottlawsonbc/reconstruct/orchestrate"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// Report is the full post-solve diagnostic bundle named in spec.md §6's
// Solve result: convergence/iteration/residual facts from the solver,
// per-camera strategy and hybrid-path flags from the orchestrator,
// constraint-by-constraint severity, cheirality and isolation findings, and
// an alignment-quality summary.
type Report struct {
	Converged     bool
	Iterations    int
	FinalResidual float64

	// Cancelled mirrors nlsolve.Result.Cancelled: ctx (or the caller's abort
	// flag) fired before the solve finished. Non-fatal; the rest of the
	// report still describes whatever partial state was reached.
	Cancelled bool

	// NotConverged mirrors nlsolve.Result.NotConverged: the solver gave up
	// after two consecutive non-finite residual evaluations, rather than
	// by exhausting Options.MaxIterations. Non-fatal.
	NotConverged bool

	PerCameraStrategy   map[scene.ViewpointID]string
	UsedEssentialMatrix bool
	SteppedVPReverted   bool
	VPEMHybridApplied   bool
	CamerasFailed       []scene.ViewpointID

	ConstraintResiduals  []ConstraintResidual
	CheiralityViolations []CheiralityViolation
	UnreliableCameras    []scene.ViewpointID
	IsolatedPoints       []scene.PointID
	Alignment            AlignmentQuality
}

// Evaluate assembles a Report from the outcomes of each pipeline stage.
// s must be the final, solved-and-aligned scene; orch and solve are the
// diagnostics objects those stages already produced; alignRes is
// align.Align's own result.
func Evaluate(s *scene.Scene, orch *orchestrate.Diagnostics, solve *nlsolve.Result, alignRes align.Result) *Report {
	violations := AuditCheirality(s)
	r := &Report{
		ConstraintResiduals:  EvaluateConstraints(s),
		CheiralityViolations: violations,
		UnreliableCameras:    UnreliableCameras(s, UnreliableCameraThresholdPixels, violations),
		IsolatedPoints:       IsolatedPoints(s),
		Alignment:            EvaluateAlignment(s, alignRes),
	}

	if solve != nil {
		r.Converged = solve.Converged
		r.Iterations = solve.Iterations
		r.FinalResidual = solve.FinalResidualNormSquared
		r.Cancelled = solve.Cancelled
		r.NotConverged = solve.NotConverged
	}
	if orch != nil {
		r.PerCameraStrategy = orch.StrategyPerCamera
		r.UsedEssentialMatrix = orch.UsedEssentialMatrix
		r.SteppedVPReverted = orch.SteppedVPReverted
		r.VPEMHybridApplied = orch.VPEMHybridApplied
		r.CamerasFailed = orch.CamerasFailed
	}

	return r
}

// MostSevere returns the highest Severity among every ConstraintResidual in
// r, or SeverityNone if there are none.
func (r *Report) MostSevere() Severity {
	worst := SeverityNone
	for _, cr := range r.ConstraintResiduals {
		if cr.Severity > worst {
			worst = cr.Severity
		}
	}
	return worst
}
