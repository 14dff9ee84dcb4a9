package nlsolve

import (
	"context"
	"math"

	"github.com/scottlawsonbc/reconstruct/scene"
)

// Result reports the outcome of a Solve call. Cancelled and NotConverged
// are non-fatal outcome flags, not errors: Solve always returns a nil
// error and the scene mutated to whatever state it reached.
type Result struct {
	FinalResidualNormSquared float64
	Iterations               int
	Converged                bool

	// Cancelled is set when ctx or the caller's abort flag fired before the
	// loop finished; s holds whatever partial refinement had been accepted
	// so far.
	Cancelled bool

	// NotConverged is set when two consecutive residual evaluations
	// produced a non-finite (NaN or Inf) cost, per spec.md §7's
	// "two consecutive failures mark the solve as NotConverged".
	NotConverged bool
}

// Solve refines every free camera pose and world-point component in s by
// damped Gauss-Newton (Levenberg-Marquardt), per spec.md §4.9: pack the
// free parameters, iterate computing J and r, solve
// (JᵀJ + λ·diag(JᵀJ))Δ = −Jᵀr, accept the step only if it improves ‖r‖²,
// adapt λ (×0.5 down to 1e-8 on acceptance, ×2 up to 1e8 on rejection),
// and stop on Δ-tolerance, relative cost-change tolerance, or the
// iteration cap. s is mutated in place to the converged (or best-found)
// state. ctx cancellation (and, through it, a caller's abort flag) is
// checked between iterations; on cancellation Solve returns the current
// partial state with Result.Cancelled set and a nil error, per spec.md
// §7's "non-fatal, partial state returned". A trial step whose cost
// evaluates to NaN or Inf aborts that step, triples λ, and retries once;
// two such failures in a row stop the loop with Result.NotConverged set.
func Solve(ctx context.Context, s *scene.Scene, opt Options) (*Result, error) {
	opt = opt.withDefaults()
	pm := buildParamMap(s, opt)
	result := &Result{}
	if pm.size == 0 {
		result.Converged = true
		return result, nil
	}

	lambda := opt.InitialLambda
	eval := evaluate(s, pm, opt)
	cost := sumSquares(eval.residuals)
	result.FinalResidualNormSquared = cost

	nonFiniteStreak := 0
	for iter := 0; iter < opt.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			result.Iterations = iter
			result.Cancelled = true
			return result, nil
		}

		j := jacobianFrom(eval.duals, pm.size)
		delta, ok := solveStep(j, eval.residuals, lambda)
		result.Iterations = iter + 1
		if !ok {
			lambda = math.Min(lambda*opt.LambdaUp, opt.LambdaMax)
			continue
		}
		if !finiteVector(delta) {
			if !registerNonFiniteStep(&nonFiniteStreak, result, &lambda, opt) {
				break
			}
			continue
		}

		trial := s.Clone()
		applyDelta(trial, pm, delta)
		renormalizeQuaternions(trial, pm)

		trialEval := evaluate(trial, pm, opt)
		trialCost := sumSquares(trialEval.residuals)

		if math.IsNaN(trialCost) || math.IsInf(trialCost, 0) {
			if !registerNonFiniteStep(&nonFiniteStreak, result, &lambda, opt) {
				break
			}
			continue
		}
		nonFiniteStreak = 0

		if trialCost >= cost {
			lambda = math.Min(lambda*opt.LambdaUp, opt.LambdaMax)
			continue
		}

		deltaNorm := vectorNorm(delta)
		relChange := math.Abs(cost-trialCost) / math.Max(cost, 1e-30)

		*s = *trial
		eval = trialEval
		cost = trialCost
		result.FinalResidualNormSquared = cost
		lambda = math.Max(lambda*opt.LambdaDown, opt.LambdaMin)

		if deltaNorm < opt.DeltaTolerance || relChange < opt.RelativeCostTolerance {
			result.Converged = true
			break
		}
	}

	return result, nil
}

func vectorNorm(v []float64) float64 {
	return math.Sqrt(sumSquares(v))
}

func finiteVector(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// registerNonFiniteStep records one non-finite residual evaluation, triples
// lambda (capped at opt.LambdaMax) for the retry, and reports whether the
// loop should keep going. The second consecutive failure sets
// result.NotConverged and tells the caller to stop.
func registerNonFiniteStep(streak *int, result *Result, lambda *float64, opt Options) bool {
	*streak++
	if *streak >= 2 {
		result.NotConverged = true
		return false
	}
	*lambda = math.Min(*lambda*3, opt.LambdaMax)
	return true
}
