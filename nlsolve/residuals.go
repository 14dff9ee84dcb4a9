package nlsolve

import (
	"gonum.org/v1/gonum/mat"

	"github.com/scottlawsonbc/reconstruct/residual"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// evalResult is the stacked residual vector alongside the per-residual
// Dual that produced each entry, carrying the sparse partials the
// Jacobian is assembled from.
type evalResult struct {
	residuals []float64
	duals     []residual.Dual
}

// evaluate builds every constraint residual and every visible reprojection
// residual against the scene's current state, in deterministic order.
func evaluate(s *scene.Scene, pm *paramMap, opt Options) evalResult {
	var duals []residual.Dual

	pointLookup := func(id scene.PointID) residual.PointParams {
		return pm.pointParams(s.WorldPoints[id], id)
	}
	lineLookup := func(id scene.LineID) (a, b residual.PointParams) {
		l := s.Lines[id]
		return pointLookup(l.PointA), pointLookup(l.PointB)
	}

	for _, id := range sortedConstraintIDs(s) {
		duals = append(duals, residual.BuildFor(s.Constraints[id], pointLookup, lineLookup)...)
	}

	for _, vid := range sortedViewpointIDs(s) {
		v := s.Viewpoints[vid]
		if !v.Initialized {
			continue
		}
		cam := pm.cameraParams(v, vid)
		for _, ip := range v.ImagePoints {
			if !ip.Visible {
				continue
			}
			ru, rv := residual.Reprojection(cam, pointLookup(ip.WorldPoint), ip.U, ip.V)
			if opt.RobustKernel {
				ru, rv = residual.ApplyRobustKernel(ru, rv, opt.HuberDelta)
			}
			duals = append(duals, ru, rv)
		}
	}

	out := evalResult{residuals: make([]float64, len(duals)), duals: duals}
	for i, d := range duals {
		out.residuals[i] = d.Val
	}
	return out
}

// jacobianFrom assembles the dense Jacobian (one row per residual, one
// column per packed parameter) from each residual's sparse partials.
func jacobianFrom(duals []residual.Dual, nParams int) *mat.Dense {
	j := mat.NewDense(len(duals), nParams, nil)
	for row, d := range duals {
		for idx, partial := range d.Partials {
			j.Set(row, idx, partial)
		}
	}
	return j
}

func sumSquares(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return sum
}
