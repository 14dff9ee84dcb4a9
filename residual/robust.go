package residual

import "math"

// HuberWeight returns the IRLS weight for a residual vector of the given
// norm under a Huber loss with threshold delta: 1 inside the threshold,
// delta/norm beyond it (down-weighting outliers rather than discarding
// them).
//
// Supplemented from common bundle-adjustment practice: spec.md's own
// residual formulas (§4.8) never mention a robust loss; §9's option bag
// lists a bare robust_kernel: bool with no defined effect. This is the one
// place that gap is filled in.
func HuberWeight(residualNorm, delta float64) float64 {
	if delta <= 0 || residualNorm <= delta || residualNorm < 1e-12 {
		return 1
	}
	return delta / residualNorm
}

// ApplyRobustKernel scales a reprojection residual pair by sqrt(w), the
// standard IRLS reformulation of Huber loss as a reweighted least-squares
// problem (minimizing (sqrt(w)*r)^2 reproduces the Huber-weighted
// objective). w is computed from the pair's current value and held fixed
// for this call, exactly like a standard IRLS outer loop recomputing
// weights once per solver iteration; the existing partials scale by the
// same constant, so no new derivative terms are needed.
func ApplyRobustKernel(ru, rv Dual, delta float64) (Dual, Dual) {
	norm := math.Hypot(ru.Val, rv.Val)
	w := HuberWeight(norm, delta)
	scale := math.Sqrt(w)
	return ru.Muls(scale), rv.Muls(scale)
}
