package nlsolve

import "gonum.org/v1/gonum/mat"

// solveStep solves (JᵀJ + λ·diag(JᵀJ))Δ = −Jᵀr for Δ, trying a Cholesky
// factorization first (the damped normal matrix is symmetric and, for any
// λ>0, positive-definite whenever JᵀJ is at least positive-semidefinite,
// which it always is) and falling back to a truncated-SVD pseudo-inverse
// solve when Cholesky fails — e.g. a parameter touched by zero residuals
// leaves its diagonal term exactly λ·0, which Cholesky can reject as not
// positive-definite at the numerical boundary. ok is false only when both
// fail, which happens solely when the damped system itself is degenerate
// (no free parameters at all, already excluded by the caller).
func solveStep(j *mat.Dense, r []float64, lambda float64) ([]float64, bool) {
	rows, cols := j.Dims()
	rVec := mat.NewVecDense(rows, r)

	var jtj mat.Dense
	jtj.Mul(j.T(), j)

	var jtr mat.VecDense
	jtr.MulVec(j.T(), rVec)

	damped := mat.NewDense(cols, cols, nil)
	damped.Copy(&jtj)
	for i := 0; i < cols; i++ {
		damped.Set(i, i, jtj.At(i, i)*(1+lambda))
	}

	negJtr := mat.NewVecDense(cols, nil)
	negJtr.ScaleVec(-1, &jtr)

	var chol mat.Cholesky
	if chol.Factorize(symmetrize(damped, cols)) {
		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, negJtr); err == nil {
			return append([]float64(nil), delta.RawVector().Data...), true
		}
	}

	return solveSVD(damped, negJtr, cols)
}

func symmetrize(d *mat.Dense, n int) *mat.SymDense {
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			data[i*n+k] = d.At(i, k)
		}
	}
	return mat.NewSymDense(n, data)
}

// solveSVD solves a·x = b via the truncated-SVD pseudo-inverse: singular
// values below epsRank are treated as zero, dropping the corresponding
// (unobservable) directions from the solution rather than dividing by a
// near-zero number.
func solveSVD(a *mat.Dense, b *mat.VecDense, n int) ([]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	var utb mat.VecDense
	utb.MulVec(u.T(), b)

	const epsRank = 1e-12
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if values[i] > epsRank {
			y.SetVec(i, utb.AtVec(i)/values[i])
		}
	}

	var x mat.VecDense
	x.MulVec(&v, y)
	return append([]float64(nil), x.RawVector().Data...), true
}
