// Package linalg implements the small, dependency-free numerical kernels
// that the rest of the solver is built on: Gauss-Jordan elimination with
// partial pivoting for an arbitrary-size system, and a smallest-eigenvector
// extractor via shifted inverse power iteration.
//
// These two algorithms are kept hand-rolled (not delegated to gonum) because
// they are small, fixed-tolerance operations whose exact convergence
// behavior is directly testable; larger, n-dimensional linear solves
// elsewhere (nlsolve, the essential-matrix decomposition in poseinit) use
// gonum/mat instead.
package linalg

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingular is returned when a matrix cannot be inverted or solved because
// a pivot fell below the numerical tolerance. Callers check for it with
// errors.Is against a %w-wrapped return value.
var ErrSingular = errors.New("linalg: singular matrix")

// GaussJordan solves a*x = b for x using Gauss-Jordan elimination with
// partial pivoting. a is an n x n matrix (row-major, a[row][col]) and b has
// length n. a and b are not modified; the solve works on internal copies.
// Returns ErrSingular if any pivot has |pivot| < 1e-10.
func GaussJordan(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("linalg: GaussJordan called with empty system")
	}
	if len(b) != n {
		return nil, fmt.Errorf("linalg: GaussJordan dimension mismatch: %d rows, %d rhs entries", n, len(b))
	}

	// Build an augmented matrix [A | b] to avoid separately tracking
	// row operations on two structures.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(a[i]) != n {
			return nil, fmt.Errorf("linalg: GaussJordan row %d has length %d, want %d", i, len(a[i]), n)
		}
		row := make([]float64, n+1)
		copy(row, a[i])
		row[n] = b[i]
		aug[i] = row
	}

	for col := 0; col < n; col++ {
		// Partial pivot: find the row with the largest magnitude entry
		// in this column, at or below the diagonal.
		pivotRow := col
		best := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := math.Abs(aug[r][col]); v > best {
				best = v
				pivotRow = r
			}
		}
		if best < 1e-10 {
			return nil, ErrSingular
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		pivot := aug[col][col]
		for j := col; j <= n; j++ {
			aug[col][j] /= pivot
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = aug[i][n]
	}
	return x, nil
}

// Invert computes the inverse of the n x n matrix a by solving a*x = e_i for
// each standard basis vector e_i. Returns ErrSingular for a singular a.
func Invert(a [][]float64) ([][]float64, error) {
	n := len(a)
	inv := make([][]float64, n)
	for i := range inv {
		inv[i] = make([]float64, n)
	}
	for col := 0; col < n; col++ {
		e := make([]float64, n)
		e[col] = 1
		x, err := GaussJordan(a, e)
		if err != nil {
			return nil, err
		}
		for row := 0; row < n; row++ {
			inv[row][col] = x[row]
		}
	}
	return inv, nil
}

// SmallestEigenvector returns a unit eigenvector of a (an n x n symmetric,
// positive semi-definite matrix in the intended use, e.g. AᵀA) associated
// with the smallest eigenvalue, found via shifted inverse power iteration:
// repeatedly solve (a - shift*I) y = x, normalize y, and stop once
// ‖y_k - y_{k-1}‖ < 1e-10 or 100 iterations elapse.
//
// shift should be a small positive value (1e-6 here) to keep (a - shift*I)
// well away from singular while still biasing the iteration toward the
// smallest eigenvalue.
func SmallestEigenvector(a [][]float64) ([]float64, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("linalg: SmallestEigenvector called with empty matrix")
	}
	const shift = 1e-6
	shifted := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		copy(row, a[i])
		row[i] -= shift
		shifted[i] = row
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1.0 / math.Sqrt(float64(n))
	}

	const maxIters = 100
	for iter := 0; iter < maxIters; iter++ {
		y, err := GaussJordan(shifted, x)
		if err != nil {
			return nil, err
		}
		norm := vecNorm(y)
		if norm < 1e-10 {
			return nil, fmt.Errorf("linalg: SmallestEigenvector iteration collapsed to zero")
		}
		for i := range y {
			y[i] /= norm
		}
		diff := 0.0
		for i := range y {
			d := y[i] - x[i]
			diff += d * d
		}
		x = y
		if math.Sqrt(diff) < 1e-10 {
			break
		}
	}
	return x, nil
}

func vecNorm(v []float64) float64 {
	sum := 0.0
	for _, e := range v {
		sum += e * e
	}
	return math.Sqrt(sum)
}

// Mat4 is a 4x4 matrix used for homogeneous bookkeeping during frame
// alignment (rotation+translation+scale composed into one transform).
type Mat4 struct {
	M [4][4]float64
}

// IdentityMat4 returns the 4x4 identity matrix.
func IdentityMat4() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m.M[i][i] = 1
	}
	return m
}

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m.M[i][k] * n.M[k][j]
			}
			out.M[i][j] = sum
		}
	}
	return out
}

// Inverse computes the inverse of m via GaussJordan on its 4x4 rows.
func (m Mat4) Inverse() (Mat4, error) {
	rows := make([][]float64, 4)
	for i := 0; i < 4; i++ {
		row := make([]float64, 4)
		copy(row, m.M[i][:])
		rows[i] = row
	}
	inv, err := Invert(rows)
	if err != nil {
		return Mat4{}, err
	}
	var out Mat4
	for i := 0; i < 4; i++ {
		copy(out.M[i][:], inv[i])
	}
	return out, nil
}
