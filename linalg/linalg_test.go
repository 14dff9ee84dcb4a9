package linalg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct/linalg"
)

func TestGaussJordanSolves3x3(t *testing.T) {
	a := [][]float64{
		{2, 1, -1},
		{-3, -1, 2},
		{-2, 1, 2},
	}
	b := []float64{8, -11, -3}
	x, err := linalg.GaussJordan(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x[0], 1e-9)
	assert.InDelta(t, 3.0, x[1], 1e-9)
	assert.InDelta(t, -1.0, x[2], 1e-9)
}

func TestGaussJordanSingular(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	b := []float64{1, 2}
	_, err := linalg.GaussJordan(a, b)
	require.ErrorIs(t, err, linalg.ErrSingular)
}

func TestInvertRoundTrip(t *testing.T) {
	a := [][]float64{
		{4, 7},
		{2, 6},
	}
	inv, err := linalg.Invert(a)
	require.NoError(t, err)
	// a * inv should be the identity.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum := 0.0
			for k := 0; k < 2; k++ {
				sum += a[i][k] * inv[k][j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, sum, 1e-9)
		}
	}
}

func TestSmallestEigenvectorOfDiagonal(t *testing.T) {
	// For a diagonal matrix the smallest eigenvalue's eigenvector is the
	// standard basis vector for the smallest diagonal entry.
	a := [][]float64{
		{5, 0, 0},
		{0, 1, 0},
		{0, 0, 9},
	}
	v, err := linalg.SmallestEigenvector(a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v[1]*v[1], 1e-6)
	assert.InDelta(t, 0.0, v[0], 1e-3)
	assert.InDelta(t, 0.0, v[2], 1e-3)
}

func TestMat4InverseIdentity(t *testing.T) {
	inv, err := linalg.IdentityMat4().Inverse()
	require.NoError(t, err)
	assert.Equal(t, linalg.IdentityMat4(), inv)
}
