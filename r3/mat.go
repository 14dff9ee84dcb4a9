package r3

import (
	"fmt"
	"math"
)

// Mat3x3 represents a 3x3 matrix.
type Mat3x3 struct {
	M [3][3]float64
}

// IdentityMat3x3 returns an identity matrix.
func IdentityMat3x3() Mat3x3 {
	return Mat3x3{
		M: [3][3]float64{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	}
}

// MulVec multiplies the matrix by a vector.
func (m Mat3x3) MulVec(v Vec) Vec {
	return Vec{
		X: m.M[0][0]*v.X + m.M[0][1]*v.Y + m.M[0][2]*v.Z,
		Y: m.M[1][0]*v.X + m.M[1][1]*v.Y + m.M[1][2]*v.Z,
		Z: m.M[2][0]*v.X + m.M[2][1]*v.Y + m.M[2][2]*v.Z,
	}
}

// Multiply multiplies the current matrix with another Mat3x3.
func (m Mat3x3) Mul(n Mat3x3) Mat3x3 {
	var result Mat3x3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += m.M[i][k] * n.M[k][j]
			}
			result.M[i][j] = sum
		}
	}
	return result
}

// Transpose returns the transpose of the matrix.
func (m Mat3x3) Transpose() Mat3x3 {
	return Mat3x3{
		M: [3][3]float64{
			{m.M[0][0], m.M[1][0], m.M[2][0]},
			{m.M[0][1], m.M[1][1], m.M[2][1]},
			{m.M[0][2], m.M[1][2], m.M[2][2]},
		},
	}
}

// Rotation matrices around X, Y, and Z axes.
func RotationMatrixX(angle float64) Mat3x3 {
	c := math.Cos(angle)
	s := math.Sin(angle)
	return Mat3x3{
		M: [3][3]float64{
			{1, 0, 0},
			{0, c, -s},
			{0, s, c},
		},
	}
}

func RotationMatrixY(angle float64) Mat3x3 {
	c := math.Cos(angle)
	s := math.Sin(angle)
	return Mat3x3{
		M: [3][3]float64{
			{c, 0, s},
			{0, 1, 0},
			{-s, 0, c},
		},
	}
}

// RotationMatrixZ returns the rotation matrix about the Z axis for the radian argument angle.
func RotationMatrixZ(angle float64) Mat3x3 {
	c := math.Cos(angle)
	s := math.Sin(angle)
	return Mat3x3{
		M: [3][3]float64{
			{c, -s, 0},
			{s, c, 0},
			{0, 0, 1},
		},
	}
}

// Trace returns the sum of the diagonal elements.
func (m Mat3x3) Trace() float64 {
	return m.M[0][0] + m.M[1][1] + m.M[2][2]
}

// Det returns the determinant computed by cofactor expansion along the first row.
func (m Mat3x3) Det() float64 {
	return m.M[0][0]*(m.M[1][1]*m.M[2][2]-m.M[1][2]*m.M[2][1]) -
		m.M[0][1]*(m.M[1][0]*m.M[2][2]-m.M[1][2]*m.M[2][0]) +
		m.M[0][2]*(m.M[1][0]*m.M[2][1]-m.M[1][1]*m.M[2][0])
}

// Inverse returns the adjugate-based inverse of the matrix.
// It returns an error if the matrix is singular (|det| < 1e-10).
func (m Mat3x3) Inverse() (Mat3x3, error) {
	det := m.Det()
	if math.Abs(det) < 1e-10 {
		return Mat3x3{}, fmt.Errorf("r3: Mat3x3 is singular: det=%g", det)
	}
	invDet := 1.0 / det
	adj := Mat3x3{M: [3][3]float64{
		{
			m.M[1][1]*m.M[2][2] - m.M[1][2]*m.M[2][1],
			m.M[0][2]*m.M[2][1] - m.M[0][1]*m.M[2][2],
			m.M[0][1]*m.M[1][2] - m.M[0][2]*m.M[1][1],
		},
		{
			m.M[1][2]*m.M[2][0] - m.M[1][0]*m.M[2][2],
			m.M[0][0]*m.M[2][2] - m.M[0][2]*m.M[2][0],
			m.M[0][2]*m.M[1][0] - m.M[0][0]*m.M[1][2],
		},
		{
			m.M[1][0]*m.M[2][1] - m.M[1][1]*m.M[2][0],
			m.M[0][1]*m.M[2][0] - m.M[0][0]*m.M[2][1],
			m.M[0][0]*m.M[1][1] - m.M[0][1]*m.M[1][0],
		},
	}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			adj.M[i][j] *= invDet
		}
	}
	return adj, nil
}

// Col returns the i-th column (0=X, 1=Y, 2=Z) as a Vec.
func (m Mat3x3) Col(i int) Vec {
	return Vec{X: m.M[0][i], Y: m.M[1][i], Z: m.M[2][i]}
}

// Row returns the i-th row (0=X, 1=Y, 2=Z) as a Vec.
func (m Mat3x3) Row(i int) Vec {
	return Vec{X: m.M[i][0], Y: m.M[i][1], Z: m.M[i][2]}
}

// MatFromCols assembles a matrix from three column vectors.
func MatFromCols(c0, c1, c2 Vec) Mat3x3 {
	return Mat3x3{M: [3][3]float64{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}}
}
