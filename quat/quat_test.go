package quat_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

func TestMultiplyConjugateIsIdentity(t *testing.T) {
	// For any unit quaternion q, q*conj(q) == (1,0,0,0) within 1e-12.
	qs := []quat.Quat{
		quat.Identity(),
		quat.New(0.7071067811865476, 0.7071067811865476, 0, 0).Unit(),
		quat.New(0.5, 0.5, 0.5, 0.5).Unit(),
		quat.New(0.1, 0.2, 0.3, 0.9).Unit(),
	}
	for _, q := range qs {
		got := q.Multiply(q.Conjugate())
		assert.InDelta(t, 1.0, got.W, 1e-12)
		assert.InDelta(t, 0.0, got.X, 1e-12)
		assert.InDelta(t, 0.0, got.Y, 1e-12)
		assert.InDelta(t, 0.0, got.Z, 1e-12)
	}
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	q := quat.New(0.2, 0.4, -0.3, 0.8).Unit()
	m := q.ToRotationMatrix()
	q2 := quat.FromRotationMatrix(m)
	// q and q2 may differ by an overall sign (double cover); compare
	// rotation matrices instead.
	m2 := q2.ToRotationMatrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, m.M[i][j], m2.M[i][j], 1e-9)
		}
	}
}

func TestRotateUnitMatchesGeneralRotate(t *testing.T) {
	q := quat.New(0.3, 0.1, 0.2, 0.4).Unit()
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	a := q.Rotate(v)
	b := q.RotateUnit(v)
	assert.InDelta(t, a.X, b.X, 1e-9)
	assert.InDelta(t, a.Y, b.Y, 1e-9)
	assert.InDelta(t, a.Z, b.Z, 1e-9)
}

func TestRotateIdentityIsNoop(t *testing.T) {
	v := r3.Vec{X: 1, Y: -2, Z: 3.5}
	got := quat.Identity().RotateUnit(v)
	assert.InDelta(t, v.X, got.X, 1e-12)
	assert.InDelta(t, v.Y, got.Y, 1e-12)
	assert.InDelta(t, v.Z, got.Z, 1e-12)
}

func TestInverseOfZeroErrors(t *testing.T) {
	_, err := quat.Quat{}.Inverse()
	require.Error(t, err)
}

func TestEulerZYXIdentity(t *testing.T) {
	yaw, pitch, roll := quat.Identity().EulerZYX()
	assert.InDelta(t, 0.0, yaw, 1e-12)
	assert.InDelta(t, 0.0, pitch, 1e-12)
	assert.InDelta(t, 0.0, roll, 1e-12)
}

func TestFromRotationMatrixIdentity(t *testing.T) {
	q := quat.FromRotationMatrix(r3.IdentityMat3x3())
	assert.InDelta(t, 1.0, math.Abs(q.W), 1e-9)
}
