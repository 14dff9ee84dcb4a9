package poseinit

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/linalg"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// Anchor pairs a known world point with its pixel observation in the
// camera being positioned.
type Anchor struct {
	World r3.Point
	U, V  float64
}

// skew returns the skew-symmetric cross-product matrix [v]_x such that
// [v]_x * w == v.Cross(w).
func skew(v r3.Vec) r3.Mat3x3 {
	return r3.Mat3x3{M: [3][3]float64{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}}
}

// PositionFromAnchors solves for the camera center C given a known
// rotation and >= 2 world points anchored and observed by this camera.
// Each anchor's back-projected ray must pass through its world point:
// [d]_x * (P - C) = 0, i.e. [d]_x * C = [d]_x * P, where d is the ray's
// world-space direction. Stacking these into normal equations AᵀA C = Aᵀb
// and solving the 3x3 system gives the least-squares camera center.
// Returns an error if fewer than 2 anchors are given or det(AᵀA) < 1e-10.
func PositionFromAnchors(rot quat.Quat, ci geom.Intrinsics, anchors []Anchor) (r3.Point, error) {
	if len(anchors) < 2 {
		return r3.Point{}, fmt.Errorf("poseinit: PositionFromAnchors: need >= 2 anchors, got %d", len(anchors))
	}
	var ata r3.Mat3x3
	var atb r3.Vec
	for _, a := range anchors {
		dirCam := geom.CameraRay(a.U, a.V, ci)
		d := rot.RotateUnit(dirCam)
		s := skew(d)
		st := s.Transpose()
		sts := st.Mul(s)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				ata.M[i][j] += sts.M[i][j]
			}
		}
		rhs := s.MulVec(a.World.Vec())
		contrib := st.MulVec(rhs)
		atb = atb.Add(contrib)
	}
	rows := [][]float64{
		{ata.M[0][0], ata.M[0][1], ata.M[0][2]},
		{ata.M[1][0], ata.M[1][1], ata.M[1][2]},
		{ata.M[2][0], ata.M[2][1], ata.M[2][2]},
	}
	if det := ata.Det(); det < 1e-10 {
		return r3.Point{}, fmt.Errorf("poseinit: PositionFromAnchors: det(AᵀA)=%g: %w", det, linalg.ErrSingular)
	}
	x, err := linalg.GaussJordan(rows, []float64{atb.X, atb.Y, atb.Z})
	if err != nil {
		return r3.Point{}, fmt.Errorf("poseinit: PositionFromAnchors: %w", err)
	}
	return r3.Point{X: x[0], Y: x[1], Z: x[2]}, nil
}
