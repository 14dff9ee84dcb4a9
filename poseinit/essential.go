package poseinit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// Correspondence is one point seen by both cameras in an essential-matrix
// solve, as normalized (undistorted) camera-space rays from each camera.
type Correspondence struct {
	Ray1, Ray2 r3.Vec
}

// EssentialResult is the recovered relative pose of camera 2 with respect
// to camera 1's frame: camera 1 is implicitly placed at the origin with
// identity rotation, and camera 2's rotation/position are expressed in
// that frame. Position has unit norm; absolute scale is fixed later by
// frame alignment.
type EssentialResult struct {
	Rotation2 quat.Quat
	Position2 r3.Point
}

const minEssentialCorrespondences = 7

// EstimateEssential recovers the relative pose between two cameras from
// >= 7 normalized-ray correspondences: build the 9-dimensional epipolar
// constraint system (one row per correspondence, ray1 (x) ray2 outer
// product flattened), extract E as the nullspace of that system via SVD,
// and decompose E into its four candidate (R, t) pairs. The pair that
// places a representative triangulated point in front of both cameras is
// selected.
func EstimateEssential(corrs []Correspondence) (EssentialResult, error) {
	if len(corrs) < minEssentialCorrespondences {
		return EssentialResult{}, fmt.Errorf("poseinit: EstimateEssential: need >= %d correspondences, got %d", minEssentialCorrespondences, len(corrs))
	}

	a := mat.NewDense(len(corrs), 9, nil)
	for i, c := range corrs {
		x1, y1, z1 := c.Ray1.X, c.Ray1.Y, c.Ray1.Z
		x2, y2, z2 := c.Ray2.X, c.Ray2.Y, c.Ray2.Z
		a.SetRow(i, []float64{
			x2 * x1, x2 * y1, x2 * z1,
			y2 * x1, y2 * y1, y2 * z1,
			z2 * x1, z2 * y1, z2 * z1,
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return EssentialResult{}, fmt.Errorf("poseinit: EstimateEssential: SVD factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	// The nullspace vector is the column of V corresponding to the
	// smallest singular value, i.e. the last column for a full SVD with
	// singular values in descending order.
	_, cols := v.Dims()
	eVec := mat.Col(nil, cols-1, &v)

	e := r3.Mat3x3{M: [3][3]float64{
		{eVec[0], eVec[1], eVec[2]},
		{eVec[3], eVec[4], eVec[5]},
		{eVec[6], eVec[7], eVec[8]},
	}}

	candidates, err := decomposeEssential(e)
	if err != nil {
		return EssentialResult{}, fmt.Errorf("poseinit: EstimateEssential: %w", err)
	}

	rep := corrs[0]
	identity := quat.Identity()
	for _, cand := range candidates {
		tri := geom.Triangulate(r3.Point{}, cand.Position2, rep.Ray1, cand.Rotation2.RotateUnit(rep.Ray2), 1.0)
		if geom.PointInFront(r3.Point{}, identity, tri.Point) && geom.PointInFront(cand.Position2, cand.Rotation2, tri.Point) {
			return cand, nil
		}
	}
	return EssentialResult{}, fmt.Errorf("poseinit: EstimateEssential: no candidate decomposition places the representative point in front of both cameras")
}

// decomposeEssential extracts the four candidate (R, t) pairs from
// essential matrix e via SVD: E = U diag(1,1,0) Vᵀ, and the two rotation
// choices R = U W Vᵀ or U Wᵀ Vᵀ (W the 90-degree-about-Z permutation),
// combined with the two translation choices t = +-(third column of U).
func decomposeEssential(e r3.Mat3x3) ([]EssentialResult, error) {
	rows := [][]float64{
		{e.M[0][0], e.M[0][1], e.M[0][2]},
		{e.M[1][0], e.M[1][1], e.M[1][2]},
		{e.M[2][0], e.M[2][1], e.M[2][2]},
	}
	flat := make([]float64, 9)
	for i := 0; i < 3; i++ {
		copy(flat[i*3:i*3+3], rows[i])
	}
	dense := mat.NewDense(3, 3, flat)

	var svd mat.SVD
	if ok := svd.Factorize(dense, mat.SVDFull); !ok {
		return nil, fmt.Errorf("SVD factorization of essential matrix failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	toMat3 := func(d *mat.Dense) r3.Mat3x3 {
		var m r3.Mat3x3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m.M[i][j] = d.At(i, j)
			}
		}
		return m
	}
	uM := toMat3(&u)
	vM := toMat3(&v)

	// Ensure det(U) and det(V) are +1; SVD can return either sign.
	if uM.Det() < 0 {
		for i := 0; i < 3; i++ {
			uM.M[i][2] = -uM.M[i][2]
		}
	}
	if vM.Det() < 0 {
		for i := 0; i < 3; i++ {
			vM.M[i][2] = -vM.M[i][2]
		}
	}

	w := r3.Mat3x3{M: [3][3]float64{
		{0, -1, 0},
		{1, 0, 0},
		{0, 0, 1},
	}}
	wt := w.Transpose()
	vT := vM.Transpose()

	r1 := uM.Mul(w).Mul(vT)
	r2 := uM.Mul(wt).Mul(vT)
	t := uM.Col(2)

	// r is the world(=camera1)-to-camera2 rotation; t is defined up to
	// sign and scale as the camera1-to-camera2 translation expressed in
	// camera2's frame. Converted to this repository's world-from-camera
	// convention: camToWorld2 = rᵀ, and the camera center in world space
	// is C2 = -rᵀ * t.
	var results []EssentialResult
	for _, r := range []r3.Mat3x3{r1, r2} {
		if math.Abs(r.Det()-1) > 0.3 {
			continue
		}
		camToWorld2 := r.Transpose()
		for _, sign := range []float64{1, -1} {
			tSigned := t.Muls(sign)
			c2 := camToWorld2.MulVec(tSigned).Muls(-1)
			results = append(results, EssentialResult{
				Rotation2: quat.FromRotationMatrix(camToWorld2),
				Position2: r3.Point{X: c2.X, Y: c2.Y, Z: c2.Z},
			})
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no valid rotation candidate (det(R) far from +1)")
	}
	return results, nil
}
