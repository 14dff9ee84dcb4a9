package poseinit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// PnPResult is the outcome of SolvePnP.
type PnPResult struct {
	Rotation        quat.Quat
	Position        r3.Point
	Success         bool
	Reliable        bool
	MeanReprojError float64
}

const (
	pnpMaxIterations  = 20
	pnpConvergedDelta = 1e-9
	pnpReliablePixels = 5.0
	pnpFDStep         = 1e-6
)

// SolvePnP recovers camera pose from >= 3 fully-constrained world points
// observed in the camera, by iterative refinement of a least-squares
// linearization: starting from an identity-rotation guess (or seed, if
// given) and the position that guess implies via PositionFromAnchors,
// each iteration linearizes reprojection error in a 6-parameter tangent
// space (rotation perturbation + position delta), solves the resulting
// linear least-squares system with a QR factorization, and applies the
// update. Reliable requires bounded mean reprojection error and every
// anchor in front of the camera.
func SolvePnP(ci geom.Intrinsics, anchors []Anchor, seed *quat.Quat) (PnPResult, error) {
	if len(anchors) < 3 {
		return PnPResult{}, fmt.Errorf("poseinit: SolvePnP: need >= 3 anchors, got %d", len(anchors))
	}
	rot := quat.Identity()
	if seed != nil {
		rot = seed.Unit()
	}
	pos, err := PositionFromAnchors(rot, ci, anchors)
	if err != nil {
		return PnPResult{}, fmt.Errorf("poseinit: SolvePnP: initial linearization failed: %w", err)
	}

	n := len(anchors)
	for iter := 0; iter < pnpMaxIterations; iter++ {
		residual := pnpResiduals(rot, pos, ci, anchors)
		jac := pnpJacobian(rot, pos, ci, anchors)

		jDense := mat.NewDense(2*n, 6, jac)
		rDense := mat.NewVecDense(2*n, residual)

		var qr mat.QR
		qr.Factorize(jDense)
		var delta mat.VecDense
		if err := qr.SolveVecTo(&delta, false, rDense); err != nil {
			break
		}

		w := r3.Vec{X: -delta.AtVec(0), Y: -delta.AtVec(1), Z: -delta.AtVec(2)}
		dPos := r3.Vec{X: -delta.AtVec(3), Y: -delta.AtVec(4), Z: -delta.AtVec(5)}

		dq := quat.New(1, w.X/2, w.Y/2, w.Z/2).Unit()
		rot = dq.Multiply(rot).Unit()
		pos = pos.Add(dPos)

		norm := math.Sqrt(delta.AtVec(0)*delta.AtVec(0) + delta.AtVec(1)*delta.AtVec(1) + delta.AtVec(2)*delta.AtVec(2) +
			delta.AtVec(3)*delta.AtVec(3) + delta.AtVec(4)*delta.AtVec(4) + delta.AtVec(5)*delta.AtVec(5))
		if norm < pnpConvergedDelta {
			break
		}
	}

	inFrontAll := true
	sumErr := 0.0
	for _, a := range anchors {
		if !geom.PointInFront(pos, rot, a.World) {
			inFrontAll = false
		}
		proj, err := geom.Project(pos, rot, a.World, ci)
		if err != nil {
			inFrontAll = false
			continue
		}
		sumErr += math.Hypot(proj.U-a.U, proj.V-a.V)
	}
	meanErr := sumErr / float64(n)

	return PnPResult{
		Rotation:        rot,
		Position:        pos,
		Success:         true,
		Reliable:        inFrontAll && meanErr <= pnpReliablePixels,
		MeanReprojError: meanErr,
	}, nil
}

// pnpResiduals returns the stacked (u_proj-u_obs, v_proj-v_obs) residual
// vector for the current pose estimate.
func pnpResiduals(rot quat.Quat, pos r3.Point, ci geom.Intrinsics, anchors []Anchor) []float64 {
	out := make([]float64, 2*len(anchors))
	for i, a := range anchors {
		proj, err := geom.Project(pos, rot, a.World, ci)
		if err != nil {
			continue
		}
		out[2*i] = proj.U - a.U
		out[2*i+1] = proj.V - a.V
	}
	return out
}

// pnpJacobian computes the 2N x 6 Jacobian of the residual vector with
// respect to (rotation-perturbation-x,y,z, position-x,y,z) by central
// finite differences around the current pose.
func pnpJacobian(rot quat.Quat, pos r3.Point, ci geom.Intrinsics, anchors []Anchor) []float64 {
	n := len(anchors)
	jac := make([]float64, 2*n*6)
	for p := 0; p < 6; p++ {
		plus := perturbResiduals(rot, pos, ci, anchors, p, pnpFDStep)
		minus := perturbResiduals(rot, pos, ci, anchors, p, -pnpFDStep)
		for row := 0; row < 2*n; row++ {
			jac[row*6+p] = (plus[row] - minus[row]) / (2 * pnpFDStep)
		}
	}
	return jac
}

func perturbResiduals(rot quat.Quat, pos r3.Point, ci geom.Intrinsics, anchors []Anchor, paramIdx int, h float64) []float64 {
	rotP, posP := rot, pos
	switch paramIdx {
	case 0, 1, 2:
		w := r3.Vec{}
		switch paramIdx {
		case 0:
			w.X = h
		case 1:
			w.Y = h
		case 2:
			w.Z = h
		}
		dq := quat.New(1, w.X/2, w.Y/2, w.Z/2).Unit()
		rotP = dq.Multiply(rot).Unit()
	case 3:
		posP.X += h
	case 4:
		posP.Y += h
	case 5:
		posP.Z += h
	}
	return pnpResiduals(rotP, posP, ci, anchors)
}
