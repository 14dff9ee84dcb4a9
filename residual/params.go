package residual

import (
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// PointParams is a world point lifted into dual-number space: one Dual per
// axis, each either Var (free, backed by a packed-vector index) or Const
// (locked/inferred), built fresh by nlsolve every iteration from its
// current parameter vector.
type PointParams struct {
	XYZ Vec3
}

// NewPointParams builds a PointParams for a point currently at pos, using
// idxX/idxY/idxZ as the packed-vector index for each axis, or Locked if
// that axis is not a free parameter.
func NewPointParams(pos r3.Point, idxX, idxY, idxZ int) PointParams {
	return PointParams{XYZ: Vec3{
		X: ParamOrConst(pos.X, idxX),
		Y: ParamOrConst(pos.Y, idxY),
		Z: ParamOrConst(pos.Z, idxZ),
	}}
}

// CameraParams is a viewpoint's pose and intrinsics lifted into dual-number
// space, mirroring geom.Intrinsics' field layout for the intrinsic half and
// quat.Quat's for the extrinsic half.
type CameraParams struct {
	Rotation DualQuat
	Position Vec3
	Fx, Fy   Dual
	Cx, Cy   Dual
	K1, K2, K3 Dual
	P1, P2     Dual
}

// CameraParamIndex names the packed-vector index (or Locked) for every
// camera parameter nlsolve may choose to free.
type CameraParamIndex struct {
	QW, QX, QY, QZ int
	PX, PY, PZ     int
	Fx, Fy         int
	Cx, Cy         int
	K1, K2, K3     int
	P1, P2         int
}

// NewCameraParams builds a CameraParams for a camera currently at rot/pos
// with the given intrinsics, using idx to decide which components are free.
func NewCameraParams(rot quat.Quat, pos r3.Point, fx, fy float64, pp r2.Point, k1, k2, k3, p1, p2 float64, idx CameraParamIndex) CameraParams {
	return CameraParams{
		Rotation: DualQuat{
			W: ParamOrConst(rot.W, idx.QW),
			X: ParamOrConst(rot.X, idx.QX),
			Y: ParamOrConst(rot.Y, idx.QY),
			Z: ParamOrConst(rot.Z, idx.QZ),
		},
		Position: Vec3{
			X: ParamOrConst(pos.X, idx.PX),
			Y: ParamOrConst(pos.Y, idx.PY),
			Z: ParamOrConst(pos.Z, idx.PZ),
		},
		Fx: ParamOrConst(fx, idx.Fx),
		Fy: ParamOrConst(fy, idx.Fy),
		Cx: ParamOrConst(pp.X, idx.Cx),
		Cy: ParamOrConst(pp.Y, idx.Cy),
		K1: ParamOrConst(k1, idx.K1),
		K2: ParamOrConst(k2, idx.K2),
		K3: ParamOrConst(k3, idx.K3),
		P1: ParamOrConst(p1, idx.P1),
		P2: ParamOrConst(p2, idx.P2),
	}
}
