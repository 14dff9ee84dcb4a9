package residual

// behindCameraPenalty is the residual value assigned to both components of
// a reprojection pair when the point is behind (or on) the camera plane:
// large enough to dominate the residual norm and discourage the solver from
// settling there, per spec.md's "behind-camera samples contribute a large
// penalty". It carries no partials — the projection itself is undefined at
// cam_z<=0, so there is no meaningful gradient to hand back; diagnostic's
// cheirality audit is what actually flags and reports these cases.
const behindCameraPenalty = 1e6

const behindCameraEpsilon = 1e-9

func distort(x, y, k1, k2, k3, p1, p2 Dual) (xd, yd Dual) {
	r2 := x.Mul(x).Add(y.Mul(y))
	r4 := r2.Mul(r2)
	r6 := r4.Mul(r2)
	radial := Const(1).Add(k1.Mul(r2)).Add(k2.Mul(r4)).Add(k3.Mul(r6))
	dx := p1.Muls(2).Mul(x).Mul(y).Add(p2.Mul(r2.Add(x.Mul(x).Muls(2))))
	dy := p1.Mul(r2.Add(y.Mul(y).Muls(2))).Add(p2.Muls(2).Mul(x).Mul(y))
	xd = x.Mul(radial).Add(dx)
	yd = y.Mul(radial).Add(dy)
	return xd, yd
}

// Reprojection computes the two reprojection residuals (projected_u -
// observed_u, projected_v - observed_v) per spec.md §4.8: world point
// transformed into camera space by the inverse camera rotation, divided by
// camera-space Z, distorted, scaled by the focal length, and offset by the
// principal point, with the V axis inverted relative to camera Y. fx/fy are
// used instead of a single f, the same generalization geom.Project already
// makes for aspect-ratio support.
func Reprojection(cam CameraParams, point PointParams, obsU, obsV float64) (ru, rv Dual) {
	rel := point.XYZ.Sub(cam.Position)
	camSpace := cam.Rotation.RotateByInverse(rel)
	if camSpace.Z.Val <= behindCameraEpsilon {
		return Const(behindCameraPenalty), Const(behindCameraPenalty)
	}
	xIdeal := camSpace.X.Div(camSpace.Z)
	yIdeal := camSpace.Y.Div(camSpace.Z)
	xd, yd := distort(xIdeal, yIdeal, cam.K1, cam.K2, cam.K3, cam.P1, cam.P2)
	u := cam.Cx.Add(cam.Fx.Mul(xd))
	v := cam.Cy.Sub(cam.Fy.Mul(yd))
	return u.Adds(-obsU), v.Adds(-obsV)
}
