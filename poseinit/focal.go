// Package poseinit implements the closed-form camera pose solvers:
// focal length from two orthogonal vanishing points, rotation from
// vanishing points (with Y-derivation and roll correction), position from
// rotation plus anchored points, PnP, essential-matrix decomposition with
// cheirality selection, and the sign-combination search that resolves the
// VP-derived rotation's 4-way ambiguity.
package poseinit

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/r2"
)

// FocalFromOrthogonalVPs computes the focal length implied by two
// vanishing points known to correspond to orthogonal world directions:
//
//	f = sqrt(-((u1-cx)(u2-cx) + (v1-cy)(v2-cy)))
//
// Returns an error if the radicand is negative (the VPs are not consistent
// with an orthogonal pair under a real focal length). Callers additionally
// reject results outside (100, 2*imageWidth).
func FocalFromOrthogonalVPs(vp1, vp2 r2.Point, cx, cy float64) (float64, error) {
	radicand := -((vp1.X-cx)*(vp2.X-cx) + (vp1.Y-cy)*(vp2.Y-cy))
	if radicand < 0 {
		return 0, fmt.Errorf("poseinit: FocalFromOrthogonalVPs: negative radicand %g (vps not consistent with orthogonal pair)", radicand)
	}
	return math.Sqrt(radicand), nil
}

// ValidFocal reports whether f falls within the plausibility band used to
// reject focal estimates inconsistent with the image size.
func ValidFocal(f float64, imageWidth int) bool {
	return f > 100 && f < 2*float64(imageWidth)
}
