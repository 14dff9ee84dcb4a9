package poseinit

import (
	"fmt"
	"math"

	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// evenParityFlips enumerates the 4-element even-parity axis-flip subgroup:
// no flip, and flipping any pair of rows of the world-from-camera
// rotation (equivalently, any pair of camera-space axis
// directions). Flipping two of three orthonormal rows keeps the matrix a
// proper rotation (det stays +1); flipping one or all three would produce
// a reflection and must never be enumerated.
var evenParityFlips = [][2]int{
	{-1, -1}, // identity, no flip
	{0, 1},
	{0, 2},
	{1, 2},
}

func applyFlip(rot quat.Quat, flip [2]int) quat.Quat {
	if flip[0] < 0 {
		return rot
	}
	m := rot.ToRotationMatrix()
	// m is camera-to-world; its columns, transposed into world-to-camera
	// form, are the camera-space directions of the world axes (see
	// RotationFromVPs.assembleRotation). Flipping a pair of those
	// directions is flipping the corresponding pair of columns of the
	// world-to-camera matrix.
	wc := m.Transpose()
	for k := 0; k < 3; k++ {
		wc.M[k][flip[0]] = -wc.M[k][flip[0]]
		wc.M[k][flip[1]] = -wc.M[k][flip[1]]
	}
	return quat.FromRotationMatrix(wc.Transpose())
}

// SignSearchResult is the winning candidate from SearchSigns plus its
// quality metrics.
type SignSearchResult struct {
	Rotation        quat.Quat
	Position        r3.Point
	InFrontCount    int
	MeanReprojError float64
}

// SearchSigns explores the rotational ambiguity left by RotationFromVPs:
// for each base candidate rotation and each of the 4 even-parity axis
// flips, solves for camera position from anchors and scores the result by
// points-in-front count (weight 1e6, primary) minus total reprojection
// error (secondary). The highest-scoring combination wins. Returns an
// error if no combination yields a position solve, or if the winning
// combination's mean reprojection error exceeds 50 pixels (VP/pixel
// inconsistency; the caller may fall back to PnP).
func SearchSigns(baseRotations []quat.Quat, ci geom.Intrinsics, anchors []Anchor) (SignSearchResult, error) {
	if len(anchors) < 2 {
		return SignSearchResult{}, fmt.Errorf("poseinit: SearchSigns: need >= 2 anchors, got %d", len(anchors))
	}
	var best SignSearchResult
	bestScore := math.Inf(-1)
	found := false

	for _, base := range baseRotations {
		for _, flip := range evenParityFlips {
			candidate := applyFlip(base, flip)
			pos, err := PositionFromAnchors(candidate, ci, anchors)
			if err != nil {
				continue
			}
			inFront := 0
			reprojSum := 0.0
			for _, a := range anchors {
				if geom.PointInFront(pos, candidate, a.World) {
					inFront++
				}
				proj, err := geom.Project(pos, candidate, a.World, ci)
				if err != nil {
					continue
				}
				du := proj.U - a.U
				dv := proj.V - a.V
				reprojSum += math.Hypot(du, dv)
			}
			score := 1e6*float64(inFront) - reprojSum
			if !found || score > bestScore {
				found = true
				bestScore = score
				best = SignSearchResult{
					Rotation:        candidate,
					Position:        pos,
					InFrontCount:    inFront,
					MeanReprojError: reprojSum / float64(len(anchors)),
				}
			}
		}
	}
	if !found {
		return SignSearchResult{}, fmt.Errorf("poseinit: SearchSigns: no candidate produced a valid position solve")
	}
	if best.MeanReprojError > 50 {
		return best, fmt.Errorf("poseinit: SearchSigns: best mean reprojection error %.2fpx exceeds 50px threshold", best.MeanReprojError)
	}
	return best, nil
}
