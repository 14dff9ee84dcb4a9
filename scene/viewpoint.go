package scene

import (
	"github.com/scottlawsonbc/reconstruct/geom"
	"github.com/scottlawsonbc/reconstruct/quat"
	"github.com/scottlawsonbc/reconstruct/r2"
	"github.com/scottlawsonbc/reconstruct/r3"
)

// ImagePoint is a single 2D pixel observation of a world point within one
// Viewpoint. A (viewpoint, world-point) pair has at most one ImagePoint
// within that viewpoint.
type ImagePoint struct {
	ID         ImagePointID
	WorldPoint PointID
	U, V       float64
	Visible    bool
	Confidence float64 // in [0, 1]
}

// VanishingLine is a user-drawn pixel-space line segment tagged with the
// world axis it is believed to be parallel to.
type VanishingLine struct {
	P1, P2 r2.Point
	Axis   Axis
}

// Viewpoint is a single photograph: its pixel geometry (intrinsics),
// lens-distortion coefficients, pose (extrinsics), and the 2D observations
// and vanishing-line hints collected against it.
type Viewpoint struct {
	ID     ViewpointID
	Name   string
	Width  int
	Height int

	// Intrinsics. Aspect ratio is Fy/Fx; most solvers here assume Fx==Fy
	// unless AspectRatio is explicitly applied.
	FocalLength    float64
	AspectRatio    float64 // 1.0 if unset/unused
	PrincipalPoint r2.Point
	Skew           float64
	K1, K2, K3     float64
	P1, P2         float64

	// Extrinsics.
	Rotation quat.Quat // world-from-camera orientation
	Position r3.Point  // camera center in world space

	ImagePoints    []ImagePoint
	VanishingLines []VanishingLine

	// Initialized is set once any initialization strategy (strategy,
	// orchestrate) has produced a pose for this viewpoint.
	Initialized bool
}

// Intrinsics converts the viewpoint's intrinsic fields into the geom
// package's minimal Intrinsics type used by ray/projection math.
func (v Viewpoint) Intrinsics() geom.Intrinsics {
	fy := v.FocalLength
	if v.AspectRatio != 0 {
		fy = v.FocalLength * v.AspectRatio
	}
	return geom.Intrinsics{
		Fx: v.FocalLength, Fy: fy,
		Cx: v.PrincipalPoint.X, Cy: v.PrincipalPoint.Y,
		Skew: v.Skew,
		K1:   v.K1, K2: v.K2, K3: v.K3,
		P1: v.P1, P2: v.P2,
	}
}

// ImagePointFor returns the ImagePoint observing worldPoint in this
// viewpoint, if one exists.
func (v Viewpoint) ImagePointFor(worldPoint PointID) (ImagePoint, bool) {
	for _, ip := range v.ImagePoints {
		if ip.WorldPoint == worldPoint && ip.Visible {
			return ip, true
		}
	}
	return ImagePoint{}, false
}

// CameraState is a snapshot of everything a strategy evaluator may mutate
// for a single camera: rotation, position, focal length, and principal
// point. It is a plain
// value, so capturing and restoring it is a cheap copy.
type CameraState struct {
	Rotation       quat.Quat
	Position       r3.Point
	FocalLength    float64
	PrincipalPoint r2.Point
}

// Snapshot captures the camera state that strategy evaluators mutate.
func (v Viewpoint) Snapshot() CameraState {
	return CameraState{
		Rotation:       v.Rotation,
		Position:       v.Position,
		FocalLength:    v.FocalLength,
		PrincipalPoint: v.PrincipalPoint,
	}
}

// Restore applies a previously captured CameraState back onto the
// viewpoint.
func (v *Viewpoint) Restore(s CameraState) {
	v.Rotation = s.Rotation
	v.Position = s.Position
	v.FocalLength = s.FocalLength
	v.PrincipalPoint = s.PrincipalPoint
}

// Clone returns a deep copy of v suitable for snapshot/rollback of the
// whole viewpoint (used when an orchestration tier reverts a camera that
// was never fully committed).
func (v Viewpoint) Clone() Viewpoint {
	clone := v
	clone.ImagePoints = append([]ImagePoint(nil), v.ImagePoints...)
	clone.VanishingLines = append([]VanishingLine(nil), v.VanishingLines...)
	return clone
}
