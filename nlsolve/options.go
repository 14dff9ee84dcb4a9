package nlsolve

import "github.com/scottlawsonbc/reconstruct/scene"

// Options configures the Levenberg-Marquardt solve. A zero-value field is
// replaced by DefaultOptions' value in withDefaults, so a caller need only
// set the fields they care about.
type Options struct {
	MaxIterations         int
	DeltaTolerance        float64
	RelativeCostTolerance float64
	InitialLambda         float64
	LambdaDown            float64
	LambdaUp              float64
	LambdaMin             float64
	LambdaMax             float64

	// OptimizeIntrinsics frees each optimized camera's focal length,
	// principal point, and distortion coefficients alongside its pose.
	OptimizeIntrinsics bool

	// RobustKernel applies a Huber/IRLS reweighting to every reprojection
	// residual pair; see package residual's robust.go.
	RobustKernel bool
	HuberDelta   float64

	// LockedCameras excludes specific initialized cameras from the free
	// parameter set even though they already carry a pose.
	LockedCameras map[scene.ViewpointID]bool
}

// DefaultOptions returns spec.md §4.9's literal defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations:         200,
		DeltaTolerance:        1e-10,
		RelativeCostTolerance: 1e-12,
		InitialLambda:         1e-3,
		LambdaDown:            0.5,
		LambdaUp:              2,
		LambdaMin:             1e-8,
		LambdaMax:             1e8,
		HuberDelta:            1.0,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIterations == 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.DeltaTolerance == 0 {
		o.DeltaTolerance = d.DeltaTolerance
	}
	if o.RelativeCostTolerance == 0 {
		o.RelativeCostTolerance = d.RelativeCostTolerance
	}
	if o.InitialLambda == 0 {
		o.InitialLambda = d.InitialLambda
	}
	if o.LambdaDown == 0 {
		o.LambdaDown = d.LambdaDown
	}
	if o.LambdaUp == 0 {
		o.LambdaUp = d.LambdaUp
	}
	if o.LambdaMin == 0 {
		o.LambdaMin = d.LambdaMin
	}
	if o.LambdaMax == 0 {
		o.LambdaMax = d.LambdaMax
	}
	if o.HuberDelta == 0 {
		o.HuberDelta = d.HuberDelta
	}
	return o
}
