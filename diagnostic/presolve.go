package diagnostic

import (
	"fmt"

	"github.com/scottlawsonbc/reconstruct/scene"
)

// PreSolveReport summarizes the scene's constrainedness before a solve is
// attempted.
type PreSolveReport struct {
	EnabledConstraints       int
	ReprojectionObservations int
	FreeParameterCount       int
	ConstraintResidualCount  int

	// DegreesOfFreedom is FreeParameterCount - ConstraintResidualCount,
	// counting only geometric constraints (not reprojection observations,
	// which supply the bulk of a typical scene's constrainedness but are
	// data, not user-declared constraints). Positive means the geometric
	// constraints alone leave free parameters undetermined; that is normal
	// whenever reprojection observations exist, so it is reported as a
	// warning only when there are none, and never as an error.
	DegreesOfFreedom int
	Warnings         []string
}

// CheckPreSolve runs spec.md §4.10's pre-solve validation: reject a scene
// with neither an enabled constraint nor a reprojection observation, and
// warn (without rejecting) when the geometric constraints alone leave the
// system over- or under-determined.
func CheckPreSolve(s *scene.Scene) (*PreSolveReport, error) {
	report := &PreSolveReport{}

	for _, c := range s.Constraints {
		if !c.Enabled {
			continue
		}
		report.EnabledConstraints++
		report.ConstraintResidualCount += constraintResidualCount(c)
	}

	for _, v := range s.Viewpoints {
		for _, ip := range v.ImagePoints {
			if ip.Visible {
				report.ReprojectionObservations++
			}
		}
	}

	if report.EnabledConstraints == 0 && report.ReprojectionObservations == 0 {
		return report, fmt.Errorf("diagnostic: CheckPreSolve: %w", ErrInsufficientConstraints)
	}

	unlockedPoints := 0
	for _, p := range s.WorldPoints {
		if !p.FullyConstrained() {
			unlockedPoints++
		}
	}
	optimizedCameras := 0
	for _, v := range s.Viewpoints {
		if v.Initialized {
			optimizedCameras++
		}
	}
	report.FreeParameterCount = 3*unlockedPoints + 7*optimizedCameras
	report.DegreesOfFreedom = report.FreeParameterCount - report.ConstraintResidualCount

	if report.DegreesOfFreedom > 0 && report.ReprojectionObservations == 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"scene is underdetermined by its %d geometric constraint residual(s) alone: %d free parameter(s) remain and no reprojection observations supply the rest",
			report.ConstraintResidualCount, report.DegreesOfFreedom))
	}
	if report.DegreesOfFreedom < 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"scene's %d geometric constraint residual(s) already exceed its %d free parameter(s); the constraint set may be redundant or conflicting",
			report.ConstraintResidualCount, report.FreeParameterCount))
	}

	return report, nil
}

// constraintResidualCount mirrors the residual count residual.BuildFor
// would produce for c, without needing a PointLookup/LineLookup (pre-solve
// runs before the scene is necessarily fully wired for a solve attempt).
func constraintResidualCount(c scene.Constraint) int {
	switch c.Kind {
	case scene.KindFixedPoint:
		n := 0
		if c.TargetX != nil {
			n++
		}
		if c.TargetY != nil {
			n++
		}
		if c.TargetZ != nil {
			n++
		}
		return n
	case scene.KindDistance, scene.KindAngle, scene.KindParallelLines, scene.KindPerpendicularLines:
		return 1
	case scene.KindCollinearPoints:
		return max0(len(c.Points) - 2)
	case scene.KindCoplanarPoints:
		return max0(len(c.Points) - 3)
	case scene.KindEqualDistances:
		return max0(len(c.DistancePairs) - 1)
	case scene.KindEqualAngles:
		return max0(len(c.AngleTriplets) - 1)
	default:
		return 0
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
