package diagnostic

import (
	"math"

	"github.com/scottlawsonbc/reconstruct/align"
	"github.com/scottlawsonbc/reconstruct/scene"
)

// AlignmentQuality reports which alignment stages fired and how well the
// resulting frame actually matches the scene's own locked anchor points,
// since a stage can run successfully (a reference existed) yet still leave
// residual disagreement when the scene supplies more anchors than the
// closed-form fit can satisfy exactly.
type AlignmentQuality struct {
	ScaleApplied       bool
	RotationApplied    bool
	TranslationApplied bool

	// AnchorResidual is, for every fully-locked world point, the distance
	// between its locked position and its post-alignment OptimizedXYZ.
	AnchorResidual    map[scene.PointID]float64
	MaxAnchorResidual float64
}

// EvaluateAlignment builds an AlignmentQuality from align.Align's own
// report plus a fresh anchor-residual pass over the now-aligned scene.
func EvaluateAlignment(s *scene.Scene, res align.Result) AlignmentQuality {
	q := AlignmentQuality{
		ScaleApplied:       res.ScaleApplied,
		RotationApplied:    res.RotationApplied,
		TranslationApplied: res.TranslationApplied,
		AnchorResidual:     make(map[scene.PointID]float64),
	}

	for id, p := range s.WorldPoints {
		if !p.FullyConstrained() {
			continue
		}
		effective, _ := p.EffectiveXYZ()
		d := p.OptimizedXYZ.Sub(effective).Length()
		q.AnchorResidual[id] = d
		if d > q.MaxAnchorResidual {
			q.MaxAnchorResidual = d
		}
	}
	if len(q.AnchorResidual) == 0 {
		q.MaxAnchorResidual = math.NaN()
	}
	return q
}
