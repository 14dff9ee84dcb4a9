package align

import "github.com/scottlawsonbc/reconstruct/scene"

// computeScale looks for every available (current-frame distance,
// world-target distance) reference pair — a Distance constraint or a Line
// with TargetLength — and returns the average of their target/current
// ratios. Averaging (rather than spec.md's literal "any"-singular wording)
// is the natural generalization to a scene with several independent scale
// references; a single reference reduces to exactly spec.md's behavior.
func computeScale(s *scene.Scene) (float64, bool) {
	var ratios []float64

	for _, c := range s.Constraints {
		if !c.Enabled || c.Kind != scene.KindDistance {
			continue
		}
		pa, okA := s.WorldPoints[c.PointA]
		pb, okB := s.WorldPoints[c.PointB]
		if !okA || !okB || c.TargetDistance <= 0 {
			continue
		}
		posA, _ := pa.EffectiveXYZ()
		posB, _ := pb.EffectiveXYZ()
		current := posA.Sub(posB).Length()
		if current > 1e-9 {
			ratios = append(ratios, c.TargetDistance/current)
		}
	}

	for _, l := range s.Lines {
		if l.TargetLength == nil || *l.TargetLength <= 0 {
			continue
		}
		pa, okA := s.WorldPoints[l.PointA]
		pb, okB := s.WorldPoints[l.PointB]
		if !okA || !okB {
			continue
		}
		posA, _ := pa.EffectiveXYZ()
		posB, _ := pb.EffectiveXYZ()
		current := posA.Sub(posB).Length()
		if current > 1e-9 {
			ratios = append(ratios, *l.TargetLength/current)
		}
	}

	if len(ratios) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	return sum / float64(len(ratios)), true
}
