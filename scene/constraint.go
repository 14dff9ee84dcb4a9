package scene

import "fmt"

// ConstraintKind tags which variant a Constraint holds. Residual dispatch
// (package residual) switches on Kind; there is exactly one Constraint
// type and no per-kind virtual table or reflection-based registry.
type ConstraintKind int

const (
	KindFixedPoint ConstraintKind = iota
	KindDistance
	KindAngle
	KindParallelLines
	KindPerpendicularLines
	KindCollinearPoints
	KindCoplanarPoints
	KindEqualDistances
	KindEqualAngles
)

func (k ConstraintKind) String() string {
	switch k {
	case KindFixedPoint:
		return "FixedPoint"
	case KindDistance:
		return "Distance"
	case KindAngle:
		return "Angle"
	case KindParallelLines:
		return "ParallelLines"
	case KindPerpendicularLines:
		return "PerpendicularLines"
	case KindCollinearPoints:
		return "CollinearPoints"
	case KindCoplanarPoints:
		return "CoplanarPoints"
	case KindEqualDistances:
		return "EqualDistances"
	case KindEqualAngles:
		return "EqualAngles"
	default:
		return "Unknown"
	}
}

// PointPair names two world points, used by EqualDistances.
type PointPair struct {
	A, B PointID
}

// AngleTriplet names the three points of an angle (A, Vertex, C), used by
// EqualAngles.
type AngleTriplet struct {
	A, Vertex, C PointID
}

// Constraint is the tagged sum of every supported geometric constraint
// variant. Only the fields relevant to Kind are populated; residual.BuildFor
// switches on Kind to decide which fields to read.
type Constraint struct {
	ID      ConstraintID
	Kind    ConstraintKind
	Enabled bool

	// KindFixedPoint
	Point                    PointID
	TargetX, TargetY, TargetZ *float64 // nil means that axis is not constrained by this constraint

	// KindDistance
	PointA, PointB PointID
	TargetDistance float64

	// KindAngle
	AngleA, AngleVertex, AngleC PointID
	TargetAngleDeg              float64

	// KindParallelLines / KindPerpendicularLines
	LineA, LineB LineID

	// KindCollinearPoints / KindCoplanarPoints
	Points []PointID

	// KindEqualDistances
	DistancePairs []PointPair

	// KindEqualAngles
	AngleTriplets []AngleTriplet
}

// NewFixedPoint constructs a FixedPoint constraint. Pass nil for any axis
// that should not be constrained.
func NewFixedPoint(id ConstraintID, point PointID, x, y, z *float64) Constraint {
	return Constraint{ID: id, Kind: KindFixedPoint, Enabled: true, Point: point, TargetX: x, TargetY: y, TargetZ: z}
}

// NewDistance constructs a Distance constraint.
func NewDistance(id ConstraintID, a, b PointID, target float64) Constraint {
	return Constraint{ID: id, Kind: KindDistance, Enabled: true, PointA: a, PointB: b, TargetDistance: target}
}

// NewAngle constructs an Angle constraint (degrees, measured at vertex).
func NewAngle(id ConstraintID, a, vertex, c PointID, targetDeg float64) Constraint {
	return Constraint{ID: id, Kind: KindAngle, Enabled: true, AngleA: a, AngleVertex: vertex, AngleC: c, TargetAngleDeg: targetDeg}
}

// NewParallelLines constructs a ParallelLines constraint.
func NewParallelLines(id ConstraintID, a, b LineID) Constraint {
	return Constraint{ID: id, Kind: KindParallelLines, Enabled: true, LineA: a, LineB: b}
}

// NewPerpendicularLines constructs a PerpendicularLines constraint.
func NewPerpendicularLines(id ConstraintID, a, b LineID) Constraint {
	return Constraint{ID: id, Kind: KindPerpendicularLines, Enabled: true, LineA: a, LineB: b}
}

// NewCollinearPoints constructs a CollinearPoints constraint over >= 3
// points.
func NewCollinearPoints(id ConstraintID, points []PointID) Constraint {
	return Constraint{ID: id, Kind: KindCollinearPoints, Enabled: true, Points: points}
}

// NewCoplanarPoints constructs a CoplanarPoints constraint over >= 4 points.
func NewCoplanarPoints(id ConstraintID, points []PointID) Constraint {
	return Constraint{ID: id, Kind: KindCoplanarPoints, Enabled: true, Points: points}
}

// NewEqualDistances constructs an EqualDistances constraint over >= 2
// pairs.
func NewEqualDistances(id ConstraintID, pairs []PointPair) Constraint {
	return Constraint{ID: id, Kind: KindEqualDistances, Enabled: true, DistancePairs: pairs}
}

// NewEqualAngles constructs an EqualAngles constraint over >= 2 triplets.
func NewEqualAngles(id ConstraintID, triplets []AngleTriplet) Constraint {
	return Constraint{ID: id, Kind: KindEqualAngles, Enabled: true, AngleTriplets: triplets}
}

// Validate reports whether c's variant-specific arity and reference
// requirements are met, independent of whether the referenced ids actually
// resolve in a Scene (Scene.Validate checks that).
func (c Constraint) Validate() error {
	switch c.Kind {
	case KindFixedPoint:
		if c.Point == "" {
			return fmt.Errorf("FixedPoint %s: missing point", c.ID)
		}
		if c.TargetX == nil && c.TargetY == nil && c.TargetZ == nil {
			return fmt.Errorf("FixedPoint %s: no axis constrained", c.ID)
		}
	case KindDistance:
		if c.PointA == "" || c.PointB == "" {
			return fmt.Errorf("Distance %s: missing point reference", c.ID)
		}
		if c.PointA == c.PointB {
			return fmt.Errorf("Distance %s: pointA == pointB", c.ID)
		}
	case KindAngle:
		if c.AngleA == "" || c.AngleVertex == "" || c.AngleC == "" {
			return fmt.Errorf("Angle %s: missing point reference", c.ID)
		}
	case KindParallelLines, KindPerpendicularLines:
		if c.LineA == "" || c.LineB == "" {
			return fmt.Errorf("%s %s: missing line reference", c.Kind, c.ID)
		}
	case KindCollinearPoints:
		if len(c.Points) < 3 {
			return fmt.Errorf("CollinearPoints %s: need >= 3 points, got %d", c.ID, len(c.Points))
		}
	case KindCoplanarPoints:
		if len(c.Points) < 4 {
			return fmt.Errorf("CoplanarPoints %s: need >= 4 points, got %d", c.ID, len(c.Points))
		}
	case KindEqualDistances:
		if len(c.DistancePairs) < 2 {
			return fmt.Errorf("EqualDistances %s: need >= 2 pairs, got %d", c.ID, len(c.DistancePairs))
		}
	case KindEqualAngles:
		if len(c.AngleTriplets) < 2 {
			return fmt.Errorf("EqualAngles %s: need >= 2 triplets, got %d", c.ID, len(c.AngleTriplets))
		}
	default:
		return fmt.Errorf("constraint %s: unknown kind %v", c.ID, c.Kind)
	}
	return nil
}
