package scene

import "github.com/scottlawsonbc/reconstruct/r3"

// Axis enumerates the three world axes, used both for FixedPoint masks and
// for line-direction/vanishing-point tagging.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// WorldPoint is a single reconstructed 3D point, identified by PointID.
//
// Coordinate precedence: a component's "effective" value is the locked
// value if present, else the inferred value if present, else the current
// optimized estimate. Inferred must never overwrite a locked component —
// Scene.InferCoordinates enforces this when it recomputes Inferred* from
// line-direction constraints.
type WorldPoint struct {
	ID   PointID
	Name string

	// Locked holds user-specified fixed coordinates; a nil entry means that
	// component is not locked.
	LockedX, LockedY, LockedZ *float64

	// Inferred holds coordinates propagated from axis-aligned Line
	// constraints (e.g. two points joined by an x-aligned line inherit each
	// other's Y and Z). Populated by Scene.InferCoordinates and by
	// orchestrate's triangulation between iterative rounds, never on a
	// locked axis.
	InferredX, InferredY, InferredZ *float64

	// ConnectedLineIDs lists every Line this point is an endpoint of.
	ConnectedLineIDs []LineID

	// OptimizedXYZ is the solver's current estimate; mutated during a solve.
	OptimizedXYZ r3.Point
}

// Clone returns a deep copy of p suitable for snapshot/rollback.
func (p WorldPoint) Clone() WorldPoint {
	clone := p
	clone.LockedX = clonePtr(p.LockedX)
	clone.LockedY = clonePtr(p.LockedY)
	clone.LockedZ = clonePtr(p.LockedZ)
	clone.InferredX = clonePtr(p.InferredX)
	clone.InferredY = clonePtr(p.InferredY)
	clone.InferredZ = clonePtr(p.InferredZ)
	clone.ConnectedLineIDs = append([]LineID(nil), p.ConnectedLineIDs...)
	return clone
}

func clonePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// effectiveComponent returns (value, known) for one axis using
// locked-then-inferred-then-optimized precedence, and whether the value is
// "anchored" (locked or inferred, as opposed to merely a free running
// estimate).
func effectiveComponent(locked, inferred *float64, optimized float64) (value float64, anchored bool) {
	if locked != nil {
		return *locked, true
	}
	if inferred != nil {
		return *inferred, true
	}
	return optimized, false
}

// EffectiveXYZ returns the point's effective position using
// locked-then-inferred-then-free precedence on every axis, and a per-axis
// mask reporting which axes are anchored (locked or inferred).
func (p WorldPoint) EffectiveXYZ() (pos r3.Point, anchored [3]bool) {
	pos.X, anchored[0] = effectiveComponent(p.LockedX, p.InferredX, p.OptimizedXYZ.X)
	pos.Y, anchored[1] = effectiveComponent(p.LockedY, p.InferredY, p.OptimizedXYZ.Y)
	pos.Z, anchored[2] = effectiveComponent(p.LockedZ, p.InferredZ, p.OptimizedXYZ.Z)
	return pos, anchored
}

// FullyConstrained reports whether every axis is locked or inferred.
func (p WorldPoint) FullyConstrained() bool {
	_, anchored := p.EffectiveXYZ()
	return anchored[0] && anchored[1] && anchored[2]
}

// Anchored reports whether at least one axis is locked or inferred.
func (p WorldPoint) Anchored() bool {
	_, anchored := p.EffectiveXYZ()
	return anchored[0] || anchored[1] || anchored[2]
}

// FreeComponentCount returns the number of axes that are neither locked nor
// inferred, i.e. the number of free scalar parameters this point
// contributes to the solver's packed parameter vector.
func (p WorldPoint) FreeComponentCount() int {
	_, anchored := p.EffectiveXYZ()
	n := 0
	for _, a := range anchored {
		if !a {
			n++
		}
	}
	return n
}

// LineDirection enumerates the recognized Line direction/vanishing-axis
// hints.
type LineDirection int

const (
	DirectionFree LineDirection = iota
	DirectionHorizontal
	DirectionVertical
	DirectionXAligned
	DirectionZAligned
)

// VanishingAxis maps a LineDirection to the world axis its vanishing point
// should be fit against. DirectionHorizontal is ambiguous (could be X or Z)
// and DirectionFree carries no axis hint; both return (AxisX, false).
func (d LineDirection) VanishingAxis() (axis Axis, ok bool) {
	switch d {
	case DirectionVertical:
		return AxisY, true
	case DirectionXAligned:
		return AxisX, true
	case DirectionZAligned:
		return AxisZ, true
	default:
		return AxisX, false
	}
}

// Line is an ordered pair of world points with an optional direction hint
// and target length.
type Line struct {
	ID           LineID
	PointA       PointID
	PointB       PointID
	Direction    LineDirection
	TargetLength *float64 // world units; nil if unconstrained
}

// Clone returns a deep copy of l.
func (l Line) Clone() Line {
	clone := l
	clone.TargetLength = clonePtr(l.TargetLength)
	return clone
}
