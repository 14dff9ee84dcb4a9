// Package scene implements the data model for a reconstruction problem:
// world points, lines, viewpoints (cameras), image-point observations, and
// the tagged constraint sum, plus the Scene aggregate that owns them as
// flat maps keyed by typed identifier.
//
// Every cross-reference here (line endpoints, image-point world-point
// references, constraint operands) is a typed identifier resolved through
// the owning Scene's maps, never a pointer or embedded struct. This keeps
// Scene snapshot/rollback (used throughout orchestrate/strategy) a plain
// value copy.
package scene

// PointID identifies a WorldPoint within a Scene.
type PointID string

// LineID identifies a Line within a Scene.
type LineID string

// ViewpointID identifies a Viewpoint (camera) within a Scene.
type ViewpointID string

// ImagePointID identifies an ImagePoint within its owning Viewpoint.
type ImagePointID string

// ConstraintID identifies a Constraint within a Scene.
type ConstraintID string
