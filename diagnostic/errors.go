package diagnostic

import "errors"

// ErrInsufficientConstraints is spec.md §7's InsufficientConstraints error
// kind: the scene carries neither an enabled constraint nor a reprojection
// observation, so there is nothing to solve and no way to fix the gauge.
// Fatal; callers check for it with errors.Is.
var ErrInsufficientConstraints = errors.New("diagnostic: scene has no enabled constraints and no reprojection observations")
