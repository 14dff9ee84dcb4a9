package reconstruct

import (
	"errors"

	"github.com/scottlawsonbc/reconstruct/diagnostic"
)

// Sentinel errors for the fatal kinds in spec.md §7's error-kind enum.
// UnreliableResult, NotConverged, and Cancelled are non-fatal by spec and
// are surfaced as Result.Diagnostics flags instead of returned errors; a
// Solve call reports them here only when the condition prevented the
// pipeline from producing any result at all.
var (
	// ErrInsufficientConstraints re-exports diagnostic's sentinel so a
	// caller of Session.Solve only needs to import this package.
	ErrInsufficientConstraints = diagnostic.ErrInsufficientConstraints

	// ErrInitializationFailed is returned when every camera in the scene
	// still has no pose after both orchestrators ran.
	ErrInitializationFailed = errors.New("reconstruct: no initialization strategy succeeded for any camera")

	// ErrNumericalSingular is wrapped alongside ErrInitializationFailed
	// when every failed camera's recorded strategy failure traced back to
	// a singular matrix solve (see linalg.ErrSingular), per spec.md §7's
	// "fatal only if every strategy returns NumericalSingular".
	ErrNumericalSingular = errors.New("reconstruct: initialization failed due to a numerical singularity")
)
