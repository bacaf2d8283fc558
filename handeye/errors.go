package handeye

import "fmt"

// DegeneratePoseError is returned when a robot pose duplicates one already in
// the dataset. A duplicate pose adds no constraint to the solve, so it is
// rejected up front with enough context to pick a better one.
type DegeneratePoseError struct {
	Index       int // index of the existing matching pair
	Rotation    float64
	Translation float64
	Tolerance   float64
}

func (e *DegeneratePoseError) Error() string {
	return fmt.Sprintf(
		"robot pose duplicates pair %d: rotation differs by %.3g radians and translation by %.3g (tolerance %.3g)",
		e.Index, e.Rotation, e.Translation, e.Tolerance)
}

// IndexOutOfRangeError is returned for an index with no pose pair behind it.
type IndexOutOfRangeError struct {
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("pose pair index %d out of range, dataset has %d pairs", e.Index, e.Size)
}

// InsufficientDataError is returned when a solve is requested before the
// configured minimum number of pose pairs has been collected.
type InsufficientDataError struct {
	Have int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("need at least %d pose pairs to solve, have %d", e.Want, e.Have)
}

// SolverDivergenceError is the failure external solvers should return when the
// optimization does not converge. The accumulator surfaces it unchanged; retry
// policy belongs to the caller, who knows the capture conditions.
type SolverDivergenceError struct {
	Reason string
}

func (e *SolverDivergenceError) Error() string {
	return fmt.Sprintf("hand-eye solver diverged: %s", e.Reason)
}
