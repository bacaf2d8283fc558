package spatialmath

import "fmt"

// InvalidRotationError is returned when a purported rotation matrix fails the
// orthonormality check. It reports the measured residuals so the caller can
// judge how far off the input was.
type InvalidRotationError struct {
	Residual  float64 // max abs entry of R*Rᵀ - I
	DetDelta  float64 // |det(R) - 1|
	Tolerance float64
}

func (e *InvalidRotationError) Error() string {
	return fmt.Sprintf(
		"matrix is not a rotation: max |R*Rᵀ-I| = %.3g, |det(R)-1| = %.3g, tolerance %.3g",
		e.Residual, e.DetDelta, e.Tolerance)
}

// InvalidAxisError is returned when a rotation axis has (near) zero length but
// a nonzero angle was requested.
type InvalidAxisError struct {
	Norm  float64
	Theta float64
}

func (e *InvalidAxisError) Error() string {
	return fmt.Sprintf("rotation axis has norm %.3g, cannot rotate %.4f radians about it", e.Norm, e.Theta)
}

// InvalidQuaternionError is returned when a quaternion is too close to zero to
// be normalized.
type InvalidQuaternionError struct {
	Norm float64
}

func (e *InvalidQuaternionError) Error() string {
	return fmt.Sprintf("quaternion has norm %.3g, cannot normalize", e.Norm)
}

// InvalidRotationOrderError is returned for a RotationOrder value outside the
// six canonical axis permutations.
type InvalidRotationOrderError struct {
	Order RotationOrder
}

func (e *InvalidRotationOrderError) Error() string {
	return fmt.Sprintf("invalid rotation order %d", int(e.Order))
}
