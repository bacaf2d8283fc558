package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// An orientation can be expressed by first specifying an axis, i.e. a line from
// the origin to a point on the unit sphere, represented by (rx, ry, rz), and a
// rotation around that axis, theta. These four numbers can be used as-is (R4),
// or theta can be multiplied into the axis components to give a single rotation
// vector (R3) whose length is theta and whose direction is the axis.

// R4AA represents an R4 axis angle: a unit axis plus an angle in radians.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an R4AA representing no rotation.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// Axis returns the rotation axis as a vector.
func (r4 *R4AA) Axis() r3.Vector {
	return r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
}

// ToR3 converts an R4 axis angle to an R3 rotation vector.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion.
func (r4 *R4AA) ToQuat() quat.Number {
	sinA := math.Sin(r4.Theta / 2)
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	}
}

// Normalize scales the axis components to be on the unit sphere. A zero axis
// is left untouched.
func (r4 *R4AA) Normalize() {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
}

// quatToR4AA extracts the axis angle of a unit quaternion. The identity
// rotation maps to the canonical zero R4AA; near theta=π the axis direction is
// determined by the quaternion's imaginary part, which in turn follows the
// dominant diagonal element of the source rotation matrix.
func quatToR4AA(q quat.Number) *R4AA {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	theta := 2 * math.Atan2(denom, q.Real)
	if denom < defaultEpsilon {
		return NewR4AA()
	}
	return &R4AA{Theta: theta, RX: q.Imag / denom, RY: q.Jmag / denom, RZ: q.Kmag / denom}
}
