package spatialmath

import (
	"math"
)

// EulerAngles are three elementary rotation angles in radians. Roll is always
// the rotation about the fixed X axis, pitch about Y, and yaw about Z; the
// RotationOrder they were produced with decides the sequence in which those
// rotations are applied.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an EulerAngles representing no rotation.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{}
}

// RotationOrder is the application sequence of the three elementary rotations
// about the fixed (extrinsic) frame axes. OrderXYZ means rotate about X first,
// then Y, then Z, i.e. R = Rz(yaw) * Ry(pitch) * Rx(roll). Extrinsic order abc
// is equivalent to intrinsic order cba with the same angles.
type RotationOrder int

// The six canonical axis permutations.
const (
	OrderXYZ RotationOrder = iota
	OrderXZY
	OrderYXZ
	OrderYZX
	OrderZXY
	OrderZYX
)

func (ro RotationOrder) String() string {
	switch ro {
	case OrderXYZ:
		return "xyz"
	case OrderXZY:
		return "xzy"
	case OrderYXZ:
		return "yxz"
	case OrderYZX:
		return "yzx"
	case OrderZXY:
		return "zxy"
	case OrderZYX:
		return "zyx"
	}
	return "invalid"
}

// ParseRotationOrder maps a lowercase axis string such as "zyx" back to its
// RotationOrder.
func ParseRotationOrder(s string) (RotationOrder, error) {
	for ro := OrderXYZ; ro <= OrderZYX; ro++ {
		if ro.String() == s {
			return ro, nil
		}
	}
	return OrderXYZ, &InvalidRotationOrderError{Order: -1}
}

// axes returns the axis indices (0=x, 1=y, 2=z) in application order, and
// whether the permutation is even (xyz, yzx, zxy).
func (ro RotationOrder) axes() (i, j, k int, even bool, err error) {
	switch ro {
	case OrderXYZ:
		return 0, 1, 2, true, nil
	case OrderXZY:
		return 0, 2, 1, false, nil
	case OrderYXZ:
		return 1, 0, 2, false, nil
	case OrderYZX:
		return 1, 2, 0, true, nil
	case OrderZXY:
		return 2, 0, 1, true, nil
	case OrderZYX:
		return 2, 1, 0, false, nil
	}
	return 0, 0, 0, false, &InvalidRotationOrderError{Order: ro}
}

// elementaryRotation returns the rotation of theta radians about the lone
// coordinate axis with the given index.
func elementaryRotation(axis int, theta float64) RotationMatrix {
	s, c := math.Sin(theta), math.Cos(theta)
	switch axis {
	case 0:
		return RotationMatrix{mat: [9]float64{1, 0, 0, 0, c, -s, 0, s, c}}
	case 1:
		return RotationMatrix{mat: [9]float64{c, 0, s, 0, 1, 0, -s, 0, c}}
	default:
		return RotationMatrix{mat: [9]float64{c, -s, 0, s, c, 0, 0, 0, 1}}
	}
}

// eulerToRotationMatrix composes the elementary rotations extrinsically in the
// order's sequence. Each successive fixed-axis rotation premultiplies, so the
// result is E(k) * E(j) * E(i).
func eulerToRotationMatrix(ea *EulerAngles, order RotationOrder) (RotationMatrix, error) {
	i, j, k, _, err := order.axes()
	if err != nil {
		return newIdentityRotationMatrix(), err
	}
	angles := [3]float64{ea.Roll, ea.Pitch, ea.Yaw}
	first := elementaryRotation(i, angles[i])
	second := elementaryRotation(j, angles[j])
	third := elementaryRotation(k, angles[k])
	return *third.MatMul(second.MatMul(&first)), nil
}

// rotationMatrixToEuler extracts extrinsic angles for the given order. At the
// gimbal-lock singularity (second rotation at ±π/2) the third angle is pinned
// to zero and the first absorbs the remaining rotation.
func rotationMatrixToEuler(rm *RotationMatrix, order RotationOrder) (*EulerAngles, error) {
	i, j, k, even, err := order.axes()
	if err != nil {
		return nil, err
	}
	sign := 1.0
	if !even {
		sign = -1.0
	}

	sy := math.Sqrt(rm.At(i, i)*rm.At(i, i) + rm.At(j, i)*rm.At(j, i))
	var theta1, theta2, theta3 float64
	if sy < 1e-8 {
		theta1 = math.Atan2(-sign*rm.At(j, k), rm.At(j, j))
		theta2 = math.Atan2(-sign*rm.At(k, i), sy)
		theta3 = 0
	} else {
		theta1 = math.Atan2(sign*rm.At(k, j), rm.At(k, k))
		theta2 = math.Atan2(-sign*rm.At(k, i), sy)
		theta3 = math.Atan2(sign*rm.At(j, i), rm.At(i, i))
	}

	angles := [3]float64{}
	angles[i] = theta1
	angles[j] = theta2
	angles[k] = theta3
	return &EulerAngles{Roll: angles[0], Pitch: angles[1], Yaw: angles[2]}, nil
}
