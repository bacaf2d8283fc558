package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid 3D transform: an orthonormal rotation plus a translation.
// The canonical form is the top 3x4 of a 4x4 homogeneous matrix; axis angle,
// rotation vector, roll-pitch-yaw and quaternion are derived views. Poses are
// immutable once constructed, and every operation on them returns a new Pose.
type Pose struct {
	rotation    RotationMatrix
	translation r3.Vector
}

// NewZeroPose returns the identity transform.
func NewZeroPose() *Pose {
	return &Pose{rotation: newIdentityRotationMatrix()}
}

// NewPose creates a pose directly from an already-validated rotation and a
// translation.
func NewPose(translation r3.Vector, rotation *RotationMatrix) *Pose {
	return &Pose{rotation: *rotation, translation: translation}
}

// NewPoseFromMatrix creates a pose from a 4x4 homogeneous matrix. The bottom
// row must be (0 0 0 1) and the rotation block must be orthonormal with
// determinant +1, otherwise an InvalidRotationError is returned.
func NewPoseFromMatrix(m *mat.Dense) (*Pose, error) {
	rows, cols := m.Dims()
	if rows != 4 || cols != 4 {
		return nil, errors.Errorf("expected a 4x4 matrix, got %dx%d", rows, cols)
	}
	for col, want := range []float64{0, 0, 0, 1} {
		if math.Abs(m.At(3, col)-want) > defaultEpsilon {
			return nil, errors.Errorf("matrix is not affine: bottom row entry %d is %.6g", col, m.At(3, col))
		}
	}
	rotation, err := NewRotationMatrix([]float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
		m.At(2, 0), m.At(2, 1), m.At(2, 2),
	})
	if err != nil {
		return nil, err
	}
	return &Pose{
		rotation:    *rotation,
		translation: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
	}, nil
}

// NewPoseFromAxisAngle creates a pose whose rotation is theta radians about
// the given axis, built with Rodrigues' formula. The axis is normalized first;
// a zero axis with a nonzero angle yields an InvalidAxisError. A zero angle
// yields the identity rotation regardless of axis.
func NewPoseFromAxisAngle(axis r3.Vector, theta float64, translation r3.Vector) (*Pose, error) {
	if theta == 0 {
		return &Pose{rotation: newIdentityRotationMatrix(), translation: translation}, nil
	}
	norm := axis.Norm()
	if norm < defaultEpsilon {
		return nil, &InvalidAxisError{Norm: norm, Theta: theta}
	}
	return &Pose{
		rotation:    newRodriguesRotationMatrix(axis.Mul(1/norm), theta),
		translation: translation,
	}, nil
}

// NewPoseFromRotationVector creates a pose from an R3 rotation vector whose
// length is the angle in radians and whose direction is the axis. The zero
// vector maps to the identity rotation.
func NewPoseFromRotationVector(rv, translation r3.Vector) *Pose {
	theta := rv.Norm()
	if theta < defaultEpsilon {
		return &Pose{rotation: newIdentityRotationMatrix(), translation: translation}
	}
	return &Pose{
		rotation:    newRodriguesRotationMatrix(rv.Mul(1/theta), theta),
		translation: translation,
	}
}

// NewPoseFromRollPitchYaw creates a pose from extrinsic roll-pitch-yaw angles
// in radians, applied about the fixed axes in the given order.
func NewPoseFromRollPitchYaw(roll, pitch, yaw float64, order RotationOrder, translation r3.Vector) (*Pose, error) {
	rotation, err := eulerToRotationMatrix(&EulerAngles{Roll: roll, Pitch: pitch, Yaw: yaw}, order)
	if err != nil {
		return nil, err
	}
	return &Pose{rotation: rotation, translation: translation}, nil
}

// NewPoseFromQuaternion creates a pose from a w-first quaternion, which is
// normalized before conversion. A (near) zero quaternion yields an
// InvalidQuaternionError.
func NewPoseFromQuaternion(q quat.Number, translation r3.Vector) (*Pose, error) {
	norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if norm < defaultEpsilon {
		return nil, &InvalidQuaternionError{Norm: norm}
	}
	return &Pose{
		rotation:    newRotationMatrixFromQuat(quat.Scale(1/norm, q)),
		translation: translation,
	}, nil
}

// Point returns the translation component.
func (p *Pose) Point() r3.Vector {
	return p.translation
}

// Rotation returns a copy of the rotation component.
func (p *Pose) Rotation() *RotationMatrix {
	rm := p.rotation
	return &rm
}

// Matrix returns the pose as a 4x4 homogeneous matrix.
func (p *Pose) Matrix() *mat.Dense {
	m := p.rotation.mat
	t := p.translation
	return mat.NewDense(4, 4, []float64{
		m[0], m[1], m[2], t.X,
		m[3], m[4], m[5], t.Y,
		m[6], m[7], m[8], t.Z,
		0, 0, 0, 1,
	})
}

// Quaternion returns the rotation as a unit quaternion, w-first, canonicalized
// to the w >= 0 hemisphere.
func (p *Pose) Quaternion() quat.Number {
	return p.rotation.Quaternion()
}

// AxisAngles returns the rotation in axis-angle form with theta in [0, π].
func (p *Pose) AxisAngles() *R4AA {
	return quatToR4AA(p.rotation.Quaternion())
}

// RotationVector returns the rotation as an R3 rotation vector.
func (p *Pose) RotationVector() r3.Vector {
	return p.AxisAngles().ToR3()
}

// RollPitchYaw returns the rotation as extrinsic roll-pitch-yaw angles for the
// given order.
func (p *Pose) RollPitchYaw(order RotationOrder) (*EulerAngles, error) {
	return rotationMatrixToEuler(&p.rotation, order)
}

func (p *Pose) String() string {
	aa := p.AxisAngles()
	return fmt.Sprintf("pose: translation (%.4f, %.4f, %.4f), %.4f radians about (%.4f, %.4f, %.4f)",
		p.translation.X, p.translation.Y, p.translation.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}
