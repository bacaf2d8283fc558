// Package spatialmath defines rigid 3D transforms, the conversions between
// their common encodings, and frame-chaining arithmetic on them.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// defaultEpsilon is the numeric tolerance used for orthonormality checks and
// round-trip equality throughout this package.
const defaultEpsilon = 1e-6

// RotationMatrix is a 3x3 orthonormal matrix stored row-major.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates a RotationMatrix from a row-major slice of 9
// values, checking that the result is orthonormal with determinant +1. A
// reflection (determinant -1) or a sheared matrix yields an
// InvalidRotationError carrying the measured residuals.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("rotation matrix needs 9 values, got %d", len(m))
	}
	r := mat.NewDense(3, 3, m)
	var rrt mat.Dense
	rrt.Mul(r, r.T())

	residual := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			expected := 0.0
			if i == j {
				expected = 1.0
			}
			if d := math.Abs(rrt.At(i, j) - expected); d > residual {
				residual = d
			}
		}
	}
	detDelta := math.Abs(mat.Det(r) - 1)
	if residual > defaultEpsilon || detDelta > defaultEpsilon {
		return nil, &InvalidRotationError{Residual: residual, DetDelta: detDelta, Tolerance: defaultEpsilon}
	}

	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// newIdentityRotationMatrix returns I without going through validation.
func newIdentityRotationMatrix() RotationMatrix {
	return RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// newRodriguesRotationMatrix builds a rotation of theta radians about the
// given unit axis using Rodrigues' formula, R = I + sin(θ)K + (1-cos(θ))K².
// The axis must already be normalized.
func newRodriguesRotationMatrix(axis r3.Vector, theta float64) RotationMatrix {
	s, c := math.Sin(theta), math.Cos(theta)
	v := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return RotationMatrix{mat: [9]float64{
		c + x*x*v, x*y*v - z*s, x*z*v + y*s,
		y*x*v + z*s, c + y*y*v, y*z*v - x*s,
		z*x*v - y*s, z*y*v + x*s, c + z*z*v,
	}}
}

// newRotationMatrixFromQuat converts a unit quaternion to its matrix form.
func newRotationMatrixFromQuat(q quat.Number) RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{mat: [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// At returns the value at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the given row as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the given column as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// RowMajor returns the matrix entries as a row-major slice of 9 values.
func (rm *RotationMatrix) RowMajor() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Transpose returns the transpose which, for a rotation, is also its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{mat: [9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// MatMul returns the matrix product rm * other.
func (rm *RotationMatrix) MatMul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += rm.mat[3*i+k] * other.mat[3*k+j]
			}
			out.mat[3*i+j] = sum
		}
	}
	return out
}

// MulVec returns the matrix-vector product rm * v.
func (rm *RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	m := rm.mat
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Quaternion returns the matrix as a unit quaternion, w-first. The conversion
// goes through mgl64's Shepperd method, which picks the numerically dominant
// diagonal element and so stays stable for rotations near π.
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rm.mat[3*i+j])
		}
	}
	q := mgl64.Mat4ToQuat(m)
	out := quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()}
	// Canonicalize to the w >= 0 hemisphere so that equal rotations compare equal.
	if out.Real < 0 {
		out = quat.Scale(-1, out)
	}
	return out
}

// RotationAlmostEqual returns whether two rotation matrices are entrywise
// within epsilon of each other.
func RotationAlmostEqual(a, b *RotationMatrix, epsilon float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > epsilon {
			return false
		}
	}
	return true
}
