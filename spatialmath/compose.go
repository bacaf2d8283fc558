package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/zivid/handeye-go/utils"
)

// Compose returns the transform a∘b: b is applied first, then a, matching the
// matrix product Ma * Mb. Composition is associative but in general not
// commutative. Neither input is modified.
func Compose(a, b *Pose) *Pose {
	return &Pose{
		rotation:    *a.rotation.MatMul(&b.rotation),
		translation: a.rotation.MulVec(b.translation).Add(a.translation),
	}
}

// Invert returns the inverse transform (Rᵀ, -Rᵀ*t), so that
// Compose(p, Invert(p)) is the identity.
func Invert(p *Pose) *Pose {
	rt := p.rotation.Transpose()
	return &Pose{
		rotation:    *rt,
		translation: rt.MulVec(p.translation).Mul(-1),
	}
}

// TransformPoint maps a point into the pose's frame: R*p + t.
func TransformPoint(pose *Pose, pt r3.Vector) r3.Vector {
	return pose.rotation.MulVec(pt).Add(pose.translation)
}

// PointIterator lazily applies a pose to a sequence of points. It is finite
// and restartable; the underlying slice is not copied or modified.
type PointIterator struct {
	pose *Pose
	pts  []r3.Vector
	next int
}

// NewPointIterator returns an iterator over pose-transformed copies of pts.
func NewPointIterator(pose *Pose, pts []r3.Vector) *PointIterator {
	return &PointIterator{pose: pose, pts: pts}
}

// Next returns the next transformed point, or false once the sequence is
// exhausted.
func (it *PointIterator) Next() (r3.Vector, bool) {
	if it.next >= len(it.pts) {
		return r3.Vector{}, false
	}
	pt := TransformPoint(it.pose, it.pts[it.next])
	it.next++
	return pt, true
}

// Reset rewinds the iterator to the beginning of the sequence.
func (it *PointIterator) Reset() {
	it.next = 0
}

// TransformPoints eagerly applies a pose to every point in pts, returning a
// new slice.
func TransformPoints(pose *Pose, pts []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, 0, len(pts))
	it := NewPointIterator(pose, pts)
	for pt, ok := it.Next(); ok; pt, ok = it.Next() {
		out = append(out, pt)
	}
	return out
}

// QuaternionAlmostEqual returns whether q1 and q2 represent approximately the
// same rotation, accounting for the double cover (q and -q are the same
// rotation).
func QuaternionAlmostEqual(q1, q2 quat.Number, epsilon float64) bool {
	diff := quat.Mul(q1, quat.Conj(q2))
	return math.Abs(1-math.Abs(diff.Real)) < epsilon
}

// PoseAlmostEqual returns whether two poses agree within epsilon in both
// rotation (entrywise) and translation (componentwise).
func PoseAlmostEqual(a, b *Pose, epsilon float64) bool {
	return RotationAlmostEqual(&a.rotation, &b.rotation, epsilon) &&
		utils.R3VectorAlmostEqual(a.translation, b.translation, epsilon)
}

// Distance returns the translational and rotational distance between two
// poses: the Euclidean distance between their translations, and the geodesic
// angle in radians of the rotation taking one orientation to the other.
func Distance(a, b *Pose) (translation, rotation float64) {
	translation = a.translation.Sub(b.translation).Norm()
	rotation = quatToR4AA(quat.Mul(b.Quaternion(), quat.Conj(a.Quaternion()))).Theta
	return translation, rotation
}

// Interpolate returns the pose that is by of the way from a to b, with by in
// [0, 1]. Translation is interpolated linearly and rotation spherically.
func Interpolate(a, b *Pose, by float64) *Pose {
	by = utils.Clamp(by, 0, 1)
	qa := a.Quaternion()
	qb := b.Quaternion()
	// Take the short way around the double cover.
	if qa.Real*qb.Real+qa.Imag*qb.Imag+qa.Jmag*qb.Jmag+qa.Kmag*qb.Kmag < 0 {
		qb = quat.Scale(-1, qb)
	}
	q := quat.Mul(qa, quat.Pow(quat.Mul(quat.Conj(qa), qb), quat.Number{Real: by}))
	if norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag); norm > 0 {
		q = quat.Scale(1/norm, q)
	}
	return &Pose{
		rotation:    newRotationMatrixFromQuat(q),
		translation: a.translation.Add(b.translation.Sub(a.translation).Mul(by)),
	}
}
