package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComposeAndInvert(t *testing.T) {
	a, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2, trans10x)
	test.That(t, err, test.ShouldBeNil)
	b, err := NewPoseFromAxisAngle(r3.Vector{X: 1}, math.Pi/3, r3.Vector{Y: 5})
	test.That(t, err, test.ShouldBeNil)
	c, err := NewPoseFromAxisAngle(r3.Vector{Y: 1}, -1.1, r3.Vector{Z: -2})
	test.That(t, err, test.ShouldBeNil)

	// composing with the inverse gives the identity
	test.That(t, PoseAlmostEqual(Compose(a, Invert(a)), NewZeroPose(), defaultEpsilon), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(Invert(a), a), NewZeroPose(), defaultEpsilon), test.ShouldBeTrue)

	// composition is associative
	left := Compose(Compose(a, b), c)
	right := Compose(a, Compose(b, c))
	test.That(t, PoseAlmostEqual(left, right, defaultEpsilon), test.ShouldBeTrue)

	// but not commutative
	test.That(t, PoseAlmostEqual(Compose(a, b), Compose(b, a), defaultEpsilon), test.ShouldBeFalse)

	// composing with identity changes nothing
	test.That(t, PoseAlmostEqual(Compose(a, NewZeroPose()), a, defaultEpsilon), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(NewZeroPose(), a), a, defaultEpsilon), test.ShouldBeTrue)
}

func TestComposeOrder(t *testing.T) {
	// b moves a point 1 along x, then a rotates 90 degrees about z;
	// Compose(a, b) applied to the origin must land on (0, 1, 0)
	a, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	b := NewPoseFromRotationVector(r3.Vector{}, r3.Vector{X: 1})

	pt := TransformPoint(Compose(a, b), r3.Vector{})
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, defaultEpsilon)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 1, defaultEpsilon)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0, defaultEpsilon)
}

func TestTransformPoint(t *testing.T) {
	// the identity returns the point exactly, not merely approximately
	test.That(t, TransformPoint(NewZeroPose(), r3.Vector{X: 1, Y: 2, Z: 3}), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})

	p, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2, trans10x)
	test.That(t, err, test.ShouldBeNil)
	moved := TransformPoint(p, r3.Vector{X: 1})
	test.That(t, moved.X, test.ShouldAlmostEqual, 10, defaultEpsilon)
	test.That(t, moved.Y, test.ShouldAlmostEqual, 1, defaultEpsilon)
}

func TestPointIterator(t *testing.T) {
	p, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	pts := []r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}

	it := NewPointIterator(p, pts)
	var got []r3.Vector
	for pt, ok := it.Next(); ok; pt, ok = it.Next() {
		got = append(got, pt)
	}
	test.That(t, got, test.ShouldHaveLength, 3)
	test.That(t, got[0].Y, test.ShouldAlmostEqual, 1, defaultEpsilon)
	test.That(t, got[1].X, test.ShouldAlmostEqual, -1, defaultEpsilon)
	test.That(t, got[2].Z, test.ShouldAlmostEqual, 1, defaultEpsilon)

	// exhausted until reset
	_, ok := it.Next()
	test.That(t, ok, test.ShouldBeFalse)
	it.Reset()
	first, ok := it.Next()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, first.Y, test.ShouldAlmostEqual, 1, defaultEpsilon)

	// inputs are never altered
	test.That(t, pts[0], test.ShouldResemble, r3.Vector{X: 1})

	eager := TransformPoints(p, pts)
	test.That(t, eager, test.ShouldHaveLength, 3)
	test.That(t, eager[0].Y, test.ShouldAlmostEqual, 1, defaultEpsilon)
}

func TestDistance(t *testing.T) {
	a, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, 0.5, r3.Vector{X: 1})
	test.That(t, err, test.ShouldBeNil)
	b, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, 1.25, r3.Vector{X: 4, Y: 4})
	test.That(t, err, test.ShouldBeNil)

	dt, dr := Distance(a, a)
	test.That(t, dt, test.ShouldAlmostEqual, 0, defaultEpsilon)
	test.That(t, dr, test.ShouldAlmostEqual, 0, defaultEpsilon)

	dt, dr = Distance(a, b)
	test.That(t, dt, test.ShouldAlmostEqual, 5, defaultEpsilon)
	test.That(t, dr, test.ShouldAlmostEqual, 0.75, defaultEpsilon)
}

func TestInterpolate(t *testing.T) {
	a := NewZeroPose()
	b, err := NewPoseFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2, trans10x)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, PoseAlmostEqual(Interpolate(a, b, 0), a, defaultEpsilon), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Interpolate(a, b, 1), b, defaultEpsilon), test.ShouldBeTrue)

	mid := Interpolate(a, b, 0.5)
	test.That(t, mid.Point().X, test.ShouldAlmostEqual, 5, defaultEpsilon)
	test.That(t, mid.AxisAngles().Theta, test.ShouldAlmostEqual, math.Pi/4, 1e-6)
}
