package handeye

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/zivid/handeye-go/logging"
	"github.com/zivid/handeye-go/posefile"
	"github.com/zivid/handeye-go/spatialmath"
)

func testRobotPose(t *testing.T, angle float64, translation r3.Vector) *spatialmath.Pose {
	t.Helper()
	pose, err := spatialmath.NewPoseFromAxisAngle(r3.Vector{X: 0, Y: 0, Z: 1}, angle, translation)
	test.That(t, err, test.ShouldBeNil)
	return pose
}

func identitySolver(transform *spatialmath.Pose) SolverFunc {
	return func(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error) {
		return transform, nil
	}
}

func TestNewAccumulator(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := NewAccumulator(nil, Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "solver")

	_, err = NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{MinPosePairs: -1}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "min_pose_pairs")

	negative := -0.5
	_, err = NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{DegeneracyTolerance: &negative}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "degeneracy_tolerance")

	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, acc.cfg.MinPosePairs, test.ShouldEqual, DefaultMinPosePairs)
	test.That(t, *acc.cfg.DegeneracyTolerance, test.ShouldEqual, 1e-6)
	test.That(t, acc.ID().String(), test.ShouldNotEqual, "")
	test.That(t, acc.State(), test.ShouldEqual, StateEmpty)
}

func TestAddPosePair(t *testing.T) {
	logger := logging.NewTestLogger(t)
	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC))
	acc.clock = mock

	pose := testRobotPose(t, math.Pi/4, r3.Vector{X: 100, Y: 0, Z: 0})
	index, err := acc.AddPosePair(pose, NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, index, test.ShouldEqual, 0)
	test.That(t, acc.State(), test.ShouldEqual, StateCollecting)

	// the same robot pose again constrains nothing
	_, err = acc.AddPosePair(pose, NewObservation(spatialmath.NewZeroPose()))
	var degenerate *DegeneratePoseError
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, degenerate.Index, test.ShouldEqual, 0)
	test.That(t, acc.Size(), test.ShouldEqual, 1)

	_, err = acc.AddPosePair(nil, NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldNotBeNil)

	mock.Add(time.Minute)
	index, err = acc.AddPosePair(
		testRobotPose(t, math.Pi/2, r3.Vector{X: 0, Y: 100, Z: 0}),
		NewObservation(spatialmath.NewZeroPose()),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, index, test.ShouldEqual, 1)

	pairs := acc.PosePairs()
	test.That(t, pairs, test.ShouldHaveLength, 2)
	test.That(t, pairs[1].CapturedAt.Sub(pairs[0].CapturedAt), test.ShouldEqual, time.Minute)
}

func TestZeroDegeneracyTolerance(t *testing.T) {
	// an explicit zero tolerance rejects exact duplicates only
	logger := logging.NewTestLogger(t)
	zero := 0.0
	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{DegeneracyTolerance: &zero}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *acc.cfg.DegeneracyTolerance, test.ShouldEqual, 0.0)

	pose := testRobotPose(t, math.Pi/4, r3.Vector{X: 100, Y: 0, Z: 0})
	_, err = acc.AddPosePair(pose, NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	// a pose 1e-9 away would be degenerate at the default tolerance
	nearby := testRobotPose(t, math.Pi/4, r3.Vector{X: 100 + 1e-9, Y: 0, Z: 0})
	_, err = acc.AddPosePair(nearby, NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	_, err = acc.AddPosePair(pose, NewObservation(spatialmath.NewZeroPose()))
	var degenerate *DegeneratePoseError
	test.That(t, errors.As(err, &degenerate), test.ShouldBeTrue)
	test.That(t, degenerate.Tolerance, test.ShouldEqual, 0.0)
}

func TestRemoveAndReset(t *testing.T) {
	logger := logging.NewTestLogger(t)
	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{MinPosePairs: 2}, logger)
	test.That(t, err, test.ShouldBeNil)

	err = acc.RemovePosePair(0)
	var oor *IndexOutOfRangeError
	test.That(t, errors.As(err, &oor), test.ShouldBeTrue)

	poses := []*spatialmath.Pose{
		testRobotPose(t, 0.1, r3.Vector{X: 10, Y: 0, Z: 0}),
		testRobotPose(t, 0.2, r3.Vector{X: 0, Y: 10, Z: 0}),
		testRobotPose(t, 0.3, r3.Vector{X: 0, Y: 0, Z: 10}),
	}
	for _, pose := range poses {
		_, err = acc.AddPosePair(pose, NewObservation(spatialmath.NewZeroPose()))
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, acc.State(), test.ShouldEqual, StateReadyToSolve)

	err = acc.RemovePosePair(1)
	test.That(t, err, test.ShouldBeNil)
	pairs := acc.PosePairs()
	test.That(t, pairs, test.ShouldHaveLength, 2)
	test.That(t, pairs[0].Index, test.ShouldEqual, 0)
	test.That(t, pairs[1].Index, test.ShouldEqual, 1)
	test.That(t, spatialmath.PoseAlmostEqual(pairs[1].RobotPose, poses[2], 1e-9), test.ShouldBeTrue)

	// the freed slot can be refilled with the removed pose
	_, err = acc.AddPosePair(poses[1], NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	acc.Reset()
	test.That(t, acc.Size(), test.ShouldEqual, 0)
	test.That(t, acc.State(), test.ShouldEqual, StateEmpty)
}

func TestSolve(t *testing.T) {
	logger := logging.NewTestLogger(t)
	wantTransform := testRobotPose(t, 0.5, r3.Vector{X: 1, Y: 2, Z: 3})

	solveCalls := 0
	solver := SolverFunc(func(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error) {
		solveCalls++
		test.That(t, pairs, test.ShouldHaveLength, 3)
		test.That(t, calibrationType, test.ShouldEqual, EyeInHand)
		return wantTransform, nil
	})

	acc, err := NewAccumulator(solver, Config{}, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = acc.AddPosePair(testRobotPose(t, 0.1, r3.Vector{X: 10, Y: 0, Z: 0}), NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)
	_, err = acc.AddPosePair(testRobotPose(t, 0.2, r3.Vector{X: 0, Y: 10, Z: 0}), NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	_, err = acc.Solve(context.Background(), EyeInHand)
	var insufficient *InsufficientDataError
	test.That(t, errors.As(err, &insufficient), test.ShouldBeTrue)
	test.That(t, insufficient.Have, test.ShouldEqual, 2)
	test.That(t, insufficient.Want, test.ShouldEqual, 3)
	test.That(t, solveCalls, test.ShouldEqual, 0)

	_, err = acc.AddPosePair(testRobotPose(t, 0.3, r3.Vector{X: 0, Y: 0, Z: 10}), NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	result, err := acc.Solve(context.Background(), EyeInHand)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solveCalls, test.ShouldEqual, 1)
	test.That(t, result.Transform, test.ShouldEqual, wantTransform)
	test.That(t, result.CalibrationType, test.ShouldEqual, EyeInHand)
	test.That(t, result.Residuals, test.ShouldHaveLength, 3)
	test.That(t, acc.State(), test.ShouldEqual, StateSolved)

	// the dataset is still there for inspection after a solve
	test.That(t, acc.PosePairs(), test.ShouldHaveLength, 3)

	// editing resumes collecting
	err = acc.RemovePosePair(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, acc.State(), test.ShouldEqual, StateCollecting)
}

func TestSolveConsistentDatasetResiduals(t *testing.T) {
	// Build a synthetic eye-in-hand dataset with a known camera-to-flange
	// transform and a fixed target in the base frame. The residuals of an
	// exact solution must vanish.
	logger := logging.NewTestLogger(t)
	cameraInFlange := testRobotPose(t, 0.3, r3.Vector{X: 5, Y: -2, Z: 40})
	targetInBase := testRobotPose(t, -0.7, r3.Vector{X: 300, Y: 100, Z: 0})

	robotPoses := []*spatialmath.Pose{
		testRobotPose(t, 0.2, r3.Vector{X: 50, Y: 0, Z: 200}),
		testRobotPose(t, 0.9, r3.Vector{X: 0, Y: 80, Z: 150}),
		testRobotPose(t, 1.4, r3.Vector{X: -60, Y: 30, Z: 250}),
	}

	acc, err := NewAccumulator(identitySolver(cameraInFlange), Config{}, logger)
	test.That(t, err, test.ShouldBeNil)
	for _, robot := range robotPoses {
		// target seen by the camera: camera->base is (robot . X)^-1
		targetInCamera := spatialmath.Compose(spatialmath.Invert(spatialmath.Compose(robot, cameraInFlange)), targetInBase)
		_, err = acc.AddPosePair(robot, NewObservation(targetInCamera))
		test.That(t, err, test.ShouldBeNil)
	}

	result, err := acc.Solve(context.Background(), EyeInHand)
	test.That(t, err, test.ShouldBeNil)
	for _, residual := range result.Residuals {
		test.That(t, residual.Rotation, test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, residual.Translation, test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestSolveResidualsWithoutTargetPoses(t *testing.T) {
	// raw detections with no target pose still solve, but no residuals can be
	// reported
	logger, observed := logging.NewObservedTestLogger(t)
	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{MinPosePairs: 2}, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = acc.AddPosePair(testRobotPose(t, 0.1, r3.Vector{X: 10, Y: 0, Z: 0}), Observation{})
	test.That(t, err, test.ShouldBeNil)
	_, err = acc.AddPosePair(testRobotPose(t, 0.2, r3.Vector{X: 0, Y: 10, Z: 0}), Observation{})
	test.That(t, err, test.ShouldBeNil)

	result, err := acc.Solve(context.Background(), EyeInHand)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Residuals, test.ShouldBeNil)
	test.That(t, observed.FilterMessageSnippet("no target pose").Len(), test.ShouldEqual, 1)
}

func TestSolveFailuresPassThrough(t *testing.T) {
	logger := logging.NewTestLogger(t)
	divergence := &SolverDivergenceError{Reason: "pose sphere too small"}
	solver := SolverFunc(func(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error) {
		return nil, divergence
	})

	acc, err := NewAccumulator(solver, Config{MinPosePairs: 2}, logger)
	test.That(t, err, test.ShouldBeNil)
	_, err = acc.AddPosePair(testRobotPose(t, 0.1, r3.Vector{X: 10, Y: 0, Z: 0}), NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)
	_, err = acc.AddPosePair(testRobotPose(t, 0.2, r3.Vector{X: 0, Y: 10, Z: 0}), NewObservation(spatialmath.NewZeroPose()))
	test.That(t, err, test.ShouldBeNil)

	_, err = acc.Solve(context.Background(), EyeToHand)
	test.That(t, err, test.ShouldEqual, divergence)
	test.That(t, acc.State(), test.ShouldNotEqual, StateSolved)
}

func TestExportDataset(t *testing.T) {
	logger := logging.NewTestLogger(t)
	acc, err := NewAccumulator(identitySolver(spatialmath.NewZeroPose()), Config{MinPosePairs: 2}, logger)
	test.That(t, err, test.ShouldBeNil)

	dir := t.TempDir()
	err = acc.ExportDataset(dir)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "empty")

	robot := testRobotPose(t, 0.4, r3.Vector{X: 12, Y: 34, Z: 56})
	target := testRobotPose(t, -0.4, r3.Vector{X: 1, Y: 2, Z: 3})
	_, err = acc.AddPosePair(robot, NewObservation(target))
	test.That(t, err, test.ShouldBeNil)
	_, err = acc.AddPosePair(testRobotPose(t, 0.8, r3.Vector{X: 0, Y: 10, Z: 0}), Observation{})
	test.That(t, err, test.ShouldBeNil)

	err = acc.ExportDataset(dir)
	test.That(t, err, test.ShouldBeNil)

	loaded, err := posefile.Load(filepath.Join(dir, "pos01.yaml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(loaded, robot, 1e-9), test.ShouldBeTrue)

	loaded, err = posefile.Load(filepath.Join(dir, "obs01.yaml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(loaded, target, 1e-9), test.ShouldBeTrue)

	// the second pair has no target pose, so no obs file
	_, err = os.Stat(filepath.Join(dir, "obs02.yaml"))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)

	raw, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(raw), test.ShouldContainSubstring, acc.ID().String())
	test.That(t, string(raw), test.ShouldContainSubstring, "pos02.yaml")
}
