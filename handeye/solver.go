// Package handeye manages the interactive accumulation of robot-pose and
// camera-observation pairs ahead of a hand-eye calibration, and hands the
// finished dataset to an external solver.
package handeye

import (
	"context"
	"time"

	"github.com/zivid/handeye-go/pointcloud"
	"github.com/zivid/handeye-go/spatialmath"
)

// CalibrationType selects which fixed transform the solver estimates.
type CalibrationType int

const (
	// EyeInHand solves for the camera pose in the flange (end-effector)
	// frame, for a camera mounted on the robot.
	EyeInHand CalibrationType = iota
	// EyeToHand solves for the camera pose in the robot base frame, for a
	// stationary camera observing a target on the robot.
	EyeToHand
)

func (ct CalibrationType) String() string {
	switch ct {
	case EyeInHand:
		return "eye-in-hand"
	case EyeToHand:
		return "eye-to-hand"
	}
	return "unknown"
}

// Observation is what the camera reported for one capture: the pose of the
// detected calibration target in the camera frame, optionally with the point
// cloud it was detected in.
type Observation struct {
	targetPose *spatialmath.Pose
	cloud      pointcloud.PointCloud
}

// NewObservation creates an observation from a detected target pose.
func NewObservation(targetPose *spatialmath.Pose) Observation {
	return Observation{targetPose: targetPose}
}

// NewObservationWithCloud creates an observation that also keeps the captured
// point cloud for later verification.
func NewObservationWithCloud(targetPose *spatialmath.Pose, cloud pointcloud.PointCloud) Observation {
	return Observation{targetPose: targetPose, cloud: cloud}
}

// TargetPose returns the detected target pose in the camera frame.
func (o Observation) TargetPose() *spatialmath.Pose {
	return o.targetPose
}

// Cloud returns the captured point cloud, or nil if none was kept.
func (o Observation) Cloud() pointcloud.PointCloud {
	return o.cloud
}

// PosePair is one calibration sample: where the robot said its flange was, and
// what the camera saw there. Its identity is its index within the dataset.
type PosePair struct {
	Index       int
	RobotPose   *spatialmath.Pose
	Observation Observation
	CapturedAt  time.Time
}

// Solver performs the actual hand-eye optimization. It is an external
// collaborator: implementations typically wrap the camera vendor's SDK solver.
type Solver interface {
	Solve(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error)
}

// SolverFunc adapts a plain function to the Solver interface.
type SolverFunc func(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error)

// Solve calls the wrapped function.
func (f SolverFunc) Solve(ctx context.Context, pairs []PosePair, calibrationType CalibrationType) (*spatialmath.Pose, error) {
	return f(ctx, pairs, calibrationType)
}

// Residual is the per-pair consistency of a calibration result: how far the
// pair's reprojected target pose sits from the dataset consensus.
type Residual struct {
	Index       int
	Rotation    float64 // radians
	Translation float64
}

// Result is a finished calibration: the estimated transform and the per-pair
// residuals that indicate how self-consistent the dataset was. Residuals is
// nil when any pair's observation carries no detected target pose, since the
// reprojection needs one per pair.
type Result struct {
	Transform       *spatialmath.Pose
	CalibrationType CalibrationType
	Residuals       []Residual
}
