package handeye

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/zivid/handeye-go/logging"
	"github.com/zivid/handeye-go/spatialmath"
)

// State is where an accumulator session is in its lifecycle.
type State int

const (
	// StateEmpty means no pose pairs have been collected.
	StateEmpty State = iota
	// StateCollecting means some pairs exist but not enough to solve.
	StateCollecting
	// StateReadyToSolve means the configured minimum has been reached.
	StateReadyToSolve
	// StateSolved means a calibration has been computed from this dataset.
	StateSolved
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCollecting:
		return "collecting"
	case StateReadyToSolve:
		return "ready-to-solve"
	case StateSolved:
		return "solved"
	}
	return "unknown"
}

// DefaultMinPosePairs is the conventional minimum dataset size expected by
// hand-eye solvers. The true minimum for a numerically stable solve depends on
// the solver's algorithm; this is only a sanity floor.
const DefaultMinPosePairs = 3

const defaultDegeneracyTolerance = 1e-6

// Config adjusts an accumulator session. The zero value selects all defaults.
type Config struct {
	// MinPosePairs is the smallest dataset Solve will accept.
	MinPosePairs int `json:"min_pose_pairs"`
	// DegeneracyTolerance is how close, in both rotation and translation, two
	// robot poses must be before the later one is rejected as a duplicate.
	// nil selects the default; an explicit 0 rejects exact duplicates only.
	DegeneracyTolerance *float64 `json:"degeneracy_tolerance,omitempty"`
}

// Validate checks the config and fills in defaults.
func (cfg *Config) Validate() error {
	var err error
	if cfg.MinPosePairs < 0 {
		err = multierr.Append(err, errors.Errorf("min_pose_pairs cannot be negative, got %d", cfg.MinPosePairs))
	}
	if cfg.DegeneracyTolerance != nil && *cfg.DegeneracyTolerance < 0 {
		err = multierr.Append(err, errors.Errorf("degeneracy_tolerance cannot be negative, got %g", *cfg.DegeneracyTolerance))
	}
	if err != nil {
		return err
	}
	if cfg.MinPosePairs == 0 {
		cfg.MinPosePairs = DefaultMinPosePairs
	}
	if cfg.DegeneracyTolerance == nil {
		tolerance := defaultDegeneracyTolerance
		cfg.DegeneracyTolerance = &tolerance
	}
	return nil
}

// Accumulator owns one calibration dataset and walks it through
// empty -> collecting -> ready-to-solve -> solved. It assumes a single writer,
// the usual shape of an interactive calibration session.
type Accumulator struct {
	id     uuid.UUID
	cfg    Config
	solver Solver
	logger logging.Logger
	clock  clock.Clock

	pairs  []PosePair
	solved bool
}

// NewAccumulator starts an empty session feeding the given external solver.
func NewAccumulator(solver Solver, cfg Config, logger logging.Logger) (*Accumulator, error) {
	if solver == nil {
		return nil, errors.New("an external hand-eye solver is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Accumulator{
		id:     uuid.New(),
		cfg:    cfg,
		solver: solver,
		logger: logger,
		clock:  clock.New(),
	}, nil
}

// ID identifies this session, e.g. in exported dataset files.
func (a *Accumulator) ID() uuid.UUID {
	return a.id
}

// State reports where the session is in its lifecycle.
func (a *Accumulator) State() State {
	switch {
	case a.solved:
		return StateSolved
	case len(a.pairs) == 0:
		return StateEmpty
	case len(a.pairs) < a.cfg.MinPosePairs:
		return StateCollecting
	default:
		return StateReadyToSolve
	}
}

// Size returns the number of collected pose pairs.
func (a *Accumulator) Size() int {
	return len(a.pairs)
}

// PosePairs returns a copy of the dataset in insertion order.
func (a *Accumulator) PosePairs() []PosePair {
	out := make([]PosePair, len(a.pairs))
	copy(out, a.pairs)
	return out
}

// AddPosePair appends one calibration sample and returns its index. A robot
// pose that matches an already stored pose within the degeneracy tolerance is
// rejected, since it would add no constraint to the solve.
func (a *Accumulator) AddPosePair(robotPose *spatialmath.Pose, observation Observation) (int, error) {
	if robotPose == nil {
		return 0, errors.New("robot pose is nil")
	}
	tolerance := *a.cfg.DegeneracyTolerance
	for _, pair := range a.pairs {
		dt, dr := spatialmath.Distance(robotPose, pair.RobotPose)
		if dt <= tolerance && dr <= tolerance {
			return 0, &DegeneratePoseError{
				Index:       pair.Index,
				Rotation:    dr,
				Translation: dt,
				Tolerance:   tolerance,
			}
		}
	}

	index := len(a.pairs)
	a.pairs = append(a.pairs, PosePair{
		Index:       index,
		RobotPose:   robotPose,
		Observation: observation,
		CapturedAt:  a.clock.Now(),
	})
	// editing after a solve starts a fresh run on the same session
	a.solved = false
	a.logger.Debugw("added pose pair", "index", index, "state", a.State().String())
	return index, nil
}

// RemovePosePair deletes the pair at the given index; later pairs shift down
// and are reindexed, mirroring their position in the dataset.
func (a *Accumulator) RemovePosePair(index int) error {
	if index < 0 || index >= len(a.pairs) {
		return &IndexOutOfRangeError{Index: index, Size: len(a.pairs)}
	}
	a.pairs = append(a.pairs[:index], a.pairs[index+1:]...)
	for i := range a.pairs {
		a.pairs[i].Index = i
	}
	a.solved = false
	a.logger.Debugw("removed pose pair", "index", index, "state", a.State().String())
	return nil
}

// Reset clears the session back to empty.
func (a *Accumulator) Reset() {
	a.pairs = nil
	a.solved = false
	a.logger.Debug("reset calibration dataset")
}

// Solve hands the dataset to the external solver and returns its result along
// with per-pair residuals. The dataset stays inspectable and exportable
// afterwards. Solver failures are returned unchanged: whether a diverged solve
// is worth retrying depends on capture conditions this session cannot see.
func (a *Accumulator) Solve(ctx context.Context, calibrationType CalibrationType) (*Result, error) {
	if len(a.pairs) < a.cfg.MinPosePairs {
		return nil, &InsufficientDataError{Have: len(a.pairs), Want: a.cfg.MinPosePairs}
	}

	a.logger.Infof("performing %s calibration with %d dataset pairs", calibrationType, len(a.pairs))
	transform, err := a.solver.Solve(ctx, a.PosePairs(), calibrationType)
	if err != nil {
		return nil, err
	}
	if transform == nil {
		return nil, errors.New("external solver returned no transform")
	}

	a.solved = true
	result := &Result{
		Transform:       transform,
		CalibrationType: calibrationType,
		Residuals:       a.residuals(transform, calibrationType),
	}
	a.logger.Infow("hand-eye calibration solved", "type", calibrationType.String(), "pairs", len(a.pairs))
	return result, nil
}

// residuals measures dataset self-consistency under the solved transform. For
// eye-in-hand the target pose in the base frame, robot ∘ X ∘ observation, must
// agree across pairs; for eye-to-hand the same holds with the inverse robot
// pose. Each pair's residual is its deviation from the first pair.
func (a *Accumulator) residuals(transform *spatialmath.Pose, calibrationType CalibrationType) []Residual {
	reprojected := make([]*spatialmath.Pose, 0, len(a.pairs))
	for _, pair := range a.pairs {
		target := pair.Observation.TargetPose()
		if target == nil {
			a.logger.Debugw("skipping residual computation, observation has no target pose", "index", pair.Index)
			return nil
		}
		robot := pair.RobotPose
		if calibrationType == EyeToHand {
			robot = spatialmath.Invert(robot)
		}
		reprojected = append(reprojected, spatialmath.Compose(robot, spatialmath.Compose(transform, target)))
	}

	residuals := make([]Residual, len(reprojected))
	for i, pose := range reprojected {
		dt, dr := spatialmath.Distance(reprojected[0], pose)
		residuals[i] = Residual{Index: a.pairs[i].Index, Rotation: dr, Translation: dt}
	}
	return residuals
}
