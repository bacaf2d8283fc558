package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/zivid/handeye-go/handeye"
	"github.com/zivid/handeye-go/posefile"
	"github.com/zivid/handeye-go/spatialmath"
)

func parseCalibrationType(s string) (handeye.CalibrationType, error) {
	switch strings.ToLower(s) {
	case "eye-in-hand", "eih":
		return handeye.EyeInHand, nil
	case "eye-to-hand", "eth":
		return handeye.EyeToHand, nil
	}
	return 0, errors.Errorf("unknown calibration type %q, want eye-in-hand or eye-to-hand", s)
}

// noSolver reminds the operator that the optimization itself lives in the
// camera vendor's SDK; the collected dataset can still be exported for it.
var noSolver = handeye.SolverFunc(
	func(_ context.Context, _ []handeye.PosePair, _ handeye.CalibrationType) (*spatialmath.Pose, error) {
		return nil, errors.New("no hand-eye solver is wired into this build; " +
			"export the dataset and solve it with the camera vendor's tools")
	},
)

func (actx *appContext) calibrateAction(c *cli.Context) error {
	calibrationType, err := parseCalibrationType(c.String(calibrateFlagType))
	if err != nil {
		return err
	}

	solver := actx.solver
	if solver == nil {
		solver = noSolver
	}

	cfg := handeye.Config{MinPosePairs: c.Int(calibrateFlagMinPairs)}
	if c.IsSet(calibrateFlagTolerance) {
		tolerance := c.Float64(calibrateFlagTolerance)
		cfg.DegeneracyTolerance = &tolerance
	}
	acc, err := handeye.NewAccumulator(solver, cfg, actx.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(actx.out, "%s calibration session %s\n", calibrationType, acc.ID())
	fmt.Fprintln(actx.out, "commands: add, remove <index>, list, solve, export <dir>, quit")

	scanner := bufio.NewScanner(actx.in)
	for {
		fmt.Fprint(actx.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "add":
			err = actx.addPosePair(scanner, acc)
		case "remove":
			if len(fields) != 2 {
				err = errors.New("usage: remove <index>")
				break
			}
			var index int
			if index, err = strconv.Atoi(fields[1]); err == nil {
				err = acc.RemovePosePair(index)
			}
		case "list":
			for _, pair := range acc.PosePairs() {
				fmt.Fprintf(actx.out, "%2d  %s\n", pair.Index, posefile.FormatRowMajor(pair.RobotPose))
			}
			fmt.Fprintf(actx.out, "%d pairs, state %s\n", acc.Size(), acc.State())
		case "solve":
			err = actx.solve(c, acc, calibrationType)
		case "export":
			if len(fields) != 2 {
				err = errors.New("usage: export <dir>")
				break
			}
			err = acc.ExportDataset(fields[1])
		case "quit", "q", "exit":
			return nil
		default:
			err = errors.Errorf("unknown command %q", fields[0])
		}
		if err != nil {
			fmt.Fprintln(actx.out, "error:", err)
		}
	}
}

func (actx *appContext) addPosePair(scanner *bufio.Scanner, acc *handeye.Accumulator) error {
	fmt.Fprint(actx.out, "robot pose (16 row-major values): ")
	if !scanner.Scan() {
		return errors.New("no robot pose entered")
	}
	robotPose, err := posefile.ParseRowMajor(scanner.Text())
	if err != nil {
		return err
	}

	fmt.Fprint(actx.out, "target pose (YAML file or 16 row-major values): ")
	if !scanner.Scan() {
		return errors.New("no target pose entered")
	}
	targetPose, err := readPoseArg(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return err
	}

	index, err := acc.AddPosePair(robotPose, handeye.NewObservation(targetPose))
	if err != nil {
		return err
	}
	fmt.Fprintf(actx.out, "added pair %d, state %s\n", index, acc.State())
	return nil
}

func (actx *appContext) solve(c *cli.Context, acc *handeye.Accumulator, calibrationType handeye.CalibrationType) error {
	result, err := acc.Solve(c.Context, calibrationType)
	if err != nil {
		return err
	}
	fmt.Fprintf(actx.out, "%s transform:\n%s\n", result.CalibrationType, result.Transform)
	fmt.Fprintf(actx.out, "row-major: %s\n", posefile.FormatRowMajor(result.Transform))
	for _, residual := range result.Residuals {
		fmt.Fprintf(actx.out, "pair %2d residual: rotation %.6f rad, translation %.6f\n",
			residual.Index, residual.Rotation, residual.Translation)
	}
	return nil
}

// readPoseArg accepts either a path to an OpenCV-format YAML pose file or the
// 16 values of a row-major 4x4 matrix.
func readPoseArg(arg string) (*spatialmath.Pose, error) {
	if pose, err := posefile.ParseRowMajor(arg); err == nil {
		return pose, nil
	}
	return posefile.Load(arg)
}
