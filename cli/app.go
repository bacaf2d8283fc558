// Package cli implements the handeye command line interface.
package cli

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zivid/handeye-go/handeye"
	"github.com/zivid/handeye-go/logging"
)

const (
	calibrateFlagType      = "type"
	calibrateFlagMinPairs  = "min-pose-pairs"
	calibrateFlagTolerance = "degeneracy-tolerance"

	convertFlagOrder   = "order"
	convertFlagDegrees = "degrees"

	transformFlagFormat = "format"
	transformFlagAscii  = "ascii"
)

// AppOptions customizes the CLI app. The zero value is usable.
type AppOptions struct {
	// Solver performs the hand-eye optimization for the calibrate command.
	// Without one, solving reports that a vendor solver must be supplied;
	// dataset collection and export still work.
	Solver handeye.Solver
	Logger logging.Logger

	// In and Out override stdin/stdout, for tests.
	In  io.Reader
	Out io.Writer
}

type appContext struct {
	solver handeye.Solver
	logger logging.Logger
	in     io.Reader
	out    io.Writer
}

// NewApp returns the handeye CLI app.
func NewApp(opts AppOptions) *cli.App {
	actx := &appContext{
		solver: opts.Solver,
		logger: opts.Logger,
		in:     opts.In,
		out:    opts.Out,
	}
	if actx.logger == nil {
		actx.logger = logging.NewLogger("handeye")
	}
	if actx.in == nil {
		actx.in = os.Stdin
	}
	if actx.out == nil {
		actx.out = os.Stdout
	}

	return &cli.App{
		Name:  "handeye",
		Usage: "collect hand-eye calibration datasets and convert robot poses",
		Commands: []*cli.Command{
			{
				Name:  "calibrate",
				Usage: "interactively collect robot/target pose pairs and solve",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  calibrateFlagType,
						Value: "eye-in-hand",
						Usage: "calibration type: eye-in-hand or eye-to-hand",
					},
					&cli.IntFlag{
						Name:  calibrateFlagMinPairs,
						Value: handeye.DefaultMinPosePairs,
						Usage: "smallest dataset a solve will accept",
					},
					&cli.Float64Flag{
						Name:  calibrateFlagTolerance,
						Usage: "duplicate robot pose rejection tolerance",
					},
				},
				Action: actx.calibrateAction,
			},
			{
				Name:      "convert",
				Usage:     "print every rotation encoding of a pose",
				ArgsUsage: "<pose.yaml | 16 row-major values>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  convertFlagOrder,
						Value: "xyz",
						Usage: "roll-pitch-yaw application order (xyz, xzy, yxz, yzx, zxy, zyx)",
					},
					&cli.BoolFlag{
						Name:  convertFlagDegrees,
						Usage: "print angles in degrees as well",
					},
				},
				Action: actx.convertAction,
			},
			{
				Name:      "transform",
				Usage:     "apply a saved pose to a PLY point cloud",
				ArgsUsage: "<pose.yaml> <in.ply> <out.{ply,csv,txt}>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  transformFlagFormat,
						Usage: "output format, inferred from the output extension if unset",
					},
					&cli.BoolFlag{
						Name:  transformFlagAscii,
						Usage: "write PLY output as ascii instead of binary",
					},
				},
				Action: actx.transformAction,
			},
		},
	}
}
