package cli

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/zivid/handeye-go/posefile"
	"github.com/zivid/handeye-go/spatialmath"
	"github.com/zivid/handeye-go/utils"
)

func (actx *appContext) convertAction(c *cli.Context) error {
	order, err := spatialmath.ParseRotationOrder(c.String(convertFlagOrder))
	if err != nil {
		return err
	}

	var pose *spatialmath.Pose
	switch c.NArg() {
	case 1:
		pose, err = readPoseArg(c.Args().First())
	case 16:
		pose, err = posefile.ParseRowMajor(strings.Join(c.Args().Slice(), " "))
	default:
		err = errors.New("supply a pose YAML file or the 16 values of a row-major 4x4 matrix")
	}
	if err != nil {
		return err
	}

	degrees := c.Bool(convertFlagDegrees)
	out := actx.out

	fmt.Fprintln(out, "4x4 matrix (row-major):")
	fmt.Fprintf(out, "  %s\n", posefile.FormatRowMajor(pose))
	pt := pose.Point()
	fmt.Fprintf(out, "translation: [%.6f %.6f %.6f]\n", pt.X, pt.Y, pt.Z)

	q := pose.Quaternion()
	fmt.Fprintf(out, "quaternion (w x y z): [%.6f %.6f %.6f %.6f]\n", q.Real, q.Imag, q.Jmag, q.Kmag)

	aa := pose.AxisAngles()
	fmt.Fprintf(out, "axis-angle: axis [%.6f %.6f %.6f] angle %.6f rad\n", aa.RX, aa.RY, aa.RZ, aa.Theta)
	if degrees {
		fmt.Fprintf(out, "axis-angle: axis [%.6f %.6f %.6f] angle %.4f deg\n",
			aa.RX, aa.RY, aa.RZ, utils.RadToDeg(aa.Theta))
	}

	rv := pose.RotationVector()
	fmt.Fprintf(out, "rotation vector: [%.6f %.6f %.6f] rad\n", rv.X, rv.Y, rv.Z)
	if degrees {
		fmt.Fprintf(out, "rotation vector: [%.4f %.4f %.4f] deg\n",
			utils.RadToDeg(rv.X), utils.RadToDeg(rv.Y), utils.RadToDeg(rv.Z))
	}

	ea, err := pose.RollPitchYaw(order)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "roll-pitch-yaw (%s): [%.6f %.6f %.6f] rad\n", order, ea.Roll, ea.Pitch, ea.Yaw)
	if degrees {
		fmt.Fprintf(out, "roll-pitch-yaw (%s): [%.4f %.4f %.4f] deg\n",
			order, utils.RadToDeg(ea.Roll), utils.RadToDeg(ea.Pitch), utils.RadToDeg(ea.Yaw))
	}
	return nil
}
