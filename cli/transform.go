package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"github.com/zivid/handeye-go/pointcloud"
	"github.com/zivid/handeye-go/posefile"
)

func (actx *appContext) transformAction(c *cli.Context) error {
	if c.NArg() != 3 {
		return errors.New("usage: handeye transform <pose.yaml> <in.ply> <out.{ply,csv,txt}>")
	}
	posePath, inPath, outPath := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

	format := c.String(transformFlagFormat)
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(outPath), ".")
	}
	switch format {
	case "ply", "csv", "txt":
	default:
		return errors.Errorf("unsupported output format %q, want ply, csv or txt", format)
	}

	pose, err := posefile.Load(posePath)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	cloud, err := pointcloud.ReadPLY(in)
	goutils.UncheckedErrorFunc(in.Close)
	if err != nil {
		return err
	}

	transformed, err := pointcloud.Transform(cloud, pose)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(out.Close)

	switch format {
	case "ply":
		plyFormat := pointcloud.PLYBinary
		if c.Bool(transformFlagAscii) {
			plyFormat = pointcloud.PLYAscii
		}
		err = pointcloud.WritePLY(transformed, out, plyFormat)
	case "csv":
		err = pointcloud.ToCSV(transformed, out)
	case "txt":
		err = pointcloud.ToTXT(transformed, out)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(actx.out, "wrote %d transformed points to %s\n", transformed.Size(), outPath)
	return nil
}
