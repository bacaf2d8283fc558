package pointcloud

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/geo/r3"
)

// ToCSV writes the cloud as comma-separated x,y,z rows, appending r,g,b and
// snr columns when the cloud carries them. Values use three decimals, matching
// the format the downstream analysis scripts expect.
func ToCSV(cloud PointCloud, out io.Writer) error {
	return writeDelimited(cloud, out, ",")
}

// ToTXT writes the cloud like ToCSV but space-separated.
func ToTXT(cloud PointCloud, out io.Writer) error {
	return writeDelimited(cloud, out, " ")
}

func writeDelimited(cloud PointCloud, out io.Writer, delimiter string) error {
	meta := cloud.MetaData()
	var err error
	cloud.Iterate(func(p r3.Vector, d Data) bool {
		fields := []string{
			fmt.Sprintf("%.3f", p.X),
			fmt.Sprintf("%.3f", p.Y),
			fmt.Sprintf("%.3f", p.Z),
		}
		if meta.HasColor {
			fields = append(fields,
				fmt.Sprintf("%d", d.R), fmt.Sprintf("%d", d.G), fmt.Sprintf("%d", d.B))
		}
		if meta.HasSNR {
			fields = append(fields, fmt.Sprintf("%.3f", d.SNR))
		}
		_, err = fmt.Fprintln(out, strings.Join(fields, delimiter))
		return err == nil
	})
	return err
}
