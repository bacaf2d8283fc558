package pointcloud

import (
	"github.com/golang/geo/r3"

	"github.com/zivid/handeye-go/spatialmath"
)

// Transform returns a new cloud with every point mapped through the given
// pose. Payloads are carried over unchanged and the input cloud is not
// modified.
func Transform(cloud PointCloud, pose *spatialmath.Pose) (PointCloud, error) {
	positions := make([]r3.Vector, 0, cloud.Size())
	payloads := make([]Data, 0, cloud.Size())
	cloud.Iterate(func(p r3.Vector, d Data) bool {
		positions = append(positions, p)
		payloads = append(payloads, d)
		return true
	})

	out := NewWithPrealloc(len(positions))
	it := spatialmath.NewPointIterator(pose, positions)
	for i := 0; ; i++ {
		pt, ok := it.Next()
		if !ok {
			break
		}
		if err := out.Set(pt, payloads[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
