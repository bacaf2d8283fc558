// Package pointcloud defines a point cloud container for captured 3D data and
// conversions to and from the file formats the surrounding tooling consumes.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Data is the per-point payload: an optional RGB color and an optional
// signal-to-noise ratio, both as reported by the camera.
type Data struct {
	HasColor bool
	R, G, B  uint8
	HasSNR   bool
	SNR      float64
}

// MetaData describes what is stored in a point cloud and its bounding box.
type MetaData struct {
	HasColor bool
	HasSNR   bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// PointCloud is a general purpose container of points. The basic
// implementation is sparse and keeps insertion order.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns the accumulated meta data.
	MetaData() MetaData

	// Set places the given point in the cloud, replacing the payload of an
	// existing point at the same position.
	Set(p r3.Vector, d Data) error

	// At returns the payload of the point at the given position, if any.
	At(x, y, z float64) (Data, bool)

	// Iterate calls fn for every point in insertion order until fn returns
	// false.
	Iterate(fn func(p r3.Vector, d Data) bool)
}

// NewMetaData returns a MetaData with an empty bounding box.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge folds one point into the meta data.
func (meta *MetaData) Merge(p r3.Vector, d Data) {
	if d.HasColor {
		meta.HasColor = true
	}
	if d.HasSNR {
		meta.HasSNR = true
	}
	meta.MinX = math.Min(meta.MinX, p.X)
	meta.MaxX = math.Max(meta.MaxX, p.X)
	meta.MinY = math.Min(meta.MinY, p.Y)
	meta.MaxY = math.Max(meta.MaxY, p.Y)
	meta.MinZ = math.Min(meta.MinZ, p.Z)
	meta.MaxZ = math.Max(meta.MaxZ, p.Z)
}
