package grid

import (
	"fmt"
	"time"

	"rastercube/internal/errors"
)

// Kind tags the axis set of a GriddedArray. The only structural
// difference between variants is whether a time axis is present, so a
// tagged variant beats a type hierarchy here.
type Kind int

const (
	// SpatialOnly is a pure (y, x) plane with no time axis.
	SpatialOnly Kind = iota
	// SpatialTime is a (time, y, x) stack with one plane per instant.
	SpatialTime
)

// GriddedArray is an immutable, lazily-materialized n-dimensional array
// with named spatial axes and an optional time axis. Merges always build
// new instances; nothing here mutates in place.
type GriddedArray struct {
	kind   Kind
	geo    Geometry
	times  []time.Time
	planes []Plane
}

// NewSpatial builds a spatial-only array from one plane on a geometry.
func NewSpatial(geo Geometry, p Plane) (GriddedArray, error) {
	if p.Rows() != geo.Rows() || p.Cols() != geo.Cols() {
		return GriddedArray{}, errors.DimensionMismatch(fmt.Sprintf(
			"plane is %dx%d but geometry is %dx%d",
			p.Rows(), p.Cols(), geo.Rows(), geo.Cols()))
	}
	return GriddedArray{kind: SpatialOnly, geo: geo, planes: []Plane{p}}, nil
}

// NewSpatialTime builds a single-instant (time, y, x) array, the
// length-1 time-axis expansion applied to timed bands before merging.
func NewSpatialTime(geo Geometry, t time.Time, p Plane) (GriddedArray, error) {
	a, err := NewSpatial(geo, p)
	if err != nil {
		return GriddedArray{}, err
	}
	a.kind = SpatialTime
	a.times = []time.Time{t}
	return a, nil
}

// Kind returns the variant tag
func (a GriddedArray) Kind() Kind { return a.kind }

// HasTime reports whether a time axis is present
func (a GriddedArray) HasTime() bool { return a.kind == SpatialTime }

// Geometry returns the spatial frame
func (a GriddedArray) Geometry() Geometry { return a.geo }

// Times returns a copy of the time axis coordinates, nil for
// spatial-only arrays.
func (a GriddedArray) Times() []time.Time {
	if a.times == nil {
		return nil
	}
	out := make([]time.Time, len(a.times))
	copy(out, a.times)
	return out
}

// TimeLen returns the time axis length, 0 for spatial-only arrays.
func (a GriddedArray) TimeLen() int { return len(a.times) }

// PlaneAt returns the i-th plane along the time axis. For spatial-only
// arrays the single plane sits at index 0.
func (a GriddedArray) PlaneAt(i int) Plane { return a.planes[i] }

// PlaneCount returns the number of stacked planes.
func (a GriddedArray) PlaneCount() int { return len(a.planes) }

// Dims returns the axis names in order, time first when present.
func (a GriddedArray) Dims() []string {
	if a.HasTime() {
		return []string{"time", "y", "x"}
	}
	return []string{"y", "x"}
}

// Signature identifies the spatial shape of a variable: the sorted set
// of spatial axis names present and their sizes. The combiner's fallback
// groups variables by it.
type Signature struct {
	Axes string // sorted spatial axis names, comma-joined
	Rows int
	Cols int
}

// SpatialSignature returns the array's spatial signature.
func (a GriddedArray) SpatialSignature() Signature {
	return Signature{Axes: "x,y", Rows: a.geo.Rows(), Cols: a.geo.Cols()}
}

// String renders the signature as a grouping key
func (s Signature) String() string {
	return fmt.Sprintf("%s:%dx%d", s.Axes, s.Rows, s.Cols)
}
