package grid

import (
	"fmt"

	"rastercube/internal/errors"
)

// ConcatTime concatenates timed arrays along the time axis, in the order
// given, into a new array. Every input must carry a time axis and share
// the first input's geometry exactly; a mismatched grid is a
// DIMENSION_MISMATCH, never an implicit resample. Inputs are not
// mutated.
func ConcatTime(arrays []GriddedArray) (GriddedArray, error) {
	if len(arrays) == 0 {
		return GriddedArray{}, errors.DimensionMismatch("nothing to concatenate")
	}
	if len(arrays) == 1 {
		return arrays[0], nil
	}

	ref := arrays[0]
	if !ref.HasTime() {
		return GriddedArray{}, errors.DimensionMismatch("cannot concatenate an array without a time axis")
	}

	out := GriddedArray{kind: SpatialTime, geo: ref.geo}
	for i, a := range arrays {
		if !a.HasTime() {
			return GriddedArray{}, errors.DimensionMismatch(
				fmt.Sprintf("array %d has no time axis", i))
		}
		if !a.geo.Equal(ref.geo) {
			return GriddedArray{}, errors.DimensionMismatch(fmt.Sprintf(
				"array %d grid (%dx%d, %s) does not match reference (%dx%d, %s)",
				i, a.geo.Rows(), a.geo.Cols(), a.geo.CRS,
				ref.geo.Rows(), ref.geo.Cols(), ref.geo.CRS))
		}
		out.times = append(out.times, a.times...)
		out.planes = append(out.planes, a.planes...)
	}
	return out, nil
}
