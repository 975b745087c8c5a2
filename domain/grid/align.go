package grid

import "math"

// Align resamples a onto the reference geometry by nearest-neighbour
// lookup and returns a new array. This is the explicit, opt-in alignment
// step; nothing in the assembler invokes it implicitly, mismatched grids
// fail instead. The result stays lazy: resampling happens when a plane
// is forced.
func Align(ref Geometry, a GriddedArray) GriddedArray {
	if a.geo.SameCoords(ref) {
		return a
	}
	planes := make([]Plane, len(a.planes))
	for i, p := range a.planes {
		planes[i] = resample(ref, a.geo, p)
	}
	return GriddedArray{kind: a.kind, geo: ref, times: a.Times(), planes: planes}
}

func resample(ref, src Geometry, p Plane) Plane {
	return NewPlane(ref.Rows(), ref.Cols(), func() ([]float64, error) {
		data, err := p.Materialize()
		if err != nil {
			return nil, err
		}
		yi := nearestIndices(ref.Y, src.Y)
		xi := nearestIndices(ref.X, src.X)

		cols := ref.Cols()
		srcCols := src.Cols()
		out := make([]float64, ref.Rows()*cols)
		for r := 0; r < ref.Rows(); r++ {
			for c := 0; c < cols; c++ {
				out[r*cols+c] = data[yi[r]*srcCols+xi[c]]
			}
		}
		return out, nil
	})
}

// nearestIndices maps every reference coordinate to the index of the
// closest source coordinate. Coordinates may ascend or descend (y often
// descends in rasters), so this does not assume ordering.
func nearestIndices(ref, src []float64) []int {
	out := make([]int, len(ref))
	for i, v := range ref {
		best := 0
		bestDist := math.Abs(src[0] - v)
		for j := 1; j < len(src); j++ {
			if d := math.Abs(src[j] - v); d < bestDist {
				best = j
				bestDist = d
			}
		}
		out[i] = best
	}
	return out
}
