package grid

import "gonum.org/v1/gonum/floats"

// Geometry is the spatial frame of a raster: named y and x axes with
// their coordinate arrays, plus the CRS the coordinates live in.
type Geometry struct {
	Y   []float64
	X   []float64
	CRS string
}

// Rows returns the y axis length
func (g Geometry) Rows() int { return len(g.Y) }

// Cols returns the x axis length
func (g Geometry) Cols() int { return len(g.X) }

// Equal reports exact coordinate and CRS equality. Concatenation along
// time requires this; there is no implicit resampling.
func (g Geometry) Equal(other Geometry) bool {
	if g.CRS != other.CRS {
		return false
	}
	return floats.Equal(g.Y, other.Y) && floats.Equal(g.X, other.X)
}

// SameCoords reports exact coordinate equality ignoring CRS labels.
func (g Geometry) SameCoords(other Geometry) bool {
	return floats.Equal(g.Y, other.Y) && floats.Equal(g.X, other.X)
}
