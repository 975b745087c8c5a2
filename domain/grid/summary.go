package grid

import (
	"github.com/montanaflynn/stats"
)

// Summary holds descriptive statistics over every plane of a variable.
type Summary struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

// Summarize forces all planes and computes min/max/mean across them.
// This is a consumption-boundary operation: until it (or Materialize) is
// called, no pixel I/O has happened.
func (a GriddedArray) Summarize() (Summary, error) {
	var all []float64
	for i := 0; i < a.PlaneCount(); i++ {
		data, err := a.PlaneAt(i).Materialize()
		if err != nil {
			return Summary{}, err
		}
		all = append(all, data...)
	}

	min, err := stats.Min(all)
	if err != nil {
		return Summary{}, err
	}
	max, err := stats.Max(all)
	if err != nil {
		return Summary{}, err
	}
	mean, err := stats.Mean(all)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Min: min, Max: max, Mean: mean, Count: len(all)}, nil
}
