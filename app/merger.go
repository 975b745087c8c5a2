package app

import (
	"fmt"
	"sort"
	"time"

	"rastercube/domain/core"
	"rastercube/domain/grid"
	apperrors "rastercube/internal/errors"
	"rastercube/internal/timeparse"
)

// loadedBand is one successfully loaded plane, still deferred, tied back
// to its variable, instant and encounter slot.
type loadedBand struct {
	variable core.VariableName
	when     time.Time
	geo      grid.Geometry
	plane    grid.Plane
	order    int
}

// mergeVariable turns every loaded plane of one variable into its final
// array. Planes are stable-sorted by instant (sentinel first, encounter
// order breaking ties), timed planes are expanded with a length-1 time
// axis and concatenated, and untimed planes stay pure spatial.
//
// A variable carrying both timed and untimed planes is rejected rather
// than silently keeping only part of the data; so is a timed stack on
// mismatched grids, unless alignment was explicitly enabled.
func mergeVariable(name core.VariableName, bands []loadedBand, align bool) (grid.GriddedArray, Diagnostics, error) {
	sorted := make([]loadedBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].when.Before(sorted[j].when)
	})

	var timed, untimed []loadedBand
	for _, b := range sorted {
		if timeparse.IsSentinel(b.when) {
			untimed = append(untimed, b)
		} else {
			timed = append(timed, b)
		}
	}

	if len(timed) > 0 && len(untimed) > 0 {
		return grid.GriddedArray{}, nil, apperrors.DimensionMismatch(fmt.Sprintf(
			"variable %s mixes %d timed and %d untimed planes; a variable must be wholly timed or wholly untimed",
			name, len(timed), len(untimed)))
	}

	if len(timed) > 0 {
		arrays := make([]grid.GriddedArray, 0, len(timed))
		ref := timed[0].geo
		for _, b := range timed {
			a, err := grid.NewSpatialTime(b.geo, b.when, b.plane)
			if err != nil {
				return grid.GriddedArray{}, nil, err
			}
			if align && !a.Geometry().SameCoords(ref) {
				a = grid.Align(ref, a)
			}
			arrays = append(arrays, a)
		}
		merged, err := grid.ConcatTime(arrays)
		if err != nil {
			return grid.GriddedArray{}, nil, err
		}
		return merged, nil, nil
	}

	// Wholly untimed: there is no axis to stack duplicates on, so the
	// first plane wins and any surplus is reported instead of silently
	// vanishing.
	var diags Diagnostics
	if len(untimed) > 1 {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     diagSurplusPlanes,
			Variable: name,
			Message: fmt.Sprintf("%d untimed planes loaded; keeping the first, discarding %d",
				len(untimed), len(untimed)-1),
		})
	}
	a, err := grid.NewSpatial(untimed[0].geo, untimed[0].plane)
	if err != nil {
		return grid.GriddedArray{}, diags, err
	}
	return a, diags, nil
}

// diagSurplusPlanes flags untimed duplicates dropped during merging.
const diagSurplusPlanes = "SURPLUS_PLANES"
