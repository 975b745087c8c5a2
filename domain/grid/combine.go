package grid

import (
	"rastercube/domain/core"
	"rastercube/internal/errors"
)

// Named pairs a variable name with its merged array.
type Named struct {
	Name  core.VariableName
	Array GriddedArray
}

// Combine unions per-variable arrays into one keyed structure. Variables
// may legitimately carry different axis sets (timed next to untimed);
// the union fails only when two variables declare the same axis name
// with different coordinate values. On such a clash the combiner falls
// back to grouping variables by spatial signature, keeps the largest
// group (ties go to the first-encountered group) and reports everything
// else as excluded. Zero input variables is the one fatal condition.
//
// Input arrays are only selected and grouped, never mutated.
func Combine(vars []Named) (selected []Named, excluded []core.VariableName, err error) {
	if len(vars) == 0 {
		return nil, nil, errors.NoData("no assemblable data: zero variables survived merging")
	}

	if unionCompatible(vars) {
		return vars, nil, nil
	}

	// Fallback: signature = (sorted spatial axis names, axis sizes).
	groups := make(map[Signature][]int)
	var order []Signature
	for i, v := range vars {
		sig := v.Array.SpatialSignature()
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], i)
	}

	best := order[0]
	for _, sig := range order[1:] {
		if len(groups[sig]) > len(groups[best]) {
			best = sig
		}
	}

	keep := make(map[int]bool, len(groups[best]))
	for _, i := range groups[best] {
		keep[i] = true
	}
	for i, v := range vars {
		if keep[i] {
			selected = append(selected, v)
		} else {
			excluded = append(excluded, v.Name)
		}
	}
	return selected, excluded, nil
}

// unionCompatible checks every shared axis name for identical coordinate
// values: y and x across all variables, time across the timed ones.
func unionCompatible(vars []Named) bool {
	ref := vars[0].Array.Geometry()
	var timeRef []int64
	haveTimeRef := false

	for _, v := range vars {
		if !v.Array.Geometry().Equal(ref) {
			return false
		}
		if !v.Array.HasTime() {
			continue
		}
		ts := v.Array.Times()
		nanos := make([]int64, len(ts))
		for i, t := range ts {
			nanos[i] = t.UnixNano()
		}
		if !haveTimeRef {
			timeRef = nanos
			haveTimeRef = true
			continue
		}
		if len(nanos) != len(timeRef) {
			return false
		}
		for i := range nanos {
			if nanos[i] != timeRef[i] {
				return false
			}
		}
	}
	return true
}
