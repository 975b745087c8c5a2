package grid

import "rastercube/domain/core"

// Dataset is the terminal assembly output: variable name to GriddedArray
// plus a fixed provenance attribute mapping. It is immutable; the binder
// derives a new Dataset rather than mutating one.
type Dataset struct {
	vars  map[core.VariableName]GriddedArray
	order []core.VariableName
	attrs map[string]string
}

// NewDataset builds a dataset from merged variables, preserving their
// encounter order.
func NewDataset(vars []Named) *Dataset {
	d := &Dataset{
		vars:  make(map[core.VariableName]GriddedArray, len(vars)),
		attrs: map[string]string{},
	}
	for _, v := range vars {
		if _, dup := d.vars[v.Name]; !dup {
			d.order = append(d.order, v.Name)
		}
		d.vars[v.Name] = v.Array
	}
	return d
}

// Variable looks up one variable's array.
func (d *Dataset) Variable(name core.VariableName) (GriddedArray, bool) {
	a, ok := d.vars[name]
	return a, ok
}

// VariableNames returns the variable names in encounter order.
func (d *Dataset) VariableNames() []core.VariableName {
	out := make([]core.VariableName, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of variables
func (d *Dataset) Len() int { return len(d.vars) }

// WithAttributes returns a new dataset carrying the given provenance
// attributes. Array contents are shared, never copied or touched.
func (d *Dataset) WithAttributes(attrs map[string]string) *Dataset {
	next := &Dataset{
		vars:  d.vars,
		order: d.order,
		attrs: make(map[string]string, len(attrs)),
	}
	for k, v := range attrs {
		next.attrs[k] = v
	}
	return next
}

// Attribute looks up one provenance attribute.
func (d *Dataset) Attribute(key string) (string, bool) {
	v, ok := d.attrs[key]
	return v, ok
}

// Attributes returns a copy of the provenance attribute mapping.
func (d *Dataset) Attributes() map[string]string {
	out := make(map[string]string, len(d.attrs))
	for k, v := range d.attrs {
		out[k] = v
	}
	return out
}
