package app

import (
	"fmt"

	"rastercube/domain/core"
)

// Severity grades a diagnostic
type Severity string

const (
	// SeverityWarning marks recovered conditions the caller should know about
	SeverityWarning Severity = "warning"
	// SeverityError marks per-variable failures that removed data from the result
	SeverityError Severity = "error"
)

// Diagnostic records one non-fatal condition encountered during a run.
// The assembler never returns a truncated dataset without one of these
// explaining what is missing and why.
type Diagnostic struct {
	Severity Severity
	Code     string
	Variable core.VariableName
	// Run ties the diagnostic back to the assembly run that produced it.
	Run     core.RunID
	Message string
}

func (d Diagnostic) String() string {
	if d.Variable != "" {
		return fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.Code, d.Variable, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
}

// Diagnostics is the ordered collection of a run's diagnostics.
type Diagnostics []Diagnostic

// ForVariable filters diagnostics concerning one variable.
func (ds Diagnostics) ForVariable(name core.VariableName) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Variable == name {
			out = append(out, d)
		}
	}
	return out
}

// stampRun tags every diagnostic with the run that produced it.
func (ds Diagnostics) stampRun(run core.RunID) {
	for i := range ds {
		ds[i].Run = run
	}
}

// HasCode reports whether any diagnostic carries the given code.
func (ds Diagnostics) HasCode(code string) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}
