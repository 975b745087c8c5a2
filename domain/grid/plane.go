package grid

import (
	"fmt"
	"sync"
)

// Plane is a deferred 2-D band of pixels. Construction never performs
// pixel I/O; the wrapped read function runs only when a consumer forces
// the plane. A successful read is memoized so repeated forcing is cheap
// and deterministic; a failed read is not, so the next force retries it.
type Plane struct {
	st *planeState
}

type planeState struct {
	rows, cols int
	read       func() ([]float64, error)

	mu   sync.Mutex
	data []float64
	done bool
}

// NewPlane wraps a materialization function for a rows x cols band. The
// function must return row-major values of exactly rows*cols length.
func NewPlane(rows, cols int, read func() ([]float64, error)) Plane {
	return Plane{st: &planeState{rows: rows, cols: cols, read: read}}
}

// Eager builds an already-materialized plane, mostly for fixtures and for
// planes derived from in-memory data.
func Eager(rows, cols int, values []float64) Plane {
	return NewPlane(rows, cols, func() ([]float64, error) {
		return values, nil
	})
}

// Rows returns the y size
func (p Plane) Rows() int { return p.st.rows }

// Cols returns the x size
func (p Plane) Cols() int { return p.st.cols }

// Materialize forces the plane and returns its row-major pixel values.
// The underlying read runs at most once after it has succeeded; failures
// surface to the caller without being latched, so a transient miss at
// the consumption boundary can be recovered by forcing again.
func (p Plane) Materialize() ([]float64, error) {
	s := p.st
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return s.data, nil
	}
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(data) != s.rows*s.cols {
		return nil, fmt.Errorf("plane read returned %d values, want %d (%dx%d)",
			len(data), s.rows*s.cols, s.rows, s.cols)
	}
	s.data = data
	s.done = true
	return s.data, nil
}

// At forces the plane and returns the value at row r, column c.
func (p Plane) At(r, c int) (float64, error) {
	data, err := p.Materialize()
	if err != nil {
		return 0, err
	}
	return data[r*p.st.cols+c], nil
}
