// Package testkit provides in-memory raster fixtures for exercising the
// assembler without remote I/O.
package testkit

import (
	"context"
	"fmt"
	"sync"

	"rastercube/domain/grid"
	"rastercube/domain/request"
	apperrors "rastercube/internal/errors"
	"rastercube/ports"
)

// Source is an in-memory raster file: a geometry plus one row-major
// float slice per band.
type Source struct {
	Geo   grid.Geometry
	Bands [][]float64

	mu    sync.Mutex
	reads int
}

// Geometry returns the fixture's spatial frame
func (s *Source) Geometry() grid.Geometry { return s.Geo }

// BandCount returns the number of fixture bands
func (s *Source) BandCount() int { return len(s.Bands) }

// Band returns a lazy plane over the fixture data, counting forced reads.
func (s *Source) Band(number int) (grid.Plane, error) {
	if number < 1 || number > len(s.Bands) {
		return grid.Plane{}, apperrors.BandOutOfRange(fmt.Sprintf(
			"band %d outside declared range 1..%d", number, len(s.Bands)))
	}
	data := s.Bands[number-1]
	return grid.NewPlane(s.Geo.Rows(), s.Geo.Cols(), func() ([]float64, error) {
		s.mu.Lock()
		s.reads++
		s.mu.Unlock()
		return data, nil
	}), nil
}

// Reads reports how many planes have been forced so far.
func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Store is an in-memory ports.RasterStore keyed by location.
type Store struct {
	mu      sync.Mutex
	sources map[string]*Source
	opens   map[string]int
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{sources: map[string]*Source{}, opens: map[string]int{}}
}

// Add registers a fixture source under a location.
func (s *Store) Add(location string, src *Source) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[location] = src
	return s
}

// Open returns the registered source; unknown locations fail like a
// network miss (transient, retryable).
func (s *Store) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens[location]++
	src, ok := s.sources[location]
	if !ok {
		return nil, apperrors.TransientIO(fmt.Sprintf("no raster at %s", location), nil)
	}
	return src, nil
}

// Opens reports how many times a location has been opened.
func (s *Store) Opens(location string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[location]
}

// FlakyStore fails the first Failures opens of each location with a
// transient error, then delegates. It exercises the retry wrapper the
// way a flaky remote would.
type FlakyStore struct {
	Inner    ports.RasterStore
	Failures int

	mu     sync.Mutex
	counts map[string]int
}

// Open fails until the per-location failure budget is spent.
func (f *FlakyStore) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[location]++
	n := f.counts[location]
	f.mu.Unlock()

	if n <= f.Failures {
		return nil, apperrors.TransientIO(fmt.Sprintf("simulated failure %d for %s", n, location), nil)
	}
	return f.Inner.Open(ctx, location)
}

// Attempts reports how many opens a location has seen, failures included.
func (f *FlakyStore) Attempts(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[location]
}

// Lister is a canned ports.ObjectLister recording the credentials it was
// handed.
type Lister struct {
	Keys []string
	Err  error

	mu        sync.Mutex
	lastCreds request.Credentials
}

// List returns the canned keys.
func (l *Lister) List(ctx context.Context, bucket request.BucketSpec, creds request.Credentials) ([]string, error) {
	l.mu.Lock()
	l.lastCreds = creds
	l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Keys, nil
}

// LastCredentials returns the credentials of the most recent List call.
func (l *Lister) LastCredentials() request.Credentials {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastCreds
}

// Grid builds a rows x cols geometry with descending y coordinates, the
// usual raster orientation.
func Grid(rows, cols int) grid.Geometry {
	y := make([]float64, rows)
	x := make([]float64, cols)
	for i := range y {
		y[i] = float64(rows - i)
	}
	for i := range x {
		x[i] = float64(i)
	}
	return grid.Geometry{Y: y, X: x, CRS: "EPSG:4326"}
}

// Ramp builds rows*cols sequential values starting at start.
func Ramp(rows, cols int, start float64) []float64 {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = start + float64(i)
	}
	return data
}
