// Package netcdf adapts NetCDF rasters (classic CDF or HDF5-backed) to
// the assembler's raster ports using the pure-Go go-native-netcdf reader.
// Opening a file reads only coordinate and shape metadata; band pixels
// are read on demand when a plane is forced.
package netcdf

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"rastercube/domain/grid"
	apperrors "rastercube/internal/errors"
	"rastercube/ports"
)

// Candidate coordinate variable names, checked in order.
var (
	yNames = []string{"y", "lat", "latitude"}
	xNames = []string{"x", "lon", "longitude"}
)

// Store implements ports.RasterStore for NetCDF files on the local
// filesystem, including files spooled there by an object-store fetcher.
type Store struct{}

// NewStore creates a NetCDF raster store
func NewStore() *Store {
	return &Store{}
}

type source struct {
	path     string
	dataVar  string
	geo      grid.Geometry
	bands    int
	threeDim bool
}

// Open reads the file's structural metadata and returns a source whose
// bands stay deferred. Open failures are transient (remote rasters come
// and go) and safe to retry.
func (s *Store) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(location, "file://")
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, apperrors.TransientIO(fmt.Sprintf("opening raster %s", location), err)
	}
	defer g.Close()

	yName, y, err := coordValues(g, yNames)
	if err != nil {
		return nil, err
	}
	xName, x, err := coordValues(g, xNames)
	if err != nil {
		return nil, err
	}

	dataVar, bands, threeDim, err := pickDataVariable(g, yName, xName)
	if err != nil {
		return nil, err
	}

	return &source{
		path:     path,
		dataVar:  dataVar,
		geo:      grid.Geometry{Y: y, X: x, CRS: crsAttribute(g)},
		bands:    bands,
		threeDim: threeDim,
	}, nil
}

func (s *source) Geometry() grid.Geometry { return s.geo }

func (s *source) BandCount() int { return s.bands }

func (s *source) Band(number int) (grid.Plane, error) {
	if number < 1 || number > s.bands {
		return grid.Plane{}, apperrors.BandOutOfRange(fmt.Sprintf(
			"band %d outside declared range 1..%d in %s", number, s.bands, s.path))
	}

	rows, cols := s.geo.Rows(), s.geo.Cols()
	path, dataVar, threeDim := s.path, s.dataVar, s.threeDim
	return grid.NewPlane(rows, cols, func() ([]float64, error) {
		return readBand(path, dataVar, number, threeDim)
	}), nil
}

// readBand reopens the file and pulls one band. Reopening keeps planes
// self-contained: a forced plane never depends on a source still being
// open.
func readBand(path, dataVar string, number int, threeDim bool) ([]float64, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, apperrors.TransientIO(fmt.Sprintf("reopening raster %s", path), err)
	}
	defer g.Close()

	vg, err := g.GetVarGetter(dataVar)
	if err != nil {
		return nil, apperrors.TransientIO(fmt.Sprintf("reading variable %s of %s", dataVar, path), err)
	}

	var raw interface{}
	if threeDim {
		raw, err = vg.GetSlice(int64(number-1), int64(number))
	} else {
		raw, err = vg.Values()
	}
	if err != nil {
		return nil, apperrors.TransientIO(fmt.Sprintf("reading band %d of %s", number, path), err)
	}
	return flatten(raw)
}

// pickDataVariable finds the variable whose trailing dimensions are the
// spatial axes; its leading dimension, if any, enumerates bands.
func pickDataVariable(g api.Group, yName, xName string) (string, int, bool, error) {
	for _, name := range g.ListVariables() {
		if name == yName || name == xName {
			continue
		}
		vg, err := g.GetVarGetter(name)
		if err != nil {
			continue
		}
		dims := vg.Dimensions()
		switch {
		case len(dims) == 2 && dims[0] == yName && dims[1] == xName:
			return name, 1, false, nil
		case len(dims) == 3 && dims[1] == yName && dims[2] == xName:
			return name, int(vg.Len()), true, nil
		}
	}
	return "", 0, false, apperrors.InvalidRequest(
		fmt.Sprintf("no variable with (%s, %s) spatial axes found", yName, xName))
}

func coordValues(g api.Group, candidates []string) (string, []float64, error) {
	for _, name := range candidates {
		v, err := g.GetVariable(name)
		if err != nil || v == nil {
			continue
		}
		coords, err := flatten(v.Values)
		if err != nil {
			return "", nil, err
		}
		return name, coords, nil
	}
	return "", nil, apperrors.InvalidRequest(
		fmt.Sprintf("no coordinate variable found (tried %s)", strings.Join(candidates, ", ")))
}

// crsAttribute pulls the CRS from the usual global attribute names.
func crsAttribute(g api.Group) string {
	for _, key := range []string{"crs", "spatial_ref", "crs_wkt"} {
		if val, has := g.Attributes().Get(key); has {
			if s, ok := val.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// flatten walks arbitrarily nested numeric slices row-major into
// float64s, covering every pixel type NetCDF rasters carry.
func flatten(v interface{}) ([]float64, error) {
	var out []float64
	if err := appendValues(&out, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return out, nil
}

func appendValues(out *[]float64, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := appendValues(out, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		*out = append(*out, rv.Float())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(rv.Int()))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(rv.Uint()))
		return nil
	case reflect.Interface:
		return appendValues(out, rv.Elem())
	default:
		return apperrors.InvalidRequest(fmt.Sprintf("unsupported pixel type %s", rv.Kind()))
	}
}
