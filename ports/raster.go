package ports

import (
	"context"

	"rastercube/domain/grid"
)

// RasterStore opens raster sources by location (a URL, object-store key
// or local path). Opening reads only cheap structural metadata; pixel
// I/O stays deferred inside the planes a source hands out.
type RasterStore interface {
	Open(ctx context.Context, location string) (RasterSource, error)
}

// RasterSource exposes one opened raster file: its grid geometry and its
// bands as lazily-materialized 2-D planes.
type RasterSource interface {
	// Geometry returns the file's spatial frame (y/x coordinates, CRS).
	Geometry() grid.Geometry

	// BandCount returns the number of bands the file declares.
	BandCount() int

	// Band returns band number (1-based) as a deferred plane. A number
	// outside the declared range is a BAND_OUT_OF_RANGE error, which is
	// a metadata contract violation and never retried.
	Band(number int) (grid.Plane, error)
}
