package ports

import "rastercube/domain/request"

// RasterStoreFactory builds a raster store scoped to one assembly run's
// object-store credentials. Keeping the store run-scoped is what keeps
// credentials out of process-wide mutable state.
type RasterStoreFactory interface {
	ForRun(bucket request.BucketSpec, creds request.Credentials) RasterStore
}
