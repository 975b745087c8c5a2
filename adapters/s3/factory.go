package s3

import (
	"rastercube/domain/request"
	"rastercube/ports"
)

// Factory implements ports.RasterStoreFactory: each assembly run gets a
// fresh fetching Store scoped to that run's bucket and credentials.
type Factory struct {
	inner ports.RasterStore
}

// NewFactory creates a factory whose run stores decode with inner.
func NewFactory(inner ports.RasterStore) *Factory {
	return &Factory{inner: inner}
}

// ForRun builds the run-scoped store.
func (f *Factory) ForRun(bucket request.BucketSpec, creds request.Credentials) ports.RasterStore {
	return NewStore(f.inner, bucket, creds)
}
