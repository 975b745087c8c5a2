package testkit

import (
	"sync"

	"rastercube/domain/request"
	"rastercube/ports"
)

// Factory hands out a fixed store for every run and records the bucket
// and credentials it was scoped with.
type Factory struct {
	Store ports.RasterStore

	mu         sync.Mutex
	lastBucket request.BucketSpec
	lastCreds  request.Credentials
	runs       int
}

// ForRun returns the canned store.
func (f *Factory) ForRun(bucket request.BucketSpec, creds request.Credentials) ports.RasterStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBucket = bucket
	f.lastCreds = creds
	f.runs++
	return f.Store
}

// LastScope returns the bucket and credentials of the most recent run.
func (f *Factory) LastScope() (request.BucketSpec, request.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBucket, f.lastCreds
}

// Runs reports how many run-scoped stores were created.
func (f *Factory) Runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}
