package ports

import (
	"context"

	"rastercube/domain/request"
)

// ObjectLister lists every object key under a bucket prefix, following
// pagination to the end. Credentials are passed per call and scoped to
// one assembly run; implementations must not stash them in any shared
// state.
type ObjectLister interface {
	List(ctx context.Context, bucket request.BucketSpec, creds request.Credentials) ([]string, error)
}
