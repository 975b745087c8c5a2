package s3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"rastercube/domain/request"
	apperrors "rastercube/internal/errors"
	"rastercube/ports"
)

// Store implements ports.RasterStore for s3:// locations by spooling the
// object to local disk and delegating to an inner store (the NetCDF
// reader) for decoding. One Store is scoped to one assembly run: it is
// built from that run's credentials and keeps nothing global.
//
// Downloaded objects live in the spool directory until Close, so planes
// forced after assembly still find their backing file.
type Store struct {
	inner  ports.RasterStore
	bucket request.BucketSpec
	creds  request.Credentials

	mu       sync.Mutex
	spoolDir string
	spooled  map[string]*spoolEntry
}

// spoolEntry serializes fetches of one location. The first caller
// downloads while concurrent callers wait on the entry lock, then reuse
// the local path. A failed fetch leaves the entry empty so the next
// open attempts again.
type spoolEntry struct {
	mu    sync.Mutex
	local string
}

// NewStore creates a run-scoped fetching store around an inner decoder.
func NewStore(inner ports.RasterStore, bucket request.BucketSpec, creds request.Credentials) *Store {
	return &Store{
		inner:   inner,
		bucket:  bucket,
		creds:   creds,
		spooled: map[string]*spoolEntry{},
	}
}

// Open fetches the object behind an s3:// location (once per run) and
// opens the local copy. Non-s3 locations pass straight through to the
// inner store.
func (s *Store) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	if !strings.HasPrefix(location, "s3://") {
		return s.inner.Open(ctx, location)
	}

	local, err := s.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.inner.Open(ctx, local)
}

// Close removes the spool directory and every fetched object in it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spoolDir == "" {
		return nil
	}
	dir := s.spoolDir
	s.spoolDir = ""
	s.spooled = map[string]*spoolEntry{}
	return os.RemoveAll(dir)
}

func (s *Store) fetch(ctx context.Context, location string) (string, error) {
	s.mu.Lock()
	if s.spoolDir == "" {
		dir, err := os.MkdirTemp("", "rastercube-spool-")
		if err != nil {
			s.mu.Unlock()
			return "", apperrors.TransientIO("creating spool directory", err)
		}
		s.spoolDir = dir
	}
	dir := s.spoolDir
	entry, ok := s.spooled[location]
	if !ok {
		entry = &spoolEntry{}
		s.spooled[location] = entry
	}
	s.mu.Unlock()

	// Two opens of the same location must never download into the same
	// spool path at once: the second would truncate the file while the
	// first caller's decoder reads it.
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.local != "" {
		return entry.local, nil
	}

	local, err := s.download(ctx, dir, location)
	if err != nil {
		return "", err
	}
	entry.local = local
	return local, nil
}

func (s *Store) download(ctx context.Context, dir, location string) (string, error) {
	bucketName, key, err := splitLocation(location)
	if err != nil {
		return "", err
	}

	client := newClient(s.bucket, s.creds)
	obj, err := client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("fetching %s", location), err)
	}
	defer obj.Body.Close()

	sum := sha256.Sum256([]byte(location))
	local := filepath.Join(dir, hex.EncodeToString(sum[:8])+filepath.Ext(key))

	f, err := os.Create(local)
	if err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(local)
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	return local, nil
}

func splitLocation(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" || u.Host == "" || u.Path == "" {
		return "", "", apperrors.InvalidRequest(fmt.Sprintf("malformed object location %q", location))
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
