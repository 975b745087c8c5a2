// Package httpfetch implements ports.RasterStore for http:// and
// https:// locations, the direct-URL request form. Files are downloaded
// to a spool directory and decoded by an inner store.
package httpfetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "rastercube/internal/errors"
	"rastercube/ports"
)

// Store spools remote files once per run and delegates decoding to an
// inner store. Non-HTTP locations (local paths) pass straight through.
//
// Spooled files live until Close so lazily-forced planes still find
// their backing file after assembly returns.
type Store struct {
	inner  ports.RasterStore
	client *http.Client

	mu       sync.Mutex
	spoolDir string
	spooled  map[string]*spoolEntry
}

// spoolEntry serializes fetches of one location. The first caller
// downloads while concurrent callers wait on the entry lock, then reuse
// the local path. A failed download leaves the entry empty so the next
// open attempts again.
type spoolEntry struct {
	mu    sync.Mutex
	local string
}

// NewStore creates a fetching store around an inner decoder. A nil
// client gets a default with a generous download timeout.
func NewStore(inner ports.RasterStore, client *http.Client) *Store {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Store{
		inner:   inner,
		client:  client,
		spooled: map[string]*spoolEntry{},
	}
}

// Open downloads the file behind an HTTP location (once per run) and
// opens the local copy.
func (s *Store) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return s.inner.Open(ctx, location)
	}

	local, err := s.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.inner.Open(ctx, local)
}

// Close removes the spool directory and every downloaded file in it.
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
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", apperrors.InvalidRequest(fmt.Sprintf("malformed file URL %q", location))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("fetching %s", location), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.TransientIO(fmt.Sprintf("fetching %s: status %s", location, resp.Status), nil)
	}

	sum := sha256.Sum256([]byte(location))
	local := filepath.Join(dir, hex.EncodeToString(sum[:8])+urlExt(location))

	f, err := os.Create(local)
	if err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(local)
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.TransientIO(fmt.Sprintf("spooling %s", location), err)
	}
	return local, nil
}

// urlExt extracts the filename extension from a URL path, ignoring query
// strings such as presigned-URL signatures.
func urlExt(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
