package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"rastercube/internal/errors"
	"rastercube/internal/testkit"
	"rastercube/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathRecorder is an inner store that records the local paths it was
// asked to open and reads the file to prove the spool worked.
type pathRecorder struct {
	mu       sync.Mutex
	paths    []string
	contents []string
}

func (p *pathRecorder) Open(ctx context.Context, location string) (ports.RasterSource, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.paths = append(p.paths, location)
	p.contents = append(p.contents, string(data))
	p.mu.Unlock()
	return &testkit.Source{Geo: testkit.Grid(1, 1), Bands: [][]float64{{0}}}, nil
}

func TestStoreSpoolsAndDedupes(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("netcdf-bytes"))
	}))
	defer server.Close()

	inner := &pathRecorder{}
	store := NewStore(inner, server.Client())
	defer store.Close()

	url := server.URL + "/data/scene.nc?X-Amz-Signature=abc"
	_, err := store.Open(context.Background(), url)
	require.NoError(t, err)
	_, err = store.Open(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load(), "second open must reuse the spooled file")
	require.Len(t, inner.paths, 2)
	assert.Equal(t, inner.paths[0], inner.paths[1])
	assert.Equal(t, "netcdf-bytes", inner.contents[0])
	assert.Equal(t, ".nc", inner.paths[0][len(inner.paths[0])-3:], "query string must not leak into the extension")
}

// Concurrent opens of one location share a single download; the second
// caller must wait instead of truncating the spool file the first
// caller's decoder is reading.
func TestStoreSerializesConcurrentFetchesOfOneLocation(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("netcdf-bytes"))
	}))
	defer server.Close()

	inner := &pathRecorder{}
	store := NewStore(inner, server.Client())
	defer store.Close()

	url := server.URL + "/shared/scene.nc"
	const openers = 4
	var wg sync.WaitGroup
	errs := make([]error, openers)
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Open(context.Background(), url)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "opener %d", i)
	}
	assert.Equal(t, int64(1), hits.Load(), "one download shared by all openers")

	require.Len(t, inner.paths, openers)
	for _, p := range inner.paths {
		assert.Equal(t, inner.paths[0], p)
	}
	for _, c := range inner.contents {
		assert.Equal(t, "netcdf-bytes", c)
	}
}

// A failed download is not cached; the next open fetches again, which is
// what lets the assembler's retry policy recover transient misses.
func TestStoreRetriesFailedDownloadOnNextOpen(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("netcdf-bytes"))
	}))
	defer server.Close()

	inner := &pathRecorder{}
	store := NewStore(inner, server.Client())
	defer store.Close()

	url := server.URL + "/flaky.nc"
	_, err := store.Open(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTransientIO, errors.GetCode(err))

	_, err = store.Open(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestStorePassesLocalPathsThrough(t *testing.T) {
	inner := testkit.NewStore().Add("/tmp/local.nc", &testkit.Source{
		Geo:   testkit.Grid(1, 1),
		Bands: [][]float64{{0}},
	})
	store := NewStore(inner, nil)
	defer store.Close()

	_, err := store.Open(context.Background(), "/tmp/local.nc")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.Opens("/tmp/local.nc"))
}

func TestStoreReportsHTTPErrorsAsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	store := NewStore(&pathRecorder{}, server.Client())
	defer store.Close()

	_, err := store.Open(context.Background(), server.URL+"/missing.nc")
	require.Error(t, err)
	assert.Equal(t, errors.CodeTransientIO, errors.GetCode(err))
}

func TestStoreCloseRemovesSpool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	inner := &pathRecorder{}
	store := NewStore(inner, server.Client())
	_, err := store.Open(context.Background(), server.URL+"/a.nc")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, statErr := os.Stat(inner.paths[0])
	assert.True(t, os.IsNotExist(statErr))
}
