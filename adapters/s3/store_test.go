package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLocation(t *testing.T) {
	bucket, key, err := splitLocation("s3://rasters/req-1/2020/06/01/00/00/00/scene.nc")
	require.NoError(t, err)
	assert.Equal(t, "rasters", bucket)
	assert.Equal(t, "req-1/2020/06/01/00/00/00/scene.nc", key)
}

func TestSplitLocationRejectsMalformed(t *testing.T) {
	for _, loc := range []string{"https://rasters/key", "s3://", "s3://bucket-only"} {
		if _, _, err := splitLocation(loc); err == nil {
			t.Errorf("splitLocation(%q) expected error, got nil", loc)
		}
	}
}
