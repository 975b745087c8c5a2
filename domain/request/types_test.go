package request

import (
	"testing"
	"time"

	apperrors "rastercube/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directMetadata() Metadata {
	return Metadata{
		ProviderName:  "cecil",
		DatasetID:     "ds-1",
		DatasetName:   "canopy",
		DatasetCRS:    "EPSG:4326",
		AOIID:         "aoi-1",
		DataRequestID: "req-1",
		Files: []FileDescriptor{
			{
				URL: "https://example.com/a.nc",
				Bands: []BandDescriptor{
					{Number: 1, VariableName: "ndvi", Time: "2020-01-01", TimePattern: "%Y-%m-%d"},
					{Number: 2, VariableName: "ndvi", Time: "2021-01-01", TimePattern: "%Y-%m-%d"},
				},
			},
		},
	}
}

func TestValidateDirectForm(t *testing.T) {
	require.NoError(t, directMetadata().Validate())
}

func TestValidateRejectsDuplicateBandNumbers(t *testing.T) {
	m := directMetadata()
	m.Files[0].Bands[1].Number = 1
	err := m.Validate()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidRequest, apperrors.GetCode(err))
}

func TestValidateRejectsZeroBasedBands(t *testing.T) {
	m := directMetadata()
	m.Files[0].Bands[0].Number = 0
	require.Error(t, m.Validate())
}

func TestValidateRejectsMissingVariableName(t *testing.T) {
	m := directMetadata()
	m.Files[0].Bands[0].VariableName = ""
	require.Error(t, m.Validate())
}

func TestValidateRequiresExactlyOneInputForm(t *testing.T) {
	var empty Metadata
	require.Error(t, empty.Validate())

	both := directMetadata()
	both.Bucket = &BucketSpec{Name: "b"}
	require.Error(t, both.Validate())
}

func TestValidateObjectStoreForm(t *testing.T) {
	m := Metadata{
		ProviderName:  "cecil",
		AOIID:         "aoi-1",
		DataRequestID: "req-1",
		Bucket:        &BucketSpec{Name: "rasters", Prefix: "req-1/"},
		Credentials: &Credentials{
			AccessKeyID:     "AKIA...",
			SecretAccessKey: "secret",
			SessionToken:    "token",
		},
		FileMapping: map[string]FileLayout{
			"scene": {Bands: []string{"ndvi", "evi"}, DType: "float32"},
		},
	}
	require.NoError(t, m.Validate())

	m.Credentials = nil
	require.Error(t, m.Validate())
}

func TestCredentialsExpired(t *testing.T) {
	now := time.Now()
	c := Credentials{Expiration: now.Add(-time.Minute)}
	assert.True(t, c.Expired(now))

	c.Expiration = now.Add(time.Minute)
	assert.False(t, c.Expired(now))

	// Zero expiration means the issuer declared none.
	assert.False(t, Credentials{}.Expired(now))
}

func TestAttributes(t *testing.T) {
	m := directMetadata()
	attrs := m.Attributes("")
	assert.Equal(t, "cecil", attrs["provider_name"])
	assert.Equal(t, "EPSG:4326", attrs["dataset_crs"])
	assert.Equal(t, "req-1", attrs["data_request_id"])

	// Explicit CRS (from the object-store reference file) wins.
	attrs = m.Attributes("EPSG:3857")
	assert.Equal(t, "EPSG:3857", attrs["dataset_crs"])
}
