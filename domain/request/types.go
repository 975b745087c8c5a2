// Package request models the already-resolved, already-authorized
// metadata an assembly run consumes. The metadata arrives in one of two
// equivalent shapes: an explicit file list with per-band layouts, or an
// object-store prefix with temporary credentials and a filename-to-layout
// mapping.
package request

import (
	"fmt"
	"time"

	"rastercube/domain/core"
	"rastercube/internal/errors"
)

// Metadata describes one assembly run. It is immutable and supplied once
// per run; credentials travel inside it rather than through any ambient
// process-wide state, so concurrent runs never share or race on them.
type Metadata struct {
	ProviderName  string         `json:"provider_name"`
	DatasetID     string         `json:"dataset_id"`
	DatasetName   string         `json:"dataset_name"`
	DatasetCRS    string         `json:"dataset_crs,omitempty"`
	AOIID         core.AOIID     `json:"aoi_id"`
	DataRequestID core.RequestID `json:"data_request_id"`

	// Direct-URL form
	Files []FileDescriptor `json:"files,omitempty"`

	// Object-store form
	Bucket      *BucketSpec           `json:"bucket,omitempty"`
	Credentials *Credentials          `json:"credentials,omitempty"`
	FileMapping map[string]FileLayout `json:"file_mapping,omitempty"`
}

// FileDescriptor locates one raster file and declares its band layout.
type FileDescriptor struct {
	URL   string           `json:"url"`
	Bands []BandDescriptor `json:"bands"`
}

// BandDescriptor tags one band inside a raster file.
type BandDescriptor struct {
	Number       int      `json:"number"` // 1-based
	VariableName string   `json:"variable_name"`
	Time         string   `json:"time,omitempty"`
	TimePattern  string   `json:"time_pattern,omitempty"`
	DType        string   `json:"dtype,omitempty"`
	NoData       *float64 `json:"nodata,omitempty"`
}

// BucketSpec names an object-store bucket and key prefix.
type BucketSpec struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
	Region string `json:"region,omitempty"`
}

// Credentials are temporary object-store credentials scoped to one
// assembly run.
type Credentials struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
	Expiration      time.Time `json:"expiration"`
}

// Expired reports whether the credentials are past their expiration.
func (c Credentials) Expired(now time.Time) bool {
	return !c.Expiration.IsZero() && now.After(c.Expiration)
}

// FileLayout declares the positional band layout of one mapped filename:
// band N (1-based) carries the N-th variable name.
type FileLayout struct {
	Bands []string `json:"bands"`
	DType string   `json:"dtype,omitempty"`
}

// UsesObjectStore reports which input form the metadata carries.
func (m Metadata) UsesObjectStore() bool {
	return m.Bucket != nil
}

// Validate checks the structural invariants: exactly one input form,
// unique 1-based band numbers within each file, and non-empty variable
// names.
func (m Metadata) Validate() error {
	hasFiles := len(m.Files) > 0
	hasBucket := m.Bucket != nil

	if hasFiles && hasBucket {
		return errors.InvalidRequest("metadata carries both a file list and a bucket descriptor")
	}
	if !hasFiles && !hasBucket {
		return errors.InvalidRequest("metadata carries neither a file list nor a bucket descriptor")
	}

	if hasBucket {
		if m.Bucket.Name == "" {
			return errors.InvalidRequest("bucket name is required")
		}
		if m.Credentials == nil {
			return errors.InvalidRequest("object-store metadata requires credentials")
		}
		if len(m.FileMapping) == 0 {
			return errors.InvalidRequest("object-store metadata requires a file mapping")
		}
		for name, layout := range m.FileMapping {
			if len(layout.Bands) == 0 {
				return errors.InvalidRequest(fmt.Sprintf("file mapping %q declares no bands", name))
			}
		}
		return nil
	}

	for _, f := range m.Files {
		if f.URL == "" {
			return errors.InvalidRequest("file descriptor without a URL")
		}
		if len(f.Bands) == 0 {
			return errors.InvalidRequest(fmt.Sprintf("file %q declares no bands", f.URL))
		}
		seen := make(map[int]bool, len(f.Bands))
		for _, b := range f.Bands {
			if b.Number < 1 {
				return errors.InvalidRequest(fmt.Sprintf("file %q: band number %d is not 1-based", f.URL, b.Number))
			}
			if seen[b.Number] {
				return errors.InvalidRequest(fmt.Sprintf("file %q: duplicate band number %d", f.URL, b.Number))
			}
			seen[b.Number] = true
			if b.VariableName == "" {
				return errors.InvalidRequest(fmt.Sprintf("file %q: band %d has no variable name", f.URL, b.Number))
			}
		}
	}
	return nil
}

// Attributes returns the fixed provenance attribute mapping bound to the
// assembled dataset. The CRS argument lets the object-store path supply
// the reference file's CRS when the metadata itself carries none.
func (m Metadata) Attributes(crs string) map[string]string {
	if crs == "" {
		crs = m.DatasetCRS
	}
	return map[string]string{
		"provider_name":   m.ProviderName,
		"dataset_id":      m.DatasetID,
		"dataset_name":    m.DatasetName,
		"dataset_crs":     crs,
		"aoi_id":          m.AOIID.String(),
		"data_request_id": m.DataRequestID.String(),
	}
}
