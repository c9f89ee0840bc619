// Package storage abstracts durable object storage for image assets behind
// interchangeable backends selected at runtime.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Backend is one interchangeable implementation of durable asset storage.
type Backend interface {
	// Upload writes the buffer under a backend-specific key derived from
	// the options and returns the durable handle.
	Upload(ctx context.Context, buf []byte, opts UploadOptions) (StoredAsset, error)

	// Delete removes the asset by its provider-assigned id. Best-effort
	// idempotent: a missing asset is not an error.
	Delete(ctx context.Context, assetID string) error

	// URL returns a retrieval URL. Backends without on-the-fly transform
	// capability ignore the transform options and return the static URL;
	// callers must not assume transforms are honored everywhere.
	URL(assetID string, opts TransformOptions) string

	// GenerateResolutions uploads an original plus the fixed catalog
	// resolutions in one backend-specific sweep. Semantics differ by
	// backend (local resize vs URL-time transform); the ingestion pipeline
	// performs its own resize-then-upload loop instead of calling this.
	GenerateResolutions(ctx context.Context, buf []byte, opts UploadOptions) ([]StoredAsset, error)

	// Name identifies the provider ("oss", "minio", "local").
	Name() string
}

// UploadOptions controls key derivation for an upload.
type UploadOptions struct {
	Folder   string
	Filename string // random identifier generated when empty
	Format   string // file extension; default jpg
}

// TransformOptions are URL-time transformation parameters.
type TransformOptions struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// StoredAsset is the durable handle returned by a successful upload.
type StoredAsset struct {
	URL      string `json:"url"`
	AssetID  string `json:"assetId"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	ByteSize int64  `json:"byteSize,omitempty"`
}

// objectKey derives the storage key for an upload, generating a random
// filename when none was supplied.
func objectKey(opts UploadOptions) string {
	name := opts.Filename
	if name == "" {
		name = uuid.NewString()
	}
	ext := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if ext == "" {
		ext = "jpg"
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	if !strings.Contains(name, ".") {
		name = fmt.Sprintf("%s.%s", name, ext)
	}
	folder := strings.Trim(opts.Folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
