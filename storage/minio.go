package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/errors"
)

// MinioBackend stores assets in any S3-compatible bucket. The backing store
// has no retrieval-time transform capability, so URL ignores transform
// parameters and returns the static object URL.
type MinioBackend struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioBackend creates an S3-compatible bucket backend.
func NewMinioBackend(cfg config.MinioConfig) (*MinioBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create minio client")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &MinioBackend{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Upload writes the buffer to the bucket. The asset id is the object key.
func (b *MinioBackend) Upload(ctx context.Context, buf []byte, opts UploadOptions) (StoredAsset, error) {
	key := objectKey(opts)
	contentType := "image/jpeg"
	if ext := strings.ToLower(opts.Format); ext == "png" || ext == "webp" {
		contentType = "image/" + ext
	}

	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(buf), int64(len(buf)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return StoredAsset{}, errors.NewUpload(b.Name(), err)
	}

	return StoredAsset{
		URL:      b.baseURL + "/" + key,
		AssetID:  key,
		ByteSize: int64(len(buf)),
	}, nil
}

// Delete removes the object; removing a missing object succeeds.
func (b *MinioBackend) Delete(ctx context.Context, assetID string) error {
	err := b.client.RemoveObject(ctx, b.bucket, assetID, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to delete from bucket")
	}
	return nil
}

// URL returns the static object URL; transform options are not honored.
func (b *MinioBackend) URL(assetID string, _ TransformOptions) string {
	return b.baseURL + "/" + assetID
}

// GenerateResolutions resizes locally before uploading, one object per
// catalog entry, since the bucket cannot transform at retrieval time.
func (b *MinioBackend) GenerateResolutions(ctx context.Context, buf []byte, opts UploadOptions) ([]StoredAsset, error) {
	return resizeAndUpload(ctx, b, buf, opts)
}

func (b *MinioBackend) Name() string { return "minio" }
