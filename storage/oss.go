package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/resolution"
)

// OSSBackend stores assets in Aliyun OSS. OSS applies image transforms at
// retrieval time via x-oss-process URL parameters, so this is the
// CDN-transform-capable backend.
type OSSBackend struct {
	bucket     *oss.Bucket
	bucketName string
	domain     string
}

// NewOSSBackend creates an OSS backend.
// Endpoint example: oss-cn-hangzhou.aliyuncs.com
func NewOSSBackend(cfg config.OSSConfig) (*OSSBackend, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create OSS client")
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal,
			fmt.Sprintf("failed to open bucket %s", cfg.Bucket))
	}

	domain := cfg.Domain
	if domain == "" {
		domain = fmt.Sprintf("https://%s.%s", cfg.Bucket, cfg.Endpoint)
	} else if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}

	return &OSSBackend{
		bucket:     bucket,
		bucketName: cfg.Bucket,
		domain:     domain,
	}, nil
}

// Upload writes the buffer to the bucket. The asset id is the object key.
func (b *OSSBackend) Upload(ctx context.Context, buf []byte, opts UploadOptions) (StoredAsset, error) {
	key := objectKey(opts)
	if err := b.bucket.PutObject(key, bytes.NewReader(buf)); err != nil {
		return StoredAsset{}, errors.NewUpload(b.Name(), err)
	}
	return StoredAsset{
		URL:      fmt.Sprintf("%s/%s", b.domain, key),
		AssetID:  key,
		ByteSize: int64(len(buf)),
	}, nil
}

// Delete removes the object. OSS treats deleting a missing object as
// success, which matches the best-effort contract.
func (b *OSSBackend) Delete(ctx context.Context, assetID string) error {
	if err := b.bucket.DeleteObject(assetID); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to delete from OSS")
	}
	return nil
}

// URL builds a retrieval URL, appending x-oss-process transform parameters
// when any are requested.
func (b *OSSBackend) URL(assetID string, opts TransformOptions) string {
	base := fmt.Sprintf("%s/%s", b.domain, assetID)
	process := transformProcess(opts)
	if process == "" {
		return base
	}
	return base + "?x-oss-process=" + process
}

// transformProcess renders TransformOptions as an OSS image-process string.
func transformProcess(opts TransformOptions) string {
	var parts []string
	if opts.Width > 0 || opts.Height > 0 {
		resize := "image/resize,m_fill"
		if opts.Width > 0 {
			resize += fmt.Sprintf(",w_%d", opts.Width)
		}
		if opts.Height > 0 {
			resize += fmt.Sprintf(",h_%d", opts.Height)
		}
		parts = append(parts, resize)
	}
	if opts.Quality > 0 {
		prefix := "image/"
		if len(parts) > 0 {
			prefix = ""
		}
		parts = append(parts, fmt.Sprintf("%squality,q_%d", prefix, opts.Quality))
	}
	if opts.Format != "" {
		prefix := "image/"
		if len(parts) > 0 {
			prefix = ""
		}
		parts = append(parts, prefix+"format,"+strings.ToLower(opts.Format))
	}
	return strings.Join(parts, "/")
}

// GenerateResolutions uploads the original once and fabricates transform
// URLs per catalog entry; OSS resizes at retrieval time, so no variant
// objects are written.
func (b *OSSBackend) GenerateResolutions(ctx context.Context, buf []byte, opts UploadOptions) ([]StoredAsset, error) {
	original, err := b.Upload(ctx, buf, opts)
	if err != nil {
		return nil, err
	}

	assets := []StoredAsset{original}
	for _, spec := range resolution.Catalog() {
		assets = append(assets, StoredAsset{
			URL:     b.URL(original.AssetID, TransformOptions{Width: spec.Width, Height: spec.Height}),
			AssetID: original.AssetID,
			Width:   spec.Width,
			Height:  spec.Height,
		})
	}
	return assets, nil
}

func (b *OSSBackend) Name() string { return "oss" }
