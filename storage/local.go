package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/resolution"
	"github.com/leeforge/gallery/utils"
)

// LocalBackend stores assets on the local filesystem and serves them under a
// static base URL. It has no transform capability and is the hardcoded
// fallback when backend selection cannot be resolved.
type LocalBackend struct {
	basePath string
	baseURL  string
}

// NewLocalBackend creates a filesystem backend rooted at cfg.BasePath.
func NewLocalBackend(cfg config.LocalConfig) (*LocalBackend, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create storage base directory")
	}
	return &LocalBackend{basePath: cfg.BasePath, baseURL: cfg.BaseURL}, nil
}

// Upload writes the buffer under basePath. The asset id is the relative key.
func (b *LocalBackend) Upload(ctx context.Context, buf []byte, opts UploadOptions) (StoredAsset, error) {
	key := objectKey(opts)
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return StoredAsset{}, errors.NewUpload(b.Name(), err)
	}
	if err := os.WriteFile(fullPath, buf, 0644); err != nil {
		return StoredAsset{}, errors.NewUpload(b.Name(), err)
	}

	return StoredAsset{
		URL:      b.baseURL + "/" + key,
		AssetID:  key,
		ByteSize: int64(len(buf)),
	}, nil
}

// Delete removes the file; a missing file is not an error.
func (b *LocalBackend) Delete(ctx context.Context, assetID string) error {
	err := os.Remove(filepath.Join(b.basePath, filepath.FromSlash(assetID)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to delete file")
	}
	return nil
}

// URL returns the static URL. The filesystem cannot transform at retrieval
// time, so the transform options are ignored.
func (b *LocalBackend) URL(assetID string, _ TransformOptions) string {
	return b.baseURL + "/" + assetID
}

// GenerateResolutions resizes locally and uploads the original plus one file
// per catalog entry.
func (b *LocalBackend) GenerateResolutions(ctx context.Context, buf []byte, opts UploadOptions) ([]StoredAsset, error) {
	return resizeAndUpload(ctx, b, buf, opts)
}

func (b *LocalBackend) Name() string { return "local" }

// resizeAndUpload is the shared bulk path for backends without URL-time
// transforms: resize for each catalog entry, upload each result.
func resizeAndUpload(ctx context.Context, b Backend, buf []byte, opts UploadOptions) ([]StoredAsset, error) {
	original, err := b.Upload(ctx, buf, opts)
	if err != nil {
		return nil, err
	}
	assets := []StoredAsset{original}

	for _, spec := range resolution.Catalog() {
		variant, err := codec.Resize(buf, spec.Width, spec.Height, codec.ResizeOptions{})
		if err != nil {
			return assets, err
		}
		variantOpts := opts
		if variantOpts.Filename != "" {
			variantOpts.Filename = variantOpts.Filename + "-" + utils.Slugify(spec.Name)
		}
		asset, err := b.Upload(ctx, variant.Buffer, variantOpts)
		if err != nil {
			return assets, err
		}
		asset.Width = spec.Width
		asset.Height = spec.Height
		asset.Format = variant.Format
		assets = append(assets, asset)
	}
	return assets, nil
}
