package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/resolution"
	"github.com/leeforge/gallery/storage"
)

// fakeBackend records uploads and fails any upload whose key contains one of
// the configured substrings.
type fakeBackend struct {
	mu      sync.Mutex
	uploads []string
	failOn  []string
}

func (f *fakeBackend) Upload(ctx context.Context, buf []byte, opts storage.UploadOptions) (storage.StoredAsset, error) {
	key := opts.Folder + "/" + opts.Filename
	for _, substr := range f.failOn {
		if strings.Contains(key, substr) {
			return storage.StoredAsset{}, errors.NewUpload(f.Name(), errors.NewInternal("injected failure"))
		}
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, key)
	f.mu.Unlock()

	return storage.StoredAsset{
		URL:      "https://cdn.test/" + key,
		AssetID:  key,
		ByteSize: int64(len(buf)),
	}, nil
}

func (f *fakeBackend) Delete(ctx context.Context, assetID string) error { return nil }

func (f *fakeBackend) URL(assetID string, _ storage.TransformOptions) string {
	return "https://cdn.test/" + assetID
}

func (f *fakeBackend) GenerateResolutions(ctx context.Context, buf []byte, opts storage.UploadOptions) ([]storage.StoredAsset, error) {
	return nil, nil
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) sweepUploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.uploads {
		if strings.HasPrefix(u, "wallpapers/resolutions/") {
			out = append(out, u)
		}
	}
	return out
}

type staticResolver struct{ backend storage.Backend }

func (r staticResolver) Active(ctx context.Context) storage.Backend { return r.backend }

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 180, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func testLimits() codec.ValidationLimits {
	return codec.ValidationLimits{
		MaxWidth:       10000,
		MaxHeight:      10000,
		MaxBytes:       32 << 20,
		AllowedFormats: []string{"jpeg", "jpg", "png", "webp"},
	}
}

func fixedNamer(name string) Namer {
	return NamerFunc(func(string) string { return name })
}

func newTestPipeline(backend storage.Backend, opts ...Option) *Pipeline {
	opts = append([]Option{WithLogger(logging.NewNop())}, opts...)
	return New(staticResolver{backend: backend}, fixedNamer("sunset-over-hills-1"), testLimits(), opts...)
}

func TestIngestSuccess(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend)

	result, err := p.Ingest(context.Background(), testJPEG(t, 1600, 1200), Options{Title: "Sunset Over Hills"})
	require.NoError(t, err)

	require.Equal(t, 1600, result.Metadata.Width)
	require.Equal(t, 1200, result.Metadata.Height)
	require.Equal(t, "jpeg", result.Metadata.Format)
	require.Regexp(t, `^#[0-9a-f]{6}$`, result.PrimaryColor)

	require.Equal(t, "wallpapers/original/sunset-over-hills-1.jpg", result.Original.AssetID)
	require.Equal(t, 400, result.Thumbnail.Width)
	require.Equal(t, 300, result.Thumbnail.Height)
	require.Equal(t, 800, result.Medium.Width)
	require.Equal(t, 600, result.Medium.Height)

	// One variant per catalog entry, in catalog order.
	catalog := resolution.Catalog()
	require.Len(t, result.Variants, len(catalog))
	for i, v := range result.Variants {
		require.Equal(t, catalog[i].Name, v.Name)
		require.Equal(t, catalog[i].Width, v.Asset.Width)
		require.Equal(t, catalog[i].Height, v.Asset.Height)
	}

	// The catalog "Thumbnail" entry is distinct from the helper thumbnail.
	var catalogThumb *NamedAsset
	for i := range result.Variants {
		if result.Variants[i].Name == "Thumbnail" {
			catalogThumb = &result.Variants[i]
		}
	}
	require.NotNil(t, catalogThumb)
	require.NotEqual(t, result.Thumbnail.AssetID, catalogThumb.Asset.AssetID)
}

func TestIngestValidationFailureHasNoSideEffects(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend)

	_, err := p.Ingest(context.Background(), []byte("not an image"), Options{Title: "x"})
	require.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	require.Empty(t, backend.uploads)
}

func TestIngestValidationCarriesAllViolations(t *testing.T) {
	backend := &fakeBackend{}
	p := New(staticResolver{backend: backend}, fixedNamer("x"), codec.ValidationLimits{
		MaxWidth:       100,
		MaxHeight:      100,
		MaxBytes:       32 << 20,
		AllowedFormats: []string{"png"},
	}, WithLogger(logging.NewNop()))

	_, err := p.Ingest(context.Background(), testJPEG(t, 400, 300), Options{Title: "x"})
	require.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	var app *errors.AppError
	require.True(t, errors.As(err, &app))
	require.Len(t, app.Violations(), 3) // format, width, height
}

func TestIngestOriginalUploadFailureSkipsSweep(t *testing.T) {
	backend := &fakeBackend{failOn: []string{"wallpapers/original/"}}
	p := newTestPipeline(backend)

	_, err := p.Ingest(context.Background(), testJPEG(t, 800, 600), Options{Title: "x"})
	require.True(t, errors.IsType(err, errors.ErrorTypeUpload))

	// Fail-fast: no catalog resize/upload attempts after a core failure.
	require.Empty(t, backend.sweepUploads())
}

func TestIngestSingleSweepFailureDegradesGracefully(t *testing.T) {
	// Fail exactly the 4K catalog entry.
	backend := &fakeBackend{failOn: []string{"-4k"}}
	p := newTestPipeline(backend)

	result, err := p.Ingest(context.Background(), testJPEG(t, 1024, 768), Options{Title: "x"})
	require.NoError(t, err)

	catalog := resolution.Catalog()
	require.Len(t, result.Variants, len(catalog)-1)
	for _, v := range result.Variants {
		require.NotEqual(t, "4K", v.Name)
	}

	// Core assets are unaffected.
	require.NotEmpty(t, result.Original.URL)
	require.NotEmpty(t, result.Thumbnail.URL)
	require.NotEmpty(t, result.Medium.URL)
}

func TestIngestSerialSweepPreservesOrder(t *testing.T) {
	backend := &fakeBackend{}
	p := newTestPipeline(backend, WithSweepWorkers(1))

	result, err := p.Ingest(context.Background(), testJPEG(t, 640, 480), Options{Title: "x"})
	require.NoError(t, err)

	catalog := resolution.Catalog()
	for i, v := range result.Variants {
		require.Equal(t, catalog[i].Name, v.Name)
	}
}

func TestDefaultNamerUniquePerCall(t *testing.T) {
	a := DefaultNamer.UniqueName("Same Title")
	b := DefaultNamer.UniqueName("Same Title")
	require.NotEqual(t, a, b)
}
