package gallery

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/ingest"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/storage"
)

// recordingBackend tracks uploads and deletes for compensation assertions.
type recordingBackend struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func (b *recordingBackend) Upload(_ context.Context, buf []byte, opts storage.UploadOptions) (storage.StoredAsset, error) {
	key := opts.Folder + "/" + opts.Filename
	b.mu.Lock()
	b.uploads = append(b.uploads, key)
	b.mu.Unlock()
	return storage.StoredAsset{URL: "https://cdn.test/" + key, AssetID: key, ByteSize: int64(len(buf))}, nil
}

func (b *recordingBackend) Delete(_ context.Context, assetID string) error {
	b.mu.Lock()
	b.deletes = append(b.deletes, assetID)
	b.mu.Unlock()
	return nil
}

func (b *recordingBackend) URL(assetID string, opts storage.TransformOptions) string {
	url := "https://cdn.test/" + assetID
	if opts != (storage.TransformOptions{}) {
		url += fmt.Sprintf("?w=%d&h=%d&q=%d", opts.Width, opts.Height, opts.Quality)
	}
	return url
}

func (b *recordingBackend) GenerateResolutions(context.Context, []byte, storage.UploadOptions) ([]storage.StoredAsset, error) {
	return nil, nil
}

func (b *recordingBackend) Name() string { return "fake" }

type staticResolver struct{ backend storage.Backend }

func (r staticResolver) Active(context.Context) storage.Backend { return r.backend }

// memStats is an in-process StatsStore for tests.
type memStats struct {
	mu        sync.Mutex
	downloads map[string]float64
	views     map[string]int64
}

func newMemStats() *memStats {
	return &memStats{downloads: map[string]float64{}, views: map[string]int64{}}
}

func (m *memStats) RecordDownload(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads[id]++
	return nil
}

func (m *memStats) RecordView(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[id]++
	return nil
}

func (m *memStats) Trending(_ context.Context, limit int) ([]TrendingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TrendingEntry, 0, len(m.downloads))
	for id, score := range m.downloads {
		out = append(out, TrendingEntry{WallpaperID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStats) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.downloads, id)
	delete(m.views, id)
	return nil
}

// failingStore wraps a WallpaperStore and fails every Create.
type failingStore struct{ WallpaperStore }

func (failingStore) Create(context.Context, *Wallpaper) error {
	return errors.NewDatabase(errors.NewInternal("injected"))
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 60, G: 120, B: 200, A: 255})
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

type fixture struct {
	svc     *Service
	store   *MemoryStore
	stats   *memStats
	backend *recordingBackend
}

func newFixture(t *testing.T, wallpapers WallpaperStore) *fixture {
	t.Helper()
	backend := &recordingBackend{}
	resolver := staticResolver{backend: backend}
	pipe := ingest.New(resolver, nil, testLimits(), ingest.WithLogger(logging.NewNop()))
	store := NewMemoryStore()
	stats := newMemStats()
	if wallpapers == nil {
		wallpapers = store
	}
	svc := NewService(wallpapers, store.Categories(), stats, pipe, resolver, logging.NewNop())
	return &fixture{svc: svc, store: store, stats: stats, backend: backend}
}

func TestCreateWallpaper(t *testing.T) {
	f := newFixture(t, nil)

	w, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 1600, 1200), CreateInput{
		Title:       "Blue Horizon",
		Description: "deep blue gradient",
	})
	require.NoError(t, err)
	require.NotEmpty(t, w.ID)
	require.Equal(t, "blue-horizon", w.Slug)
	require.Equal(t, StatusPublished, w.Status)
	require.Equal(t, 1600, w.Width)
	require.Equal(t, 1200, w.Height)
	require.NotEmpty(t, w.Resolutions)
	require.Regexp(t, `^#[0-9a-f]{6}$`, w.PrimaryColor)

	got, err := f.svc.GetBySlug(context.Background(), "blue-horizon")
	require.NoError(t, err)
	require.Equal(t, w.ID, got.ID)
	require.Equal(t, int64(1), got.ViewCount)
}

func TestCreateWallpaperRequiresTitle(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{})
	require.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	require.Empty(t, f.backend.uploads)
}

func TestCreateWallpaperSlugCollisionRetries(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{Title: "Dunes"})
	require.NoError(t, err)

	second, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{Title: "Dunes"})
	require.NoError(t, err)
	require.NotEqual(t, first.Slug, second.Slug)
	require.Contains(t, second.Slug, "dunes")
}

func TestCreateWallpaperCompensatesOnStoreFailure(t *testing.T) {
	f := newFixture(t, failingStore{})

	_, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{Title: "Doomed"})
	require.True(t, errors.IsType(err, errors.ErrorTypeDatabase))

	// Every uploaded asset must have a matching compensating delete.
	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	require.NotEmpty(t, f.backend.uploads)
	require.ElementsMatch(t, f.backend.uploads, f.backend.deletes)
}

func TestDownloadRecordsCounters(t *testing.T) {
	f := newFixture(t, nil)

	w, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{Title: "Ridge"})
	require.NoError(t, err)

	url, err := f.svc.Download(context.Background(), w.Slug, storage.TransformOptions{})
	require.NoError(t, err)
	require.Equal(t, w.OriginalURL, url)

	got, err := f.store.ByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.DownloadCount)
	require.Equal(t, float64(1), f.stats.downloads[w.ID])
}

func TestDownloadWithTransformUsesBackendURL(t *testing.T) {
	f := newFixture(t, nil)

	w, err := f.svc.CreateWallpaper(context.Background(), testJPEG(t, 800, 600), CreateInput{Title: "Crag"})
	require.NoError(t, err)

	url, err := f.svc.Download(context.Background(), w.Slug, storage.TransformOptions{
		Width: 1920, Height: 1080, Quality: 85,
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/"+w.OriginalAssetID+"?w=1920&h=1080&q=85", url)

	// Still counted.
	got, err := f.store.ByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.DownloadCount)
}

func TestBrowseFiltersAndPaginates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cat := &Category{Name: "Nature"}
	require.NoError(t, f.svc.CreateCategory(ctx, cat))

	for _, title := range []string{"Forest Path", "City Lights", "Forest Creek"} {
		in := CreateInput{Title: title}
		if title != "City Lights" {
			in.CategoryIDs = []string{cat.ID}
		}
		_, err := f.svc.CreateWallpaper(ctx, testJPEG(t, 800, 600), in)
		require.NoError(t, err)
	}

	page, err := f.svc.Browse(ctx, ListOptions{CategoryID: cat.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)

	page, err = f.svc.Browse(ctx, ListOptions{PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	// Newest first.
	require.Equal(t, "Forest Creek", page.Items[0].Title)

	page, err = f.svc.Search(ctx, "forest", ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)
}

func TestTrendingSkipsDeleted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.svc.CreateWallpaper(ctx, testJPEG(t, 800, 600), CreateInput{Title: "Alpha"})
	require.NoError(t, err)
	b, err := f.svc.CreateWallpaper(ctx, testJPEG(t, 800, 600), CreateInput{Title: "Beta"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Download(ctx, a.Slug, storage.TransformOptions{})
		require.NoError(t, err)
	}
	_, err = f.svc.Download(ctx, b.Slug, storage.TransformOptions{})
	require.NoError(t, err)

	trending, err := f.svc.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	require.Equal(t, a.ID, trending[0].ID)

	// Deleting Alpha prunes both its record and its stats.
	require.NoError(t, f.svc.DeleteWallpaper(ctx, a.ID))
	trending, err = f.svc.Trending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trending, 1)
	require.Equal(t, b.ID, trending[0].ID)
}

func TestDeleteWallpaperRemovesAssets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	w, err := f.svc.CreateWallpaper(ctx, testJPEG(t, 800, 600), CreateInput{Title: "Gone Soon"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteWallpaper(ctx, w.ID))

	_, err = f.svc.GetBySlug(ctx, w.Slug)
	require.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	require.ElementsMatch(t, f.backend.uploads, f.backend.deletes)
}
