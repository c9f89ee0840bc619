package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leeforge/gallery/auth"
	"github.com/leeforge/gallery/codec"
	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/gallery"
	"github.com/leeforge/gallery/ingest"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/storage"
)

type fakeBackend struct {
	mu      sync.Mutex
	uploads []string
}

func (b *fakeBackend) Upload(_ context.Context, buf []byte, opts storage.UploadOptions) (storage.StoredAsset, error) {
	key := opts.Folder + "/" + opts.Filename
	b.mu.Lock()
	b.uploads = append(b.uploads, key)
	b.mu.Unlock()
	return storage.StoredAsset{URL: "https://cdn.test/" + key, AssetID: key, ByteSize: int64(len(buf))}, nil
}

func (b *fakeBackend) Delete(context.Context, string) error { return nil }

func (b *fakeBackend) URL(assetID string, opts storage.TransformOptions) string {
	url := "https://cdn.test/" + assetID
	if opts != (storage.TransformOptions{}) {
		url += fmt.Sprintf("?x-process=resize,w_%d,h_%d/quality,q_%d", opts.Width, opts.Height, opts.Quality)
	}
	return url
}

func (b *fakeBackend) GenerateResolutions(context.Context, []byte, storage.UploadOptions) ([]storage.StoredAsset, error) {
	return nil, nil
}

func (b *fakeBackend) Name() string { return "fake" }

type staticResolver struct{ backend storage.Backend }

func (r staticResolver) Active(context.Context) storage.Backend { return r.backend }

type fakeCache struct{ resets int }

func (c *fakeCache) Reset() { c.resets++ }

type testEnv struct {
	router    http.Handler
	cache     *fakeCache
	providers *storage.MemoryConfigStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := &fakeBackend{}
	resolver := staticResolver{backend: backend}
	pipe := ingest.New(resolver, nil, codec.ValidationLimits{
		MaxWidth:       10000,
		MaxHeight:      10000,
		MaxBytes:       32 << 20,
		AllowedFormats: []string{"jpeg", "jpg", "png", "webp"},
	}, ingest.WithLogger(logging.NewNop()))

	store := gallery.NewMemoryStore()
	svc := gallery.NewService(store, store.Categories(), nil, pipe, resolver, logging.NewNop())

	providers := storage.NewMemoryConfigStore(
		storage.ProviderRecord{ID: "p-local", ProviderName: "local", IsActive: true, Priority: 1},
		storage.ProviderRecord{ID: "p-oss", ProviderName: "oss", Priority: 2},
	)
	cache := &fakeCache{}

	rbac, err := auth.NewRBACManager()
	require.NoError(t, err)
	require.NoError(t, rbac.GrantRole("root", auth.RoleAdmin))

	h := NewHandler(svc, providers, cache, rbac, auth.NewHeaderResolver(),
		config.UploadConfig{MaxBytes: 32 << 20}, logging.NewNop())
	return &testEnv{router: h.Router(), cache: cache, providers: providers}
}

func jpegBody(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 90, G: 160, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, title string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "upload.jpg")
	require.NoError(t, err)
	_, err = part.Write(jpegBody(t))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/admin/wallpapers", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("X-Auth-Subject", "root")
	return r
}

func doJSON(t *testing.T, env *testEnv, r *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, r)
	var payload map[string]any
	if body, err := io.ReadAll(rec.Body); err == nil && len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &payload))
	}
	return rec.Code, payload
}

func TestUploadAndBrowse(t *testing.T) {
	env := newTestEnv(t)

	code, payload := doJSON(t, env, uploadRequest(t, "Green Field"))
	require.Equal(t, http.StatusCreated, code)
	data := payload["data"].(map[string]any)
	require.Equal(t, "green-field", data["slug"])
	require.NotEmpty(t, data["resolutions"])

	code, payload = doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/wallpapers", nil))
	require.Equal(t, http.StatusOK, code)
	items := payload["data"].([]any)
	require.Len(t, items, 1)
	meta := payload["meta"].(map[string]any)
	require.NotNil(t, meta["pagination"])

	code, payload = doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/wallpapers/green-field", nil))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Green Field", payload["data"].(map[string]any)["title"])

	code, _ = doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/wallpapers/no-such", nil))
	require.Equal(t, http.StatusNotFound, code)
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	r := uploadRequest(t, "Nope")
	r.Header.Del("X-Auth-Subject")
	code, _ := doJSON(t, env, r)
	require.Equal(t, http.StatusUnauthorized, code)

	r = uploadRequest(t, "Nope")
	r.Header.Set("X-Auth-Subject", "nobody")
	code, _ = doJSON(t, env, r)
	require.Equal(t, http.StatusForbidden, code)
}

func TestDownloadRedirects(t *testing.T) {
	env := newTestEnv(t)

	code, _ := doJSON(t, env, uploadRequest(t, "Ridge Line"))
	require.Equal(t, http.StatusCreated, code)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallpapers/ridge-line/download", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "https://cdn.test/wallpapers/original/")
}

func TestDownloadWithTransformParams(t *testing.T) {
	env := newTestEnv(t)

	code, _ := doJSON(t, env, uploadRequest(t, "Glacier"))
	require.Equal(t, http.StatusCreated, code)

	// Explicit dimensions land on the redirect target.
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/wallpapers/glacier/download?width=1920&height=1080&quality=85", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "resize,w_1920,h_1080")
	require.Contains(t, rec.Header().Get("Location"), "quality,q_85")

	// A catalog name expands to its dimensions.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/wallpapers/glacier/download?resolution=4K", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "resize,w_3840,h_2160")

	// Unknown catalog names are rejected before any redirect.
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/wallpapers/glacier/download?resolution=8K", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	for _, title := range []string{"Misty Forest", "Desert Dunes"} {
		code, _ := doJSON(t, env, uploadRequest(t, title))
		require.Equal(t, http.StatusCreated, code)
	}

	code, payload := doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/wallpapers/search?q=forest", nil))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, payload["data"].([]any), 1)

	code, _ = doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/wallpapers/search", nil))
	require.Equal(t, http.StatusBadRequest, code)
}

func TestStorageAdmin(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/storage", nil)
	r.Header.Set("X-Auth-Subject", "root")
	code, payload := doJSON(t, env, r)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, payload["data"].([]any), 2)

	body := bytes.NewBufferString(`{"id":"p-oss"}`)
	r = httptest.NewRequest(http.MethodPost, "/api/admin/storage/activate", body)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Auth-Subject", "root")
	code, _ = doJSON(t, env, r)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, env.cache.resets)

	active, err := env.providers.ActiveProvider(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p-oss", active.ID)

	// Unknown provider id does not disturb the cache.
	body = bytes.NewBufferString(`{"id":"p-missing"}`)
	r = httptest.NewRequest(http.MethodPost, "/api/admin/storage/activate", body)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Auth-Subject", "root")
	code, _ = doJSON(t, env, r)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, 1, env.cache.resets)
}

func TestCreateCategory(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString(`{"name":"Nature"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/admin/categories", body)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Auth-Subject", "root")
	code, payload := doJSON(t, env, r)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "nature", payload["data"].(map[string]any)["slug"])

	code, payload = doJSON(t, env, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, payload["data"].([]any), 1)
}
