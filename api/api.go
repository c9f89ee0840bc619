// Package api exposes the gallery over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/gallery/auth"
	"github.com/leeforge/gallery/config"
	"github.com/leeforge/gallery/gallery"
	"github.com/leeforge/gallery/http/middleware"
	"github.com/leeforge/gallery/http/responder"
	"github.com/leeforge/gallery/logging"
	"github.com/leeforge/gallery/storage"
)

// ProviderStore is the admin view over storage provider records.
type ProviderStore interface {
	List(ctx context.Context) ([]storage.ProviderRecord, error)
	Activate(ctx context.Context, id string) error
}

// BackendCache is the piece of the storage selector the API needs:
// invalidation after an activation so the next upload sees the switch.
type BackendCache interface {
	Reset()
}

// Handler wires the gallery service to the router.
type Handler struct {
	svc       *gallery.Service
	providers ProviderStore
	backends  BackendCache
	rbac      *auth.RBACManager
	resolver  auth.IdentityResolver
	upload    config.UploadConfig
	log       logging.Logger
	rateLimit func(http.Handler) http.Handler
}

// UseRateLimit throttles the download endpoint.
func (h *Handler) UseRateLimit(backend middleware.LimitBackend, perMinute int) {
	h.rateLimit = middleware.RateLimit(backend, perMinute)
}

func NewHandler(
	svc *gallery.Service,
	providers ProviderStore,
	backends BackendCache,
	rbac *auth.RBACManager,
	resolver auth.IdentityResolver,
	upload config.UploadConfig,
	log logging.Logger,
) *Handler {
	if log == nil {
		log = logging.L().Named("api")
	}
	if resolver == nil {
		resolver = auth.NewHeaderResolver()
	}
	return &Handler{
		svc:       svc,
		providers: providers,
		backends:  backends,
		rbac:      rbac,
		resolver:  resolver,
		upload:    upload,
		log:       log,
	}
}

// Router builds the full route tree with the standard middleware stack.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceID())
	r.Use(middleware.Timing())
	r.Use(middleware.AccessLog(h.log))
	r.Use(auth.Middleware(h.resolver))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(router chi.Router) {
	reject := func(w http.ResponseWriter, r *http.Request, status int) {
		if status == http.StatusUnauthorized {
			responder.Unauthorized(w, r)
			return
		}
		responder.Forbidden(w, r)
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/wallpapers", func(r chi.Router) {
			r.Get("/", h.listWallpapers)
			r.Get("/search", h.searchWallpapers)
			r.Get("/{slug}", h.getWallpaper)
			r.Group(func(r chi.Router) {
				if h.rateLimit != nil {
					r.Use(h.rateLimit)
				}
				r.Get("/{slug}/download", h.downloadWallpaper)
			})
		})
		r.Get("/categories", h.listCategories)
		r.Get("/analytics/trending", h.trendingWallpapers)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequirePermission(h.rbac, reject))
			r.Post("/wallpapers", h.createWallpaper)
			r.Delete("/wallpapers/{id}", h.deleteWallpaper)
			r.Post("/categories", h.createCategory)
			r.Get("/storage", h.listProviders)
			r.Post("/storage/activate", h.activateProvider)
		})
	})
}
