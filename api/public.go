package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/gallery/gallery"
	"github.com/leeforge/gallery/http/responder"
	"github.com/leeforge/gallery/resolution"
	"github.com/leeforge/gallery/storage"
)

func listOptions(r *http.Request) gallery.ListOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return gallery.ListOptions{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: q.Get("category"),
	}
}

func writePage(w http.ResponseWriter, r *http.Request, page *gallery.Page) {
	responder.WriteList(w, r, http.StatusOK, page.Items,
		responder.NewPagination(page.Page, page.PageSize, page.Total))
}

func (h *Handler) listWallpapers(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Browse(r.Context(), listOptions(r))
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	writePage(w, r, page)
}

func (h *Handler) searchWallpapers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		responder.WriteError(w, r, http.StatusBadRequest, "validation", "query parameter q is required", nil)
		return
	}
	page, err := h.svc.Search(r.Context(), query, listOptions(r))
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	writePage(w, r, page)
}

func (h *Handler) trendingWallpapers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.Trending(r.Context(), limit)
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.OK(w, r, items)
}

func (h *Handler) getWallpaper(w http.ResponseWriter, r *http.Request) {
	wall, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.OK(w, r, wall)
}

// downloadWallpaper redirects to the asset so the bytes never proxy
// through the API. Transform parameters ride on the redirect target for
// backends that apply them at retrieval time; a catalog name in
// "resolution" is shorthand for its width and height.
func (h *Handler) downloadWallpaper(w http.ResponseWriter, r *http.Request) {
	opts, err := transformOptions(r)
	if err != nil {
		responder.WriteError(w, r, http.StatusBadRequest, "validation", err.Error(), nil)
		return
	}
	url, err := h.svc.Download(r.Context(), chi.URLParam(r, "slug"), opts)
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func transformOptions(r *http.Request) (storage.TransformOptions, error) {
	q := r.URL.Query()
	var opts storage.TransformOptions
	if name := q.Get("resolution"); name != "" {
		spec, ok := resolution.Lookup(name)
		if !ok {
			return opts, fmt.Errorf("unknown resolution %q", name)
		}
		opts.Width = spec.Width
		opts.Height = spec.Height
	}
	if v := q.Get("width"); v != "" {
		opts.Width, _ = strconv.Atoi(v)
	}
	if v := q.Get("height"); v != "" {
		opts.Height, _ = strconv.Atoi(v)
	}
	if v := q.Get("quality"); v != "" {
		opts.Quality, _ = strconv.Atoi(v)
	}
	opts.Format = q.Get("format")
	return opts, nil
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.OK(w, r, categories)
}
