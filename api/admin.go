package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/gallery/gallery"
	"github.com/leeforge/gallery/http/binding"
	"github.com/leeforge/gallery/http/responder"
)

func (h *Handler) createWallpaper(w http.ResponseWriter, r *http.Request) {
	up, err := binding.Multipart(r, h.upload.MaxBytes)
	if err != nil {
		responder.WriteError(w, r, http.StatusBadRequest, "validation", "invalid upload", err)
		return
	}

	wall, err := h.svc.CreateWallpaper(r.Context(), up.File, gallery.CreateInput{
		Title:       up.Title,
		Description: up.Description,
		CategoryIDs: up.CategoryIDs,
	})
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.Created(w, r, wall)
}

func (h *Handler) deleteWallpaper(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteWallpaper(r.Context(), chi.URLParam(r, "id")); err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.OK(w, r, map[string]bool{"deleted": true})
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := binding.JSON(r, &req); err != nil {
		responder.WriteError(w, r, http.StatusBadRequest, "validation", "invalid request body", err)
		return
	}

	cat := &gallery.Category{Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.svc.CreateCategory(r.Context(), cat); err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.Created(w, r, cat)
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	records, err := h.providers.List(r.Context())
	if err != nil {
		responder.FromError(w, r, err)
		return
	}
	responder.OK(w, r, records)
}

type activateProviderRequest struct {
	ID string `json:"id" validate:"required"`
}

// activateProvider switches the active storage provider and drops the
// selector cache so the next upload resolves the new backend.
func (h *Handler) activateProvider(w http.ResponseWriter, r *http.Request) {
	var req activateProviderRequest
	if err := binding.JSON(r, &req); err != nil {
		responder.WriteError(w, r, http.StatusBadRequest, "validation", "invalid request body", err)
		return
	}

	if err := h.providers.Activate(r.Context(), req.ID); err != nil {
		responder.FromError(w, r, err)
		return
	}
	h.backends.Reset()
	responder.OK(w, r, map[string]string{"activated": req.ID})
}
