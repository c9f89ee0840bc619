// Package responder writes the standard API response envelope.
package responder

import (
	"net/http"

	apperrors "github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/http/middleware"
	"github.com/leeforge/gallery/json"
)

// Response is the standard API envelope.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

// Error is the error body inside the envelope.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta carries per-request metadata.
type Meta struct {
	TraceID    string          `json:"traceId,omitempty"`
	Took       int64           `json:"took,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta describes one page of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NewPagination derives pagination metadata from a page query and total.
func NewPagination(page, pageSize int, total int64) *PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

func metaFor(r *http.Request) Meta {
	return Meta{
		TraceID: middleware.GetTraceID(r.Context()),
		Took:    middleware.GetRequestDuration(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"type":"internal","message":"encode failed"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// Write sends a success response.
func Write(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, &Response{Data: data, Meta: metaFor(r)})
}

// WriteList sends a success response with pagination metadata.
func WriteList(w http.ResponseWriter, r *http.Request, status int, data any, pager *PaginationMeta) {
	meta := metaFor(r)
	meta.Pagination = pager
	writeJSON(w, status, &Response{Data: data, Meta: meta})
}

// OK sends a 200 success response.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	Write(w, r, http.StatusOK, data)
}

// Created sends a 201 success response.
func Created(w http.ResponseWriter, r *http.Request, data any) {
	Write(w, r, http.StatusCreated, data)
}

// WriteError sends an error envelope with an explicit status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, errType, message string, details any) {
	writeJSON(w, status, &Response{
		Error: &Error{Type: errType, Message: message, Details: details},
		Meta:  metaFor(r),
	})
}

// FromError maps any error to the envelope. AppErrors keep their type,
// status and details; anything else is reported as an opaque internal
// failure.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var app *apperrors.AppError
	if apperrors.As(err, &app) {
		WriteError(w, r, app.HTTPStatus, string(app.Type), app.Message, app.Details)
		return
	}
	WriteError(w, r, http.StatusInternalServerError, string(apperrors.ErrorTypeInternal), "internal server error", nil)
}

// Forbidden and Unauthorized are used by the auth middleware reject hook.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusForbidden, string(apperrors.ErrorTypeForbidden), "forbidden", nil)
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized", nil)
}
