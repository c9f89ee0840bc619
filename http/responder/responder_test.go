package responder

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/gallery/errors"
	"github.com/leeforge/gallery/json"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) *Response {
	t.Helper()
	var res Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return &res
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	OK(rec, r, map[string]string{"hello": "world"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	res := decode(t, rec)
	require.Nil(t, res.Error)
	require.Equal(t, map[string]any{"hello": "world"}, res.Data)
}

func TestWriteListPagination(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteList(rec, r, http.StatusOK, []int{1, 2}, NewPagination(1, 2, 5))
	res := decode(t, rec)
	require.NotNil(t, res.Meta.Pagination)
	require.Equal(t, 3, res.Meta.Pagination.TotalPages)
	require.True(t, res.Meta.Pagination.HasMore)
}

func TestFromErrorAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	FromError(rec, r, apperrors.NewValidation([]string{"width 20000 exceeds maximum 10000"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decode(t, rec)
	require.NotNil(t, res.Error)
	require.Equal(t, string(apperrors.ErrorTypeValidation), res.Error.Type)
}

func TestFromErrorOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	FromError(rec, r, assertError("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	res := decode(t, rec)
	// Raw error text must not leak to clients.
	require.Equal(t, "internal server error", res.Error.Message)
}

type assertError string

func (e assertError) Error() string { return string(e) }
