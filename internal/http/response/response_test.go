package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/echomapapp/echomap-server/internal/errors"
)

func TestJSONWritesPayloadWithoutEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]any{"ok": true}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestErrorBodyShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "missing_field", "userId is required", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"missing_field","message":"userId is required"}`, rec.Body.String())
}

func TestErrorOmitsEmptyMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError, "server_error", "", nil)

	assert.JSONEq(t, `{"error":"server_error"}`, rec.Body.String())
}

func TestHandleErrorMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing field", apperrors.MissingField("trackId"), http.StatusBadRequest, "missing_field"},
		{"invalid coordinates", apperrors.InvalidCoordinates("lat/lng required"), http.StatusBadRequest, "invalid_coordinates"},
		{"query failed", apperrors.QueryFailed(fmt.Errorf("boom")), http.StatusInternalServerError, "query_failed"},
		{"upstream", apperrors.Upstream("spotify", fmt.Errorf("timeout")), http.StatusBadGateway, "upstream_unavailable"},
		{"not found", apperrors.NotFound("no such user"), http.StatusNotFound, "not_found"},
		{"unknown", fmt.Errorf("plain error"), http.StatusInternalServerError, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestHandleErrorUnwrapsWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("while handling request: %w", apperrors.MissingField("loc"))
	rec := httptest.NewRecorder()
	HandleError(rec, wrapped, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_field")
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
