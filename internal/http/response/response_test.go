package response

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, Envelope{Version: Version, Success: true, Data: map[string]string{"message": "test"}}, testLogger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"message": "test"}, body["data"])
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { NotFound(w, "no route", testLogger) },
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "method not allowed",
			write:      func(w http.ResponseWriter) { MethodNotAllowed(w, "no route", testLogger) },
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   "MALFORMED_INPUT",
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter) { InternalError(w, "no route", testLogger) },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, "no route", body["message"])
			assert.Equal(t, float64(Version), body["v"])
			assert.NotContains(t, body, "details")
		})
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domainerrors.Code
	}{
		{http.StatusBadRequest, domainerrors.CodeMalformedInput},
		{http.StatusRequestEntityTooLarge, domainerrors.CodeMalformedInput},
		{http.StatusUnprocessableEntity, domainerrors.CodeValidation},
		{http.StatusUnauthorized, domainerrors.CodeUnauthenticated},
		{http.StatusForbidden, domainerrors.CodeForbidden},
		{http.StatusNotFound, domainerrors.CodeNotFound},
		{http.StatusConflict, domainerrors.CodeConflict},
		{http.StatusTooManyRequests, domainerrors.CodeRateLimited},
		{http.StatusTeapot, domainerrors.CodeInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeForStatus(tt.status), "status %d", tt.status)
	}
}
