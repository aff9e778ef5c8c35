package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONSuccess(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	JSONSuccess(w, req, map[string]int{"runs": 2}, map[string]any{"page": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"runs":2},"meta":{"page":1,"request_id":"req-1"}}`, w.Body.String())
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()

	JSONError(w, httptest.NewRequest(http.MethodPost, "/sync", nil), http.StatusConflict, "SYNC_IN_PROGRESS", "busy", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"SYNC_IN_PROGRESS","message":"busy"}}`, w.Body.String())
}
