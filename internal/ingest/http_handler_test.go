package ingest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hardcoversync/internal/platform/hardcover"
	"hardcoversync/internal/testutil"
	"hardcoversync/internal/vault"
)

func TestHTTPHandler_Sync(t *testing.T) {
	t.Run("runs a pass", func(t *testing.T) {
		h := newHarness(t, nil)
		h.expectLibrary(1, []hardcover.UserBook{testutil.Minimal(1, "Dune")})
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Sync(w, testutil.NewRequest(http.MethodPost, "/sync", nil))

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]any)
		run := data["run"].(map[string]any)
		assert.Equal(t, StatusCompleted, run["status"])
		assert.Equal(t, TriggerHTTP, run["trigger"])
		assert.EqualValues(t, 1, run["created"])
	})

	t.Run("reports failures", func(t *testing.T) {
		h := newHarness(t, &failingStore{FSStore: vault.NewMemStore(), path: "Books/Dune.md"})
		h.expectLibrary(1, []hardcover.UserBook{testutil.Minimal(1, "Dune")})
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Sync(w, testutil.NewRequest(http.MethodPost, "/sync", nil))

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]any)
		assert.Equal(t, StatusPartial, data["run"].(map[string]any)["status"])
		failures := data["failures"].([]any)
		require.Len(t, failures, 1)
		assert.Equal(t, "Dune", failures[0].(map[string]any)["title"])
	})

	t.Run("passes debug limit", func(t *testing.T) {
		h := newHarness(t, nil)
		h.client.On("FetchSyncInfo", mock.Anything, true, mock.Anything).
			Return(&hardcover.SyncInfo{UserID: 42, BooksCount: 10}, nil)
		h.client.On("FetchLibrary", mock.Anything, mock.MatchedBy(func(p hardcover.LibraryParams) bool {
			return p.Total == 1
		})).Return([]hardcover.UserBook{testutil.Minimal(1, "Dune")}, nil)
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Sync(w, testutil.NewRequest(http.MethodPost, "/sync?debug_limit=1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		h.client.AssertExpectations(t)
	})

	t.Run("rejects bad debug limit", func(t *testing.T) {
		h := newHarness(t, nil)
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Sync(w, testutil.NewRequest(http.MethodPost, "/sync?debug_limit=-3", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps errors", func(t *testing.T) {
		tests := []struct {
			name   string
			setup  func(h *harness)
			status int
			code   string
		}{
			{
				name:   "in progress",
				setup:  func(h *harness) { h.svc.running.Store(true) },
				status: http.StatusConflict,
				code:   "SYNC_IN_PROGRESS",
			},
			{
				name:   "bad config",
				setup:  func(h *harness) { h.settings.TargetFolder = "" },
				status: http.StatusUnprocessableEntity,
				code:   "INVALID_CONFIG",
			},
			{
				name: "remote failure",
				setup: func(h *harness) {
					h.client.On("FetchSyncInfo", mock.Anything, true, mock.Anything).
						Return(nil, hardcover.ErrRateLimitExhausted)
				},
				status: http.StatusBadGateway,
				code:   "SYNC_FAILED",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, nil)
				tt.setup(h)
				handler := NewHTTPHandler(h.svc, h.repo)

				w := httptest.NewRecorder()
				handler.Sync(w, testutil.NewRequest(http.MethodPost, "/sync", nil))

				resp := testutil.RecordHTTPResponse(w)
				assert.Equal(t, tt.status, resp.Code)
				assert.Equal(t, tt.code, resp.Body["error"].(map[string]any)["code"])
			})
		}
	})
}

func TestHTTPHandler_Status(t *testing.T) {
	t.Run("empty state", func(t *testing.T) {
		h := newHarness(t, nil)
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Status(w, testutil.NewRequest(http.MethodGet, "/status", nil))

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]any)
		assert.Equal(t, false, data["running"])
		assert.Equal(t, "", data["checkpoint"])
		assert.Equal(t, []any{}, data["runs"])
		assert.NotContains(t, data, "identity")
	})

	t.Run("after a pass", func(t *testing.T) {
		h := newHarness(t, nil)
		h.expectLibrary(1, []hardcover.UserBook{testutil.Minimal(1, "Dune")})
		_, err := h.svc.Run(t.Context(), Options{})
		require.NoError(t, err)
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Status(w, testutil.NewRequest(http.MethodGet, "/status?limit=5", nil))

		resp := testutil.RecordHTTPResponse(w)
		require.Equal(t, http.StatusOK, resp.Code)
		data := resp.Body["data"].(map[string]any)
		assert.Equal(t, "2026-10-15T09:30:00.000Z", data["checkpoint"])
		assert.Len(t, data["runs"], 1)
		assert.EqualValues(t, 42, data["identity"].(map[string]any)["user_id"])
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		h := newHarness(t, nil)
		handler := NewHTTPHandler(h.svc, h.repo)

		w := httptest.NewRecorder()
		handler.Status(w, testutil.NewRequest(http.MethodGet, "/status?limit=zero", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
