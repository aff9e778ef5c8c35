package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hardcoversync/internal/config"
	"hardcoversync/internal/httpx"
	"hardcoversync/internal/ingest"
)

func testApp(t *testing.T) *app {
	t.Helper()
	s := config.Default()
	s.VaultPath = t.TempDir()
	s.Server.InternalSecret = "s3cret"

	a, err := newApp(t.Context(), &s)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func TestOpenRepository_FileDriver(t *testing.T) {
	a := testApp(t)

	require.NoError(t, a.repo.SaveCheckpoint(t.Context(), "2026-10-15T09:30:00.000Z"))
	assert.FileExists(t, filepath.Join(a.settings.VaultPath, ".hcsync", "state.yaml"))
}

func TestRouter(t *testing.T) {
	a := testApp(t)
	router := newRouter(a, httpx.NewRateLimitMiddleware(time.Minute, 5))

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", nil, http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", nil, http.StatusOK},
		{"status", http.MethodGet, "/status", nil, http.StatusOK},
		{"sync without secret", http.MethodPost, "/sync", nil, http.StatusUnauthorized},
		{"sync with wrong secret", http.MethodPost, "/sync", map[string]string{"X-Internal-Secret": "nope"}, http.StatusUnauthorized},
		{"sync is POST only", http.MethodGet, "/sync", nil, http.StatusMethodNotAllowed},
		{"unknown", http.MethodGet, "/books", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

func TestPrintSummary(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		var buf bytes.Buffer
		run := &ingest.Run{BooksTotal: 4, Created: 1, Updated: 1, Moved: 1, Merged: 1, Failed: 1}
		printSummary(&buf, run, []ingest.Failure{{BookID: 3, Title: "Emma", Error: "disk full"}})

		assert.Equal(t, "Sync complete: 1 created, 3 updated (1 books failed to process)\n"+
			"  1 notes merged into an existing note at the same path\n"+
			"  failed: Emma (book 3): disk full\n", buf.String())
	})

	t.Run("debug and empty", func(t *testing.T) {
		var buf bytes.Buffer
		printSummary(&buf, &ingest.Run{DebugLimit: 5}, nil)
		assert.Equal(t, "DEBUG: No books found in your Hardcover library.\n", buf.String())
	})
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, "", nil, nil)
	assert.Equal(t, "Checkpoint: none (next sync is a full sync)\nNo sync runs recorded.\n", buf.String())

	buf.Reset()
	started := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	finished := started.Add(95 * time.Second)
	printStatus(&buf, "2026-10-15T09:30:00.000Z", &ingest.Identity{UserID: 42, BooksCount: 7}, []ingest.Run{
		{StartedAt: started, FinishedAt: &finished, Status: ingest.StatusFailed, Trigger: ingest.TriggerCLI, Error: "boom"},
	})
	out := buf.String()
	assert.Contains(t, out, "Checkpoint: 2026-10-15T09:30:00.000Z\n")
	assert.Contains(t, out, "User:       42 (7 books)\n")
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "      boom\n")
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@localhost:5432/hcsync", redactDSN("postgres://user:pw@localhost:5432/hcsync"))
	assert.Equal(t, "localhost", redactDSN("localhost"))
}
