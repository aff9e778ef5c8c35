package ingest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"hardcoversync/internal/httpx"
	"hardcoversync/internal/logging"
)

const (
	defaultStatusRuns = 10
	maxStatusRuns     = maxStoredRuns
)

type HTTPHandler struct {
	svc  *Service
	repo Repository
}

func NewHTTPHandler(svc *Service, repo Repository) *HTTPHandler {
	return &HTTPHandler{svc: svc, repo: repo}
}

type syncResponse struct {
	Run      *Run      `json:"run"`
	Failures []Failure `json:"failures,omitempty"`
}

// Sync handles POST /sync. The pass runs to completion even if the caller
// goes away. ?debug_limit=N and ?full=true mirror the CLI flags.
func (h *HTTPHandler) Sync(w http.ResponseWriter, r *http.Request) {
	opts := Options{Trigger: TriggerHTTP}
	if v := r.URL.Query().Get("debug_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "debug_limit must be a non-negative integer", nil)
			return
		}
		opts.DebugLimit = n
	}
	opts.Full = r.URL.Query().Get("full") == "true"

	ctx := context.WithoutCancel(r.Context())
	run, err := h.svc.Run(ctx, opts)
	if err != nil {
		status, code := syncErrorStatus(err)
		var meta map[string]any
		if run != nil {
			meta = map[string]any{"run_id": run.ID}
		}
		logging.Warn().Err(err).Str("request_id", httpx.RequestIDFrom(r)).Msg("sync request failed")
		httpx.JSONError(w, r, status, code, UserMessage(err), meta)
		return
	}

	resp := syncResponse{Run: run}
	if run.Failed > 0 {
		failures, err := h.repo.ListFailures(ctx, run.ID)
		if err != nil {
			logging.Warn().Err(err).Str("run_id", run.ID).Msg("failed to list run failures")
		}
		resp.Failures = failures
	}
	httpx.JSONSuccess(w, r, resp, nil)
}

func syncErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSyncInProgress):
		return http.StatusConflict, "SYNC_IN_PROGRESS"
	case errors.Is(err, ErrInvalidTargetFolder), errors.Is(err, ErrInvalidCheckpoint):
		return http.StatusUnprocessableEntity, "INVALID_CONFIG"
	}
	return http.StatusBadGateway, "SYNC_FAILED"
}

type statusResponse struct {
	Running    bool      `json:"running"`
	Checkpoint string    `json:"checkpoint"`
	Identity   *Identity `json:"identity,omitempty"`
	Runs       []Run     `json:"runs"`
}

// Status handles GET /status. ?limit=N bounds the number of recent runs.
func (h *HTTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	limit := defaultStatusRuns
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxStatusRuns)
	}

	ctx := r.Context()
	checkpoint, err := h.svc.Checkpoint(ctx)
	if err != nil && !errors.Is(err, ErrInvalidCheckpoint) {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load checkpoint", nil)
		return
	}
	identity, err := h.repo.LoadIdentity(ctx)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load identity", nil)
		return
	}
	runs, err := h.repo.ListRuns(ctx, limit)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list runs", nil)
		return
	}
	if runs == nil {
		runs = []Run{}
	}

	httpx.JSONSuccess(w, r, statusResponse{
		Running:    h.svc.Running(),
		Checkpoint: checkpoint,
		Identity:   identity,
		Runs:       runs,
	}, nil)
}
