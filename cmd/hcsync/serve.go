package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"hardcoversync/internal/httpx"
	"hardcoversync/internal/ingest"
	"hardcoversync/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an HTTP endpoint that triggers syncs, optionally on a schedule",
	Long: `Start an HTTP server exposing:

  POST /sync      run a sync pass (X-Internal-Secret required when configured)
  GET  /status    checkpoint and recent runs
  GET  /healthz   liveness
  GET  /metrics   Prometheus metrics

With server.sync_interval set (HCSYNC_SYNC_INTERVAL), a pass also runs on that
interval. Passes never overlap; a trigger during a pass gets 409.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, settings)
		if err != nil {
			return err
		}
		defer a.close()

		limiter := httpx.NewRateLimitMiddleware(30*time.Second, 2)
		go limiter.Cleanup(ctx)

		srv := &http.Server{
			Addr:         settings.Server.Addr,
			Handler:      newRouter(a, limiter),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		if interval := settings.Server.SyncInterval; interval > 0 {
			go schedule(ctx, a.svc, interval)
		}

		errCh := make(chan error, 1)
		go func() {
			logging.Info().Str("addr", srv.Addr).Msg("starting server")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logging.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func newRouter(a *app, limiter *httpx.RateLimitMiddleware) http.Handler {
	handler := ingest.NewHTTPHandler(a.svc, a.repo)

	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("GET /metrics", promhttp.Handler())
	router.HandleFunc("GET /status", handler.Status)
	router.Handle("POST /sync", httpx.Chain(http.HandlerFunc(handler.Sync),
		httpx.InternalSecretMiddleware(a.settings.Server.InternalSecret),
		limiter.Middleware,
	))

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
	)
}

// schedule runs a pass every interval until ctx is done. A tick that lands
// while a pass is running is skipped.
func schedule(ctx context.Context, svc *ingest.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := svc.Run(ctx, ingest.Options{Trigger: ingest.TriggerSchedule})
			if errors.Is(err, ingest.ErrSyncInProgress) {
				logging.Debug().Msg("scheduled sync skipped, a pass is running")
				continue
			}
			if err != nil {
				logging.Error().Err(err).Str("hint", ingest.UserMessage(err)).Msg("scheduled sync failed")
			}
		}
	}
}
