package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"

	"hardcoversync/internal/config"
	"hardcoversync/internal/ingest"
	"hardcoversync/internal/logging"
	"hardcoversync/internal/platform/hardcover"
	"hardcoversync/internal/vault"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	settings *config.Settings
	store    vault.Store
	repo     ingest.Repository
	svc      *ingest.Service
	close    func()
}

func newApp(ctx context.Context, s *config.Settings) (*app, error) {
	repo, closeRepo, err := openRepository(ctx, s)
	if err != nil {
		return nil, err
	}

	limiter := hardcover.NewRateLimiter(hardcover.DefaultLimiterConfig())
	limiter.SetLogFunc(func(msg string) {
		logging.Debug().Str("component", "ratelimiter").Msg(msg)
	})
	client := hardcover.NewClient(hardcover.Config{
		Endpoint: s.Hardcover.Endpoint,
		Token:    s.Hardcover.APIKey,
		Timeout:  s.Hardcover.Timeout,
		PageSize: s.Hardcover.PageSize,
	}, limiter)

	store := vault.NewOSStore(s.VaultPath)
	return &app{
		settings: s,
		store:    store,
		repo:     repo,
		svc:      ingest.NewService(client, store, repo, s),
		close:    closeRepo,
	}, nil
}

func openRepository(ctx context.Context, s *config.Settings) (ingest.Repository, func(), error) {
	switch s.State.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, s.State.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database (%s): %w", redactDSN(s.State.DSN), err)
		}
		return ingest.NewPostgresRepo(pool), pool.Close, nil
	default:
		p := s.State.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.VaultPath, p)
		}
		return ingest.NewFileRepo(afero.NewOsFs(), p), func() {}, nil
	}
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
