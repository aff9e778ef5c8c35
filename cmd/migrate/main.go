package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"hardcoversync/internal/logging"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
		format  = flag.String("log-format", "console", "Log format: json or console")
	)
	flag.Parse()

	logging.Init(logging.Config{Format: *format})
	loadEnvFiles()

	if *command == "create" {
		if err := create(*name); err != nil {
			logging.Error().Err(err).Msg("create migration failed")
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), *command); err != nil {
		logging.Error().Err(err).Str("command", *command).Msg("migration failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, command string) error {
	pool, err := pgxpool.New(ctx, databaseDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	fsys, dir := migrations()
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return err
		}
		logging.Info().Msg("migrations applied")
	case "down":
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return err
		}
		logging.Info().Msg("migration rolled back")
	case "status":
		return goose.StatusContext(ctx, db, dir)
	case "version":
		return goose.VersionContext(ctx, db, dir)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, version, create", command)
	}
	return nil
}

// create writes a new SQL migration on disk. The embedded set only picks it up
// after a rebuild.
func create(name string) error {
	if name == "" {
		return fmt.Errorf("name is required for 'create' command")
	}
	goose.SetBaseFS(nil)
	dir := sourceDir()
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return err
	}
	logging.Info().Str("dir", dir).Str("name", name).Msg("migration created")
	return nil
}
