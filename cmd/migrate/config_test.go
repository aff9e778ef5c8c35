package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_x.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	t.Setenv("MIGRATIONS_DIR", dir)

	fsys, sub := migrations()
	entries, err := fs.ReadDir(fsys, sub)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "00001_x.sql", entries[0].Name())
}

func TestMigrations_DefaultIsEmbedded(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	fsys, sub := migrations()
	entries, err := fs.ReadDir(fsys, sub)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\n"), 0o644))
	t.Setenv("DB_DSN", "from_env")
	t.Chdir(tmp)

	loadEnvFiles()

	assert.Equal(t, "from_env", databaseDSN())
}

func TestSourceDir(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, "db/migrations", sourceDir())

	t.Setenv("MIGRATIONS_DIR", "/tmp/m")
	assert.Equal(t, "/tmp/m", sourceDir())
}
