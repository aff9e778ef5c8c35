package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envKeys maps the environment variables we honour to settings paths.
var envKeys = map[string]string{
	"HARDCOVER_API_KEY":          "hardcover.api_key",
	"HARDCOVER_ENDPOINT":         "hardcover.endpoint",
	"HCSYNC_VAULT_PATH":          "vault_path",
	"HCSYNC_TARGET_FOLDER":       "target_folder",
	"HCSYNC_LAST_SYNC_TIMESTAMP": "last_sync_timestamp",
	"HCSYNC_DEBUG_LIMIT":         "debug_limit",
	"HCSYNC_LOG_LEVEL":           "log.level",
	"HCSYNC_LOG_FORMAT":          "log.format",
	"HCSYNC_STATE_DRIVER":        "state.driver",
	"HCSYNC_STATE_PATH":          "state.path",
	"DB_DSN":                     "state.dsn",
	"HCSYNC_SERVER_ADDR":         "server.addr",
	"HCSYNC_SYNC_INTERVAL":       "server.sync_interval",
	"INTERNAL_SECRET":            "server.internal_secret",
}

func loadEnvFiles() {
	// Never overrides variables already set by the runtime.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load layers defaults, the YAML settings file at path and the environment,
// then validates the result. A missing settings file is not an error.
func Load(path string) (*Settings, error) {
	loadEnvFiles()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := k.Load(migratedFile{path: path}, nil); err != nil {
				return nil, fmt.Errorf("load settings file %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("stat settings file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.Hardcover.APIKey = strings.TrimSpace(s.Hardcover.APIKey)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func envKey(name string) string {
	return envKeys[name]
}

// migratedFile reads a YAML settings file and runs it through the
// settings-version migration chain before koanf merges it.
type migratedFile struct {
	path string
}

func (m migratedFile) ReadBytes() ([]byte, error) {
	return nil, errors.New("migratedFile provider does not support ReadBytes")
}

func (m migratedFile) Read() (map[string]any, error) {
	raw := koanf.New(".")
	if err := raw.Load(file.Provider(m.path), yaml.Parser()); err != nil {
		return nil, err
	}
	out, _ := Migrate(raw.Raw())
	return out, nil
}
