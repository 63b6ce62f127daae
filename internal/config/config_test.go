package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filearr/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("FILEARR_INPUT_DIR", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	wantInput := filepath.Join(tempHome, "downloads", "complete")
	if cfg.Paths.InputDir != wantInput {
		t.Fatalf("unexpected input dir: got %q want %q", cfg.Paths.InputDir, wantInput)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.MinSizeBytes() != 300*1024*1024 {
		t.Fatalf("unexpected min size: %d", cfg.MinSizeBytes())
	}
	if !cfg.Pipeline.RequireConfidentMatch {
		t.Fatal("expected confident match required by default")
	}
	if cfg.Watch.SettleSeconds != 2 {
		t.Fatalf("unexpected settle seconds: %d", cfg.Watch.SettleSeconds)
	}
	if cfg.DirMode() != 0o775 {
		t.Fatalf("unexpected dir mode: %o", cfg.DirMode())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
input_dir = "~/inbox"
movies_dir = "/srv/movies"
regional_dir = "/srv/malayalam"
rejected_dir = "/srv/rejected"

[tmdb]
api_key = "file-key"

[pipeline]
regional_language = "TAM"
require_confident_match = false

[permissions]
uid = 1000
gid = 1000
file_mode = "0640"

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be found at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.InputDir != filepath.Join(tempHome, "inbox") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Fatalf("unexpected api key: %q", cfg.TMDB.APIKey)
	}
	if cfg.Pipeline.RegionalLanguage != "tam" {
		t.Fatalf("expected lowercased regional language, got %q", cfg.Pipeline.RegionalLanguage)
	}
	if cfg.Pipeline.RequireConfidentMatch {
		t.Fatal("expected require_confident_match override")
	}
	if cfg.Permissions.UID != 1000 || cfg.FileMode() != 0o640 {
		t.Fatalf("unexpected permissions: %+v", cfg.Permissions)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := config.Default()
	cfg.Permissions.DirMode = "rwx"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "dir_mode") {
		t.Fatalf("expected dir_mode error, got %v", err)
	}
}

func TestValidateRejectsInputEqualToDestination(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MoviesDir = cfg.Paths.InputDir
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f fakeSettings) Settings(context.Context) (map[string]string, error) {
	return f.values, f.err
}

func TestLayeredPrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MoviesDir = "/file/movies"
	cfg.Paths.RegionalDir = "/file/regional"
	cfg.TMDB.APIKey = "file-key"

	source := fakeSettings{values: map[string]string{
		config.KeyMoviesDir:   "/db/movies",
		config.KeyTMDBAPIKey:  "  ",
		config.KeyRejectedDir: "/db/rejected",
	}}
	layered := config.NewLayered(&cfg, source)

	if got := layered.Get(config.KeyMoviesDir); got != "/db/movies" {
		t.Fatalf("expected persisted value, got %q", got)
	}
	if got := layered.Get(config.KeyTMDBAPIKey); got != "file-key" {
		t.Fatalf("blank persisted value should fall through, got %q", got)
	}

	override := layered.WithOverrides(map[string]string{config.KeyMoviesDir: "/override", config.KeyRegionalDir: ""})
	if got := override.Get(config.KeyMoviesDir); got != "/override" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := override.Get(config.KeyRegionalDir); got != "/file/regional" {
		t.Fatalf("empty override should be ignored, got %q", got)
	}
	if got := layered.Get(config.KeyMoviesDir); got != "/db/movies" {
		t.Fatalf("override leaked into parent provider: %q", got)
	}

	all := override.All()
	if all[config.KeyRejectedDir] != "/db/rejected" || all[config.KeyMoviesDir] != "/override" {
		t.Fatalf("unexpected merged values: %v", all)
	}
}

func TestLayeredIgnoresSourceErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MoviesDir = "/file/movies"
	layered := config.NewLayered(&cfg, fakeSettings{err: errors.New("db closed")})
	if got := layered.Get(config.KeyMoviesDir); got != "/file/movies" {
		t.Fatalf("expected file value on source error, got %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := config.MaskSecret("abcdef123"); got != "*****f123" {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := config.MaskSecret("abc"); got != "***" {
		t.Fatalf("unexpected short mask: %q", got)
	}
}
