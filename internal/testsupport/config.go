package testsupport

import (
	"path/filepath"
	"testing"

	"filearr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The size threshold is disabled so fixtures stay small.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.MoviesDir = filepath.Join(base, "movies")
	cfgVal.Paths.RegionalDir = filepath.Join(base, "malayalam")
	cfgVal.Paths.RejectedDir = filepath.Join(base, "rejected")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Safety.MinSizeMiB = 0
	cfgVal.Watch.SettleSeconds = 0
	cfgVal.Watch.RescanMinutes = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithRegionalLanguage overrides the language routed to the regional root.
func WithRegionalLanguage(code string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.RegionalLanguage = code
	}
}

// WithLenientMatching accepts fallback matches instead of skipping them.
func WithLenientMatching() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.RequireConfidentMatch = false
	}
}

// WithConfig applies an arbitrary mutation to the test config.
func WithConfig(fn func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		fn(b.cfg)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
