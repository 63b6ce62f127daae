package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	InputDir    string `toml:"input_dir"`
	MoviesDir   string `toml:"movies_dir"`
	RegionalDir string `toml:"regional_dir"`
	RejectedDir string `toml:"rejected_dir"`
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
	APIToken    string `toml:"api_token"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Language       string  `toml:"language"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RequestsPerSec float64 `toml:"requests_per_second"`
	CacheMinutes   int     `toml:"cache_minutes"`
}

// Safety contains the thresholds applied before a file is classified.
type Safety struct {
	MinSizeMiB int64 `toml:"min_size_mib"`
}

// Pipeline contains classification behaviour switches.
type Pipeline struct {
	RegionalLanguage      string `toml:"regional_language"`
	RequireConfidentMatch bool   `toml:"require_confident_match"`
	ProbeTimeoutSeconds   int    `toml:"probe_timeout_seconds"`
}

// Watch contains timing for the live watcher and the periodic rescan.
type Watch struct {
	AutoStart      bool `toml:"auto_start"`
	SettleSeconds  int  `toml:"settle_seconds"`
	RescanMinutes  int  `toml:"rescan_minutes"`
	InitialRescan  bool `toml:"initial_rescan"`
	StopTimeoutSec int  `toml:"stop_timeout_seconds"`
}

// Permissions contains ownership and mode bits applied to moved files.
// A negative UID or GID leaves that id unchanged.
type Permissions struct {
	UID      int    `toml:"uid"`
	GID      int    `toml:"gid"`
	DirMode  string `toml:"dir_mode"`
	FileMode string `toml:"file_mode"`
}

// Notifications contains ntfy delivery settings. An empty topic disables
// notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	TimeoutSeconds int    `toml:"request_timeout_seconds"`
	OnProcessed    bool   `toml:"on_processed"`
	OnRejected     bool   `toml:"on_rejected"`
	OnFailed       bool   `toml:"on_failed"`
	OnCleanup      bool   `toml:"on_cleanup"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for filearr.
//
// Configuration sections by subsystem:
//   - Paths: inbox, destination roots, data/log directories and API bind address
//   - TMDB: metadata search credentials and request shaping
//   - Safety: pre-classification thresholds
//   - Pipeline: language routing and match confidence policy
//   - Watch: live watcher settle delay and rescan interval
//   - Permissions: ownership and modes applied after a move
//   - Notifications: ntfy topic and which events are announced
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Safety        Safety        `toml:"safety"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Watch         Watch         `toml:"watch"`
	Permissions   Permissions   `toml:"permissions"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("filearr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Destination roots are created on a best-effort basis so the daemon can run
// when external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.MoviesDir, c.Paths.RegionalDir, c.Paths.RejectedDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for stream inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// DatabasePath returns the SQLite ledger location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "filearr.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "filearr.lock")
}

// PIDPath returns the file holding the running daemon's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "filearr.pid")
}

// LogFilePath returns the daemon log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "filearr.log")
}

// MinSizeBytes returns the safety gate size threshold in bytes.
func (c *Config) MinSizeBytes() int64 {
	return c.Safety.MinSizeMiB * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
