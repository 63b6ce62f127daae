package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeSafety()
	c.normalizePipeline()
	c.normalizeWatch()
	if err := c.normalizePermissions(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func envFallback(current *string, keys ...string) {
	if strings.TrimSpace(*current) != "" {
		return
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			*current = strings.TrimSpace(value)
			return
		}
	}
}

func (c *Config) normalizePaths() error {
	envFallback(&c.Paths.InputDir, "FILEARR_INPUT_DIR")
	envFallback(&c.Paths.MoviesDir, "FILEARR_MOVIES_DIR")
	envFallback(&c.Paths.RegionalDir, "FILEARR_REGIONAL_DIR")
	envFallback(&c.Paths.RejectedDir, "FILEARR_REJECTED_DIR")

	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.input_dir", &c.Paths.InputDir, defaultInputDir},
		{"paths.movies_dir", &c.Paths.MoviesDir, defaultMoviesDir},
		{"paths.regional_dir", &c.Paths.RegionalDir, defaultRegionalDir},
		{"paths.rejected_dir", &c.Paths.RejectedDir, defaultRejectedDir},
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	envFallback(&c.Paths.APIToken, "FILEARR_API_TOKEN")
	return nil
}

func (c *Config) normalizeTMDB() {
	envFallback(&c.TMDB.APIKey, "TMDB_API_KEY")
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
	if c.TMDB.RequestsPerSec <= 0 {
		c.TMDB.RequestsPerSec = defaultTMDBRequestsPerSec
	}
	if c.TMDB.CacheMinutes < 0 {
		c.TMDB.CacheMinutes = 0
	}
}

func (c *Config) normalizeSafety() {
	if c.Safety.MinSizeMiB < 0 {
		c.Safety.MinSizeMiB = 0
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.RegionalLanguage = strings.ToLower(strings.TrimSpace(c.Pipeline.RegionalLanguage))
	if c.Pipeline.RegionalLanguage == "" {
		c.Pipeline.RegionalLanguage = defaultRegionalLanguage
	}
	if c.Pipeline.ProbeTimeoutSeconds <= 0 {
		c.Pipeline.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.SettleSeconds < 0 {
		c.Watch.SettleSeconds = 0
	}
	if c.Watch.RescanMinutes < 0 {
		c.Watch.RescanMinutes = 0
	}
	if c.Watch.StopTimeoutSec <= 0 {
		c.Watch.StopTimeoutSec = defaultStopTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	envFallback(&c.Notifications.NtfyTopic, "FILEARR_NTFY_TOPIC")
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.TimeoutSeconds <= 0 {
		c.Notifications.TimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizePermissions() error {
	for _, env := range []struct {
		key   string
		value *int
	}{
		{"PUID", &c.Permissions.UID},
		{"PGID", &c.Permissions.GID},
	} {
		if *env.value >= 0 {
			continue
		}
		raw, ok := os.LookupEnv(env.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", env.key, err)
		}
		*env.value = id
	}
	c.Permissions.DirMode = strings.TrimSpace(c.Permissions.DirMode)
	if c.Permissions.DirMode == "" {
		c.Permissions.DirMode = defaultDirMode
	}
	c.Permissions.FileMode = strings.TrimSpace(c.Permissions.FileMode)
	if c.Permissions.FileMode == "" {
		c.Permissions.FileMode = defaultFileMode
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
