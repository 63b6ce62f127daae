package config

const (
	defaultConfigPath          = "~/.config/filearr/config.toml"
	defaultInputDir            = "~/downloads/complete"
	defaultMoviesDir           = "~/media/movies"
	defaultRegionalDir         = "~/media/malayalam"
	defaultRejectedDir         = "~/media/rejected"
	defaultDataDir             = "~/.local/share/filearr"
	defaultLogDir              = "~/.local/share/filearr/logs"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBTimeoutSeconds  = 10
	defaultTMDBRequestsPerSec  = 4
	defaultTMDBCacheMinutes    = 10
	defaultMinSizeMiB          = 300
	defaultRegionalLanguage    = "mal"
	defaultProbeTimeoutSeconds = 30
	defaultSettleSeconds       = 2
	defaultRescanMinutes       = 30
	defaultStopTimeoutSeconds  = 10
	defaultDirMode             = "0775"
	defaultFileMode            = "0664"
	defaultNtfyTimeoutSeconds  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 20
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:    defaultInputDir,
			MoviesDir:   defaultMoviesDir,
			RegionalDir: defaultRegionalDir,
			RejectedDir: defaultRejectedDir,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeoutSeconds,
			RequestsPerSec: defaultTMDBRequestsPerSec,
			CacheMinutes:   defaultTMDBCacheMinutes,
		},
		Safety: Safety{
			MinSizeMiB: defaultMinSizeMiB,
		},
		Pipeline: Pipeline{
			RegionalLanguage:      defaultRegionalLanguage,
			RequireConfidentMatch: true,
			ProbeTimeoutSeconds:   defaultProbeTimeoutSeconds,
		},
		Watch: Watch{
			AutoStart:      true,
			SettleSeconds:  defaultSettleSeconds,
			RescanMinutes:  defaultRescanMinutes,
			InitialRescan:  true,
			StopTimeoutSec: defaultStopTimeoutSeconds,
		},
		Permissions: Permissions{
			UID:      -1,
			GID:      -1,
			DirMode:  defaultDirMode,
			FileMode: defaultFileMode,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNtfyTimeoutSeconds,
			OnProcessed:    true,
			OnRejected:     true,
			OnFailed:       true,
			OnCleanup:      true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
