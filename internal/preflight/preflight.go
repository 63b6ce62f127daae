package preflight

import (
	"strings"

	"filearr/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// RunAll executes every check against the effective settings. Directory
// values come from settings so persisted overrides are what gets checked.
func RunAll(cfg *config.Config, settings config.Provider) []Result {
	if cfg == nil || settings == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", settings.Get(config.KeyInputDir)),
		CheckDirectoryAccess("Movies directory", settings.Get(config.KeyMoviesDir)),
		CheckDirectoryAccess("Regional directory", settings.Get(config.KeyRegionalDir)),
		CheckDirectoryAccess("Rejected directory", settings.Get(config.KeyRejectedDir)),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	results = append(results, CheckBinaries([]Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for audio language and resolution probing",
		},
	})...)
	return append(results,
		CheckTMDBKey(settings.Get(config.KeyTMDBAPIKey)),
		CheckNotifications(cfg.Notifications.NtfyTopic),
	)
}

// Failed returns the names of required checks that did not pass.
func Failed(results []Result) []string {
	var names []string
	for _, r := range results {
		if !r.Passed && !r.Optional {
			names = append(names, r.Name)
		}
	}
	return names
}

// CheckTMDBKey reports whether a metadata API key is configured. It does not
// contact TMDB; use tmdb.ValidateKey for that.
func CheckTMDBKey(apiKey string) Result {
	const name = "TMDB API key"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + config.MaskSecret(apiKey) + ")"}
}

// CheckNotifications reports the ntfy topic. Notifications are optional.
func CheckNotifications(topic string) Result {
	const name = "ntfy"
	if topic = strings.TrimSpace(topic); topic == "" {
		return Result{Name: name, Optional: true, Detail: "not configured"}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: topic}
}
