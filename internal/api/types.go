package api

import (
	"filearr/internal/cleanup"
	"filearr/internal/preflight"
	"filearr/internal/store"
	"filearr/internal/watcher"
)

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running      bool                 `json:"running"`
	PID          int                  `json:"pid"`
	DatabasePath string               `json:"database_path"`
	LockPath     string               `json:"lock_path"`
	Watch        watcher.Status       `json:"watch"`
	Cleanup      cleanup.Status       `json:"cleanup"`
	Ledger       map[store.Status]int `json:"ledger"`
	InFlight     int                  `json:"in_flight"`
	Checks       []preflight.Result   `json:"checks,omitempty"`
}

// WatchResponse reports the watcher state after a watch command.
type WatchResponse struct {
	Message string         `json:"message,omitempty"`
	Watch   watcher.Status `json:"watch"`
}

// CleanupRequest starts a bulk cleanup job. Blank destination overrides fall
// back to the configured roots.
type CleanupRequest struct {
	Origin      string `json:"origin"`
	MoviesDir   string `json:"movies_dir,omitempty"`
	RegionalDir string `json:"regional_dir,omitempty"`
	DryRun      bool   `json:"dry_run"`
}

// CleanupStartResponse is returned with 202 Accepted.
type CleanupStartResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// CleanupStopResponse reports whether a running job was asked to stop.
type CleanupStopResponse struct {
	Requested bool   `json:"requested"`
	Message   string `json:"message"`
}

// LogsResponse lists recent ledger entries, newest first.
type LogsResponse struct {
	Entries []store.Entry `json:"entries"`
}

// SettingsResponse carries effective settings. The TMDB key is masked.
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}

// SettingsUpdate persists settings. A blank value removes the persisted
// value so the config file default applies again.
type SettingsUpdate struct {
	Settings map[string]string `json:"settings"`
}

// IgnorePatternsResponse lists basename glob patterns in insertion order.
type IgnorePatternsResponse struct {
	Patterns []string `json:"patterns"`
}

// IgnorePatternRequest adds or removes one pattern.
type IgnorePatternRequest struct {
	Pattern string `json:"pattern"`
}

// IgnoredFilesResponse lists the exact-path denylist, newest first.
type IgnoredFilesResponse struct {
	Files []store.IgnoredFile `json:"files"`
}

// IgnoreFileRequest adds or removes one exact path.
type IgnoreFileRequest struct {
	Path   string `json:"path"`
	Reason string `json:"reason,omitempty"`
}

// IgnoreTestRequest asks whether a path would be ignored.
type IgnoreTestRequest struct {
	Path string `json:"path"`
}

// IgnoreTestResponse answers an IgnoreTestRequest.
type IgnoreTestResponse struct {
	Ignored bool   `json:"ignored"`
	Reason  string `json:"reason,omitempty"`
}

// BrowseEntry is one child of a browsed directory.
type BrowseEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

// BrowseResponse lists a directory: subdirectories first, then files, each
// sorted by name.
type BrowseResponse struct {
	Path    string        `json:"path"`
	Parent  string        `json:"parent"`
	Entries []BrowseEntry `json:"entries"`
}

// ValidateKeyRequest checks a TMDB key. A blank key checks the effective one.
type ValidateKeyRequest struct {
	APIKey string `json:"api_key"`
}

// ValidateKeyResponse reports the TMDB credential check.
type ValidateKeyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// DaemonLogResponse is a window of the daemon log file. Offset resumes the
// next read.
type DaemonLogResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// NotificationTestResponse reports the outcome of a test notification.
type NotificationTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
