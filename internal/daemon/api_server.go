package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"filearr/internal/api"
	"filearr/internal/cleanup"
	"filearr/internal/config"
	"filearr/internal/decision"
	"filearr/internal/identification/tmdb"
	"filearr/internal/ignore"
	"filearr/internal/logging"
	"filearr/internal/logs"
	"filearr/internal/preflight"
	"filearr/internal/store"
	"filearr/internal/watcher"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon
	filter *ignore.Filter

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	return &apiServer{
		bind:   bind,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		filter: ignore.NewFilter(d.store, logger),
	}
}

func (s *apiServer) handler() http.Handler {
	token := strings.TrimSpace(s.cfg.Paths.APIToken)
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, authMiddleware(token, h))
	}

	route("GET /api/status", s.handleStatus)
	route("GET /api/watch", s.handleWatchStatus)
	route("POST /api/watch/{command}", s.handleWatchCommand)
	route("GET /api/cleanup", s.handleCleanupStatus)
	route("POST /api/cleanup", s.handleCleanupStart)
	route("POST /api/cleanup/stop", s.handleCleanupStop)
	route("GET /api/logs", s.handleLogs)
	route("GET /api/daemon-log", s.handleDaemonLog)
	route("GET /api/settings", s.handleSettings)
	route("PUT /api/settings", s.handleSettingsUpdate)
	route("GET /api/ignore/patterns", s.handleIgnorePatterns)
	route("POST /api/ignore/patterns", s.handleIgnorePatternAdd)
	route("DELETE /api/ignore/patterns", s.handleIgnorePatternRemove)
	route("GET /api/ignore/files", s.handleIgnoredFiles)
	route("POST /api/ignore/files", s.handleIgnoredFileAdd)
	route("DELETE /api/ignore/files", s.handleIgnoredFileRemove)
	route("POST /api/ignore/test", s.handleIgnoreTest)
	route("GET /api/browse", s.handleBrowse)
	route("POST /api/tmdb/validate", s.handleValidateKey)
	route("POST /api/notifications/test", s.handleTestNotification)
	mux.Handle("GET /metrics", authMiddleware(token, s.daemon.metrics.Handler().ServeHTTP))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener, s.server = listener, server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockPath:     status.LockPath,
		Watch:        status.Watch,
		Cleanup:      status.Cleanup,
		Ledger:       status.Ledger,
		InFlight:     status.InFlight,
		Checks:       preflight.RunAll(s.cfg, s.daemon.Settings()),
	})
}

func (s *apiServer) handleWatchStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.WatchResponse{Watch: s.daemon.WatchStatus()})
}

func (s *apiServer) handleWatchCommand(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		message string
	)
	switch command := r.PathValue("command"); command {
	case "start":
		message = "watcher started"
		err = s.daemon.StartWatch(r.Context())
		if errors.Is(err, watcher.ErrAlreadyRunning) {
			err, message = nil, "watcher already running"
		}
	case "stop":
		message = "watcher stopped"
		err = s.daemon.StopWatch(r.Context())
	case "restart":
		message = "watcher restarted"
		err = s.daemon.RestartWatch(r.Context())
	default:
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown watch command %q", command))
		return
	}
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, watcher.ErrInputUnavailable) {
			code = http.StatusConflict
		}
		s.writeError(w, code, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.WatchResponse{Message: message, Watch: s.daemon.WatchStatus()})
}

func (s *apiServer) handleCleanupStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.CleanupStatus())
}

func (s *apiServer) handleCleanupStart(w http.ResponseWriter, r *http.Request) {
	var req api.CleanupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Origin) == "" {
		s.writeError(w, http.StatusBadRequest, "origin is required")
		return
	}
	overrides := decision.Overrides{
		MoviesDir:   strings.TrimSpace(req.MoviesDir),
		RegionalDir: strings.TrimSpace(req.RegionalDir),
	}
	jobID, err := s.daemon.StartCleanup(r.Context(), strings.TrimSpace(req.Origin), overrides, req.DryRun)
	switch {
	case errors.Is(err, cleanup.ErrJobRunning):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, cleanup.ErrOriginUnavailable):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mode := "live"
	if req.DryRun {
		mode = "dry run"
	}
	s.writeJSON(w, http.StatusAccepted, api.CleanupStartResponse{
		JobID:   jobID,
		Message: fmt.Sprintf("cleanup started (%s)", mode),
	})
}

func (s *apiServer) handleCleanupStop(w http.ResponseWriter, _ *http.Request) {
	if s.daemon.RequestStopCleanup() {
		s.writeJSON(w, http.StatusOK, api.CleanupStopResponse{Requested: true, Message: "stop requested"})
		return
	}
	s.writeJSON(w, http.StatusOK, api.CleanupStopResponse{Message: "no cleanup job running"})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.RecentFilter{}
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	if value := strings.TrimSpace(query.Get("status")); value != "" {
		status := store.Status(strings.ToLower(value))
		if !knownStatus(status) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		filter.Status = status
	}
	entries, err := s.daemon.store.Recent(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	s.writeJSON(w, http.StatusOK, api.LogsResponse{Entries: entries})
}

// maxLogWait stays below the server write timeout.
const maxLogWait = 25 * time.Second

func (s *apiServer) handleDaemonLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := logs.Options{Offset: -1, Lines: 100}
	if value := strings.TrimSpace(query.Get("offset")); value != "" {
		offset, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if value := strings.TrimSpace(query.Get("lines")); value != "" {
		lines, err := strconv.Atoi(value)
		if err != nil || lines < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid lines")
			return
		}
		opts.Lines = min(lines, 5000)
	}
	if value := strings.TrimSpace(query.Get("wait")); value != "" {
		wait, err := time.ParseDuration(value)
		if err != nil || wait < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid wait")
			return
		}
		opts.Wait = min(wait, maxLogWait)
	}
	page, err := logs.Read(r.Context(), s.cfg.LogFilePath(), opts)
	if err != nil && r.Context().Err() == nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if page.Lines == nil {
		page.Lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.DaemonLogResponse{Lines: page.Lines, Offset: page.Offset})
}

func knownStatus(status store.Status) bool {
	switch status {
	case store.StatusProcessed, store.StatusSkipped, store.StatusRejected, store.StatusFailed, store.StatusIgnored:
		return true
	}
	return false
}

func (s *apiServer) handleSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.SettingsResponse{Settings: s.maskedSettings()})
}

func (s *apiServer) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var update api.SettingsUpdate
	if !s.decode(w, r, &update) {
		return
	}
	for _, key := range config.SortedKeys(update.Settings) {
		if !config.IsKey(key) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown setting %q", key))
			return
		}
		if key == config.KeyMinSizeMiB {
			if value := strings.TrimSpace(update.Settings[key]); value != "" {
				if n, err := strconv.ParseInt(value, 10, 64); err != nil || n < 0 {
					s.writeError(w, http.StatusBadRequest, "min_size_mib must be a non-negative integer")
					return
				}
			}
		}
	}
	for _, key := range config.SortedKeys(update.Settings) {
		if err := s.daemon.store.SetSetting(r.Context(), key, update.Settings[key]); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if _, ok := update.Settings[config.KeyTMDBAPIKey]; ok {
		s.daemon.runtime.Search.Purge()
	}
	s.logger.Info("settings updated", logging.Int("count", len(update.Settings)))
	s.writeJSON(w, http.StatusOK, api.SettingsResponse{Settings: s.maskedSettings()})
}

func (s *apiServer) maskedSettings() map[string]string {
	values := s.daemon.Settings().All()
	if key := values[config.KeyTMDBAPIKey]; key != "" {
		values[config.KeyTMDBAPIKey] = config.MaskSecret(key)
	}
	return values
}

func (s *apiServer) handleIgnorePatterns(w http.ResponseWriter, r *http.Request) {
	s.writePatterns(w, r, http.StatusOK)
}

func (s *apiServer) handleIgnorePatternAdd(w http.ResponseWriter, r *http.Request) {
	var req api.IgnorePatternRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Pattern) == "" {
		s.writeError(w, http.StatusBadRequest, "pattern is required")
		return
	}
	if err := ignore.Validate(req.Pattern); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.daemon.store.AddIgnorePattern(r.Context(), strings.TrimSpace(req.Pattern)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writePatterns(w, r, http.StatusCreated)
}

func (s *apiServer) handleIgnorePatternRemove(w http.ResponseWriter, r *http.Request) {
	var req api.IgnorePatternRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		pattern = strings.TrimSpace(r.URL.Query().Get("pattern"))
	}
	removed, err := s.daemon.store.RemoveIgnorePattern(r.Context(), pattern)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("pattern %q not found", pattern))
		return
	}
	s.writePatterns(w, r, http.StatusOK)
}

func (s *apiServer) writePatterns(w http.ResponseWriter, r *http.Request, code int) {
	patterns, err := s.daemon.store.IgnorePatterns(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if patterns == nil {
		patterns = []string{}
	}
	s.writeJSON(w, code, api.IgnorePatternsResponse{Patterns: patterns})
}

func (s *apiServer) handleIgnoredFiles(w http.ResponseWriter, r *http.Request) {
	s.writeIgnoredFiles(w, r, http.StatusOK)
}

func (s *apiServer) handleIgnoredFileAdd(w http.ResponseWriter, r *http.Request) {
	var req api.IgnoreFileRequest
	if !s.decode(w, r, &req) {
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Manually ignored"
	}
	if err := s.daemon.store.AddIgnoredFile(r.Context(), filepath.Clean(path), reason); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeIgnoredFiles(w, r, http.StatusCreated)
}

func (s *apiServer) handleIgnoredFileRemove(w http.ResponseWriter, r *http.Request) {
	var req api.IgnoreFileRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		path = strings.TrimSpace(r.URL.Query().Get("path"))
	}
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	removed, err := s.daemon.store.RemoveIgnoredFile(r.Context(), filepath.Clean(path))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("%s is not ignored", path))
		return
	}
	s.writeIgnoredFiles(w, r, http.StatusOK)
}

func (s *apiServer) writeIgnoredFiles(w http.ResponseWriter, r *http.Request, code int) {
	files, err := s.daemon.store.IgnoredFiles(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []store.IgnoredFile{}
	}
	s.writeJSON(w, code, api.IgnoredFilesResponse{Files: files})
}

func (s *apiServer) handleIgnoreTest(w http.ResponseWriter, r *http.Request) {
	var req api.IgnoreTestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	ignored, reason := s.filter.ShouldIgnore(r.Context(), filepath.Clean(strings.TrimSpace(req.Path)))
	s.writeJSON(w, http.StatusOK, api.IgnoreTestResponse{Ignored: ignored, Reason: reason})
}

// handleBrowse lists a directory for path pickers. A blank or missing path
// falls back to the filesystem root.
func (s *apiServer) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		path = string(filepath.Separator)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		path = string(filepath.Separator)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, os.ErrPermission) {
			code = http.StatusForbidden
		}
		s.writeError(w, code, err.Error())
		return
	}
	entries := make([]api.BrowseEntry, 0, len(dirEntries))
	for _, entry := range dirEntries {
		item := api.BrowseEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(path, entry.Name()),
			IsDir: entry.IsDir(),
		}
		if !item.IsDir {
			if info, err := entry.Info(); err == nil {
				item.Size = info.Size()
			}
		}
		entries = append(entries, item)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	s.writeJSON(w, http.StatusOK, api.BrowseResponse{
		Path:    path,
		Parent:  filepath.Dir(path),
		Entries: entries,
	})
}

func (s *apiServer) handleValidateKey(w http.ResponseWriter, r *http.Request) {
	var req api.ValidateKeyRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		key = s.daemon.Settings().Get(config.KeyTMDBAPIKey)
	}
	if key == "" {
		s.writeJSON(w, http.StatusOK, api.ValidateKeyResponse{Message: "API key is required"})
		return
	}
	timeout := time.Duration(s.cfg.TMDB.TimeoutSeconds) * time.Second
	valid, message := tmdb.ValidateKey(r.Context(), key, s.cfg.TMDB.BaseURL, tmdb.WithTimeout(timeout))
	s.writeJSON(w, http.StatusOK, api.ValidateKeyResponse{Valid: valid, Message: message})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	n := s.daemon.notifier
	if n == nil || !n.Enabled() {
		s.writeJSON(w, http.StatusOK, api.NotificationTestResponse{Message: "notifications are not configured"})
		return
	}
	if err := n.TestNotification(r.Context()); err != nil {
		s.writeJSON(w, http.StatusOK, api.NotificationTestResponse{Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotificationTestResponse{Sent: true, Message: "test notification sent"})
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (s *apiServer) decodeOptional(w http.ResponseWriter, r *http.Request, out any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
