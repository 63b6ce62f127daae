package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"filearr/internal/cleanup"
	"filearr/internal/store"
)

// ErrAPIUnavailable reports that no daemon answered at the configured bind.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// Error is a non-2xx response from the daemon.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client calls the daemon HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for bind, which may be host:port or a URL.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api bind: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Watch fetches the watcher state.
func (c *Client) Watch(ctx context.Context) (WatchResponse, error) {
	var out WatchResponse
	err := c.do(ctx, http.MethodGet, "/api/watch", nil, nil, &out)
	return out, err
}

// WatchCommand posts start, stop, or restart.
func (c *Client) WatchCommand(ctx context.Context, command string) (WatchResponse, error) {
	var out WatchResponse
	err := c.do(ctx, http.MethodPost, "/api/watch/"+url.PathEscape(command), nil, nil, &out)
	return out, err
}

// StartCleanup launches a cleanup job. A running job yields an *Error with
// status 409.
func (c *Client) StartCleanup(ctx context.Context, req CleanupRequest) (CleanupStartResponse, error) {
	var out CleanupStartResponse
	err := c.do(ctx, http.MethodPost, "/api/cleanup", nil, req, &out)
	return out, err
}

// StopCleanup asks the running job to stop after its current file.
func (c *Client) StopCleanup(ctx context.Context) (CleanupStopResponse, error) {
	var out CleanupStopResponse
	err := c.do(ctx, http.MethodPost, "/api/cleanup/stop", nil, nil, &out)
	return out, err
}

// Cleanup fetches the cleanup job state.
func (c *Client) Cleanup(ctx context.Context) (cleanup.Status, error) {
	var out cleanup.Status
	err := c.do(ctx, http.MethodGet, "/api/cleanup", nil, nil, &out)
	return out, err
}

// Logs fetches recent ledger entries.
func (c *Client) Logs(ctx context.Context, limit int, status store.Status) (LogsResponse, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if status != "" {
		values.Set("status", string(status))
	}
	var out LogsResponse
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &out)
	return out, err
}

// Settings fetches the effective settings.
func (c *Client) Settings(ctx context.Context) (SettingsResponse, error) {
	var out SettingsResponse
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &out)
	return out, err
}

// UpdateSettings persists settings and returns the new effective values.
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (SettingsResponse, error) {
	var out SettingsResponse
	err := c.do(ctx, http.MethodPut, "/api/settings", nil, update, &out)
	return out, err
}

// IgnorePatterns lists ignore patterns.
func (c *Client) IgnorePatterns(ctx context.Context) (IgnorePatternsResponse, error) {
	var out IgnorePatternsResponse
	err := c.do(ctx, http.MethodGet, "/api/ignore/patterns", nil, nil, &out)
	return out, err
}

// AddIgnorePattern stores a pattern.
func (c *Client) AddIgnorePattern(ctx context.Context, pattern string) (IgnorePatternsResponse, error) {
	var out IgnorePatternsResponse
	err := c.do(ctx, http.MethodPost, "/api/ignore/patterns", nil, IgnorePatternRequest{Pattern: pattern}, &out)
	return out, err
}

// RemoveIgnorePattern deletes a pattern. A missing pattern yields 404.
func (c *Client) RemoveIgnorePattern(ctx context.Context, pattern string) (IgnorePatternsResponse, error) {
	var out IgnorePatternsResponse
	err := c.do(ctx, http.MethodDelete, "/api/ignore/patterns", nil, IgnorePatternRequest{Pattern: pattern}, &out)
	return out, err
}

// IgnoredFiles lists the exact-path denylist.
func (c *Client) IgnoredFiles(ctx context.Context) (IgnoredFilesResponse, error) {
	var out IgnoredFilesResponse
	err := c.do(ctx, http.MethodGet, "/api/ignore/files", nil, nil, &out)
	return out, err
}

// AddIgnoredFile adds an exact path to the denylist.
func (c *Client) AddIgnoredFile(ctx context.Context, path, reason string) (IgnoredFilesResponse, error) {
	var out IgnoredFilesResponse
	err := c.do(ctx, http.MethodPost, "/api/ignore/files", nil, IgnoreFileRequest{Path: path, Reason: reason}, &out)
	return out, err
}

// RemoveIgnoredFile removes an exact path. A missing path yields 404.
func (c *Client) RemoveIgnoredFile(ctx context.Context, path string) (IgnoredFilesResponse, error) {
	var out IgnoredFilesResponse
	err := c.do(ctx, http.MethodDelete, "/api/ignore/files", nil, IgnoreFileRequest{Path: path}, &out)
	return out, err
}

// TestIgnore reports whether path would be ignored.
func (c *Client) TestIgnore(ctx context.Context, path string) (IgnoreTestResponse, error) {
	var out IgnoreTestResponse
	err := c.do(ctx, http.MethodPost, "/api/ignore/test", nil, IgnoreTestRequest{Path: path}, &out)
	return out, err
}

// ValidateKey checks a TMDB key through the daemon.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) (ValidateKeyResponse, error) {
	var out ValidateKeyResponse
	err := c.do(ctx, http.MethodPost, "/api/tmdb/validate", nil, ValidateKeyRequest{APIKey: apiKey}, &out)
	return out, err
}

// DaemonLog reads the daemon log. A negative offset returns the last lines;
// a positive wait long-polls for new lines after offset.
func (c *Client) DaemonLog(ctx context.Context, offset int64, lines int, wait time.Duration) (DaemonLogResponse, error) {
	query := url.Values{}
	query.Set("offset", strconv.FormatInt(offset, 10))
	query.Set("lines", strconv.Itoa(lines))
	if wait > 0 {
		query.Set("wait", wait.String())
	}
	var out DaemonLogResponse
	err := c.do(ctx, http.MethodGet, "/api/daemon-log", query, nil, &out)
	return out, err
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (NotificationTestResponse, error) {
	var out NotificationTestResponse
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &Error{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means no daemon is listening.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
