package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"filearr/internal/config"
)

const userAgent = "filearr/1.0"

// CleanupReport summarises a finished cleanup job.
type CleanupReport struct {
	Origin    string
	Scanned   int
	Processed int
	Rejected  int
	Failed    int
	Duration  time.Duration
	Cancelled bool
}

// Service defines the notification surface used by the pipeline and the
// cleanup manager.
type Service interface {
	Enabled() bool
	NotifyFileRouted(ctx context.Context, filename, title, destination string) error
	NotifyFileRejected(ctx context.Context, filename, reason string) error
	NotifyFileFailed(ctx context.Context, filename, reason string) error
	NotifyCleanupCompleted(ctx context.Context, report CleanupReport) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyFileRouted(ctx context.Context, filename, title, destination string) error {
	if !n.events.OnProcessed {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = filename
	}
	message := fmt.Sprintf("🎬 Added: %s", title)
	if destination = strings.TrimSpace(destination); destination != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, destination)
	}
	return n.send(ctx, payload{
		title:   "filearr - Movie Added",
		message: message,
		tags:    []string{"filearr", "movie", "added"},
	})
}

func (n *ntfyService) NotifyFileRejected(ctx context.Context, filename, reason string) error {
	if !n.events.OnRejected {
		return nil
	}
	return n.send(ctx, payload{
		title:   "filearr - Rejected",
		message: fmt.Sprintf("🚫 Rejected: %s\n%s", strings.TrimSpace(filename), strings.TrimSpace(reason)),
		tags:    []string{"filearr", "rejected"},
	})
}

func (n *ntfyService) NotifyFileFailed(ctx context.Context, filename, reason string) error {
	if !n.events.OnFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Failed: ")
	builder.WriteString(strings.TrimSpace(filename))
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString("\n")
		builder.WriteString(reason)
	}
	return n.send(ctx, payload{
		title:    "filearr - Error",
		message:  builder.String(),
		tags:     []string{"filearr", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, report CleanupReport) error {
	if !n.events.OnCleanup {
		return nil
	}
	duration := report.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "filearr - Cleanup Complete"
	if report.Cancelled {
		title = "filearr - Cleanup Stopped"
	} else if report.Failed > 0 {
		title = "filearr - Cleanup Complete (with errors)"
	}
	message := fmt.Sprintf("%s: %d scanned, %d moved, %d rejected, %d failed in %s",
		report.Origin, report.Scanned, report.Processed, report.Rejected, report.Failed, duration)
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"filearr", "cleanup", "completed"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "filearr - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"filearr", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Enabled() bool                                                  { return false }
func (noopService) NotifyFileRouted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyFileRejected(context.Context, string, string) error       { return nil }
func (noopService) NotifyFileFailed(context.Context, string, string) error         { return nil }
func (noopService) NotifyCleanupCompleted(context.Context, CleanupReport) error    { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
