// Package cleanup runs bulk classification over an arbitrary directory tree.
//
// At most one job runs per process. Start claims the slot with a
// compare-and-swap, RequestStop cancels the job context, and the walk checks
// that context at every directory and file boundary so a stop takes effect
// after the file currently being classified.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"filearr/internal/decision"
	"filearr/internal/logging"
	"filearr/internal/metrics"
	"filearr/internal/notifications"
	"filearr/internal/pipeline"
	"filearr/internal/store"
)

var (
	// ErrJobRunning is returned by Start while another job is active.
	ErrJobRunning = errors.New("cleanup job already running")
	// ErrOriginUnavailable reports a missing or non-directory origin.
	ErrOriginUnavailable = errors.New("cleanup origin unavailable")
)

// State is the job lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopRequested
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	default:
		return "idle"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name. Unknown names decode as StateIdle.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "running":
		*s = StateRunning
	case "stop_requested":
		*s = StateStopRequested
	default:
		*s = StateIdle
	}
	return nil
}

// Request describes one cleanup job.
type Request struct {
	Origin    string             `json:"origin"`
	Overrides decision.Overrides `json:"overrides"`
	DryRun    bool               `json:"dry_run"`
}

// Summary describes a job, finished or in progress.
type Summary struct {
	JobID      string               `json:"job_id"`
	Request    Request              `json:"request"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
	Scanned    int                  `json:"scanned"`
	Counts     map[store.Status]int `json:"counts"`
	Cancelled  bool                 `json:"cancelled"`
	Error      string               `json:"error,omitempty"`
}

// Status is a snapshot of the manager.
type Status struct {
	State       State    `json:"state"`
	CurrentFile string   `json:"current_file,omitempty"`
	Current     *Summary `json:"current,omitempty"`
	Last        *Summary `json:"last,omitempty"`
}

// Processor classifies one file.
type Processor interface {
	Process(ctx context.Context, path string, opts pipeline.Options) pipeline.Outcome
}

// Notifier announces finished jobs.
type Notifier interface {
	NotifyCleanupCompleted(ctx context.Context, report notifications.CleanupReport) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithNotifier announces every finished job that was not a dry run.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// Manager owns the single cleanup slot.
type Manager struct {
	proc     Processor
	inflight *pipeline.InFlight
	metrics  *metrics.Metrics
	notifier Notifier
	logger   *slog.Logger

	state atomic.Int32

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	current *Summary
	file    string
	last    *Summary
}

// NewManager constructs a Manager. inflight may be shared with the watcher.
func NewManager(proc Processor, inflight *pipeline.InFlight, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Manager {
	if inflight == nil {
		inflight = pipeline.NewInFlight()
	}
	mgr := &Manager{
		proc:     proc,
		inflight: inflight,
		metrics:  m,
		logger:   logging.NewComponentLogger(logger, "cleanup"),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Start launches a job and returns its id. The job outlives ctx's
// cancellation but keeps its values.
func (m *Manager) Start(ctx context.Context, req Request) (string, error) {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return "", ErrJobRunning
	}

	origin := strings.TrimSpace(req.Origin)
	info, err := os.Stat(origin)
	if err != nil || !info.IsDir() {
		m.state.Store(int32(StateIdle))
		if err == nil {
			err = fmt.Errorf("%s is not a directory", origin)
		}
		return "", fmt.Errorf("%w: %v", ErrOriginUnavailable, err)
	}
	req.Origin = origin

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	summary := &Summary{
		JobID:     uuid.NewString(),
		Request:   req,
		StartedAt: time.Now(),
		Counts:    make(map[store.Status]int),
	}
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.current = summary
	m.file = ""
	m.mu.Unlock()
	if State(m.state.Load()) == StateStopRequested {
		cancel()
	}

	m.metrics.SetCleanupRunning(true)
	m.logger.Info("cleanup started",
		logging.String(logging.FieldJobID, summary.JobID),
		logging.String(logging.FieldPath, origin),
		logging.Bool("dry_run", req.DryRun),
	)
	go m.run(jobCtx, summary, done)
	return summary.JobID, nil
}

// RequestStop asks the running job to stop and reports whether one was running.
func (m *Manager) RequestStop() bool {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		return false
	}
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.logger.Info("cleanup stop requested")
	return true
}

// Wait blocks until the current job, if any, has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the manager.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       State(m.state.Load()),
		CurrentFile: m.file,
		Current:     cloneSummary(m.current),
		Last:        cloneSummary(m.last),
	}
}

func (m *Manager) run(ctx context.Context, summary *Summary, done chan struct{}) {
	defer m.finish(summary, done)

	err := filepath.WalkDir(summary.Request.Origin, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.WarnWithContext(m.logger, "cleanup cannot read entry", "cleanup_walk_error",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry skipped"),
			)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !decision.Scannable(path) {
			return nil
		}
		m.classify(ctx, summary, path)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		m.mu.Lock()
		summary.Error = err.Error()
		m.mu.Unlock()
	}
}

func (m *Manager) classify(ctx context.Context, summary *Summary, path string) {
	if !m.inflight.Acquire(path) {
		return
	}
	defer m.inflight.Release(path)

	m.mu.Lock()
	m.file = path
	summary.Scanned++
	m.mu.Unlock()

	// Stop takes effect between files; the file in progress runs to completion.
	out := m.proc.Process(context.WithoutCancel(ctx), path, pipeline.Options{
		Source:    pipeline.SourceCleanup,
		Overrides: summary.Request.Overrides,
		DryRun:    summary.Request.DryRun,
	})

	m.mu.Lock()
	summary.Counts[out.Status]++
	m.file = ""
	m.mu.Unlock()
}

// finish returns the manager to idle. It recovers a panic in the walk so the
// slot is always released.
func (m *Manager) finish(summary *Summary, done chan struct{}) {
	if r := recover(); r != nil {
		logging.ErrorWithContext(m.logger, "cleanup panicked", "cleanup_panic",
			logging.String(logging.FieldJobID, summary.JobID),
			logging.Any("panic", r),
		)
		m.mu.Lock()
		summary.Error = fmt.Sprintf("internal error: %v", r)
		m.mu.Unlock()
	}

	m.mu.Lock()
	summary.FinishedAt = time.Now()
	summary.Cancelled = State(m.state.Load()) == StateStopRequested
	report := reportFor(summary)
	m.last = summary
	m.current = nil
	m.file = ""
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	if m.notifier != nil && !summary.Request.DryRun {
		if err := m.notifier.NotifyCleanupCompleted(context.Background(), report); err != nil {
			logging.WarnWithContext(m.logger, "cleanup notification failed", "notification_failed",
				logging.String(logging.FieldJobID, summary.JobID),
				logging.Error(err),
			)
		}
	}

	m.state.Store(int32(StateIdle))
	m.metrics.SetCleanupRunning(false)
	close(done)

	m.logger.Info("cleanup finished",
		logging.String(logging.FieldJobID, summary.JobID),
		logging.Int("scanned", summary.Scanned),
		logging.Bool("cancelled", summary.Cancelled),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
}

func reportFor(s *Summary) notifications.CleanupReport {
	return notifications.CleanupReport{
		Origin:    s.Request.Origin,
		Scanned:   s.Scanned,
		Processed: s.Counts[store.StatusProcessed],
		Rejected:  s.Counts[store.StatusRejected],
		Failed:    s.Counts[store.StatusFailed],
		Duration:  s.FinishedAt.Sub(s.StartedAt),
		Cancelled: s.Cancelled,
	}
}

func cloneSummary(s *Summary) *Summary {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Counts = maps.Clone(s.Counts)
	return &clone
}
