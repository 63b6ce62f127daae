package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"filearr/internal/cleanup"
	"filearr/internal/config"
	"filearr/internal/decision"
	"filearr/internal/logging"
	"filearr/internal/metrics"
	"filearr/internal/notifications"
	"filearr/internal/pipeline"
	"filearr/internal/store"
	"filearr/internal/watcher"
)

// ErrNotRunning is returned by host controls that need a started daemon.
var ErrNotRunning = errors.New("daemon not running")

// Processor classifies one file. The production implementation is
// *pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, path string, opts pipeline.Options) pipeline.Outcome
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithNotifier replaces the ntfy service built from the config.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		d.notifier = n
	}
}

// WithProcessor replaces the production pipeline for the watcher and the
// cleanup job.
func WithProcessor(p Processor) Option {
	return func(d *Daemon) {
		d.proc = p
	}
}

// Daemon coordinates the background producers and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	runtime  *pipeline.Runtime
	proc     Processor
	metrics  *metrics.Metrics
	notifier notifications.Service
	inflight *pipeline.InFlight
	watcher  *watcher.Watcher
	cleanup  *cleanup.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockPath     string
	Watch        watcher.Status
	Cleanup      cleanup.Status
	Ledger       map[store.Status]int
	InFlight     int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		metrics:  metrics.New(),
		notifier: notifications.NewService(cfg),
		inflight: pipeline.NewInFlight(),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(d)
	}
	m := d.metrics
	rt := pipeline.Build(cfg, st, m, d.notifier, logger)
	d.runtime = rt
	if d.proc == nil {
		d.proc = rt.Pipeline
	}

	d.watcher = watcher.New(rt.Settings, d.proc, st, watcher.Options{
		Settle:         time.Duration(cfg.Watch.SettleSeconds) * time.Second,
		RescanInterval: time.Duration(cfg.Watch.RescanMinutes) * time.Minute,
		InitialRescan:  cfg.Watch.InitialRescan,
		InFlight:       d.inflight,
		Metrics:        m,
	}, logger)
	d.cleanup = cleanup.NewManager(d.proc, d.inflight, m, logger, cleanup.WithNotifier(d.notifier))
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and starts the
// watcher when auto start is enabled. A watcher that cannot start is logged
// and left inactive; the daemon keeps running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another filearr daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.mu.Lock()
	d.ctx, d.cancel = runCtx, cancel
	d.mu.Unlock()
	d.running.Store(true)
	d.logger.Info("filearr daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
	)

	if d.cfg.Watch.AutoStart {
		if err := d.StartWatch(runCtx); err != nil {
			logging.WarnWithContext(d.logger, "watcher did not start", "watch_start_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check input_dir and restart the watcher"),
				logging.String(logging.FieldImpact, "new files are not classified until the watcher runs"),
			)
		}
	}
	return nil
}

// Stop stops the producers, lets an in-progress file finish, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.ctx, d.cancel = nil, nil
	d.mu.Unlock()

	timeout := time.Duration(d.cfg.Watch.StopTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	d.api.stop()
	if err := d.watcher.Stop(stopCtx); err != nil {
		d.logger.Warn("watcher did not stop in time", logging.Error(err))
	}
	if d.cleanup.RequestStop() {
		if err := d.cleanup.Wait(stopCtx); err != nil {
			d.logger.Warn("cleanup job did not stop in time", logging.Error(err))
		}
	}
	if cancel != nil {
		cancel()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("filearr daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddress returns the address the API server is listening on, or "" when
// the server is disabled or not started.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// StartWatch starts the inbox watcher. The watcher is bound to the daemon
// lifetime, not to ctx.
func (d *Daemon) StartWatch(ctx context.Context) error {
	base, err := d.lifetime(ctx)
	if err != nil {
		return err
	}
	return d.watcher.Start(base)
}

// StopWatch stops the inbox watcher and waits for the file being classified.
func (d *Daemon) StopWatch(ctx context.Context) error {
	return d.watcher.Stop(ctx)
}

// RestartWatch stops and starts the watcher so a changed input directory
// applies.
func (d *Daemon) RestartWatch(ctx context.Context) error {
	if err := d.StopWatch(ctx); err != nil {
		return err
	}
	return d.StartWatch(ctx)
}

// WatchStatus returns a snapshot of watcher activity.
func (d *Daemon) WatchStatus() watcher.Status {
	return d.watcher.Status()
}

// StartCleanup launches a bulk cleanup job over origin and returns its id.
func (d *Daemon) StartCleanup(ctx context.Context, origin string, overrides decision.Overrides, dryRun bool) (string, error) {
	return d.cleanup.Start(ctx, cleanup.Request{
		Origin:    origin,
		Overrides: overrides,
		DryRun:    dryRun,
	})
}

// RequestStopCleanup asks the running job to stop after its current file.
// It reports whether a job was running.
func (d *Daemon) RequestStopCleanup() bool {
	return d.cleanup.RequestStop()
}

// CleanupStatus returns a snapshot of the cleanup manager.
func (d *Daemon) CleanupStatus() cleanup.Status {
	return d.cleanup.Status()
}

// Settings returns the layered settings provider used by the pipeline.
func (d *Daemon) Settings() config.Provider {
	return d.runtime.Settings
}

// Status returns the current daemon status. Ledger counts are omitted when
// the store cannot be read.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("ledger stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockPath:     d.lockPath,
		Watch:        d.watcher.Status(),
		Cleanup:      d.cleanup.Status(),
		Ledger:       stats,
		InFlight:     d.inflight.Len(),
	}
}

// lifetime returns the daemon context, or a context detached from ctx's
// cancellation when the daemon has not been started.
func (d *Daemon) lifetime(ctx context.Context) (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx, nil
	}
	if d.running.Load() {
		return nil, ErrNotRunning
	}
	return context.WithoutCancel(ctx), nil
}
