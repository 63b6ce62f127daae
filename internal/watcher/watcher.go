package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"filearr/internal/config"
	"filearr/internal/decision"
	"filearr/internal/logging"
	"filearr/internal/metrics"
	"filearr/internal/pipeline"
)

var (
	// ErrInputUnavailable reports a missing or unreadable input directory.
	ErrInputUnavailable = errors.New("input directory unavailable")
	// ErrAlreadyRunning is returned by Start while the watcher is active.
	ErrAlreadyRunning = errors.New("watcher already running")
)

// Processor classifies one file.
type Processor interface {
	Process(ctx context.Context, path string, opts pipeline.Options) pipeline.Outcome
}

// SeenLedger answers the durable dedupe question for rescans.
type SeenLedger interface {
	HasOutcome(ctx context.Context, path string) (bool, error)
}

// Options tune timing and shared state.
type Options struct {
	Settle         time.Duration
	RescanInterval time.Duration
	InitialRescan  bool
	InFlight       *pipeline.InFlight
	Metrics        *metrics.Metrics
}

// Status is a snapshot of watcher activity.
type Status struct {
	Active     bool      `json:"active"`
	InputDir   string    `json:"input_dir,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	LastEvent  time.Time `json:"last_event,omitzero"`
	LastRescan time.Time `json:"last_rescan,omitzero"`
	Handled    int64     `json:"handled"`
	LastError  string    `json:"last_error,omitempty"`
}

// Watcher owns the live and rescan producers.
type Watcher struct {
	settings config.Provider
	proc     Processor
	ledger   SeenLedger
	opts     Options
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	fsw    *fsnotify.Watcher
	done   chan struct{}
	status Status
}

// New constructs a Watcher. The input directory is read from settings on
// every Start so a changed setting applies after a restart.
func New(settings config.Provider, proc Processor, ledger SeenLedger, opts Options, logger *slog.Logger) *Watcher {
	if opts.InFlight == nil {
		opts.InFlight = pipeline.NewInFlight()
	}
	return &Watcher{
		settings: settings,
		proc:     proc,
		ledger:   ledger,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start validates the input directory and launches both producers. The
// producers stop when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return ErrAlreadyRunning
	}

	inputDir := strings.TrimSpace(w.settings.Get(config.KeyInputDir))
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", inputDir)
		}
		w.status.LastError = err.Error()
		return fmt.Errorf("%w: %s: %v", ErrInputUnavailable, inputDir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.status = Status{Active: true, InputDir: inputDir, StartedAt: time.Now()}
	w.addRecursive(fsw, inputDir)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.eventLoop(runCtx, fsw)
	}()
	go func() {
		defer wg.Done()
		w.rescanLoop(runCtx, inputDir)
	}()
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(w.done)

	w.opts.Metrics.SetWatchActive(true)
	w.logger.Info("watcher started",
		logging.String(logging.FieldPath, inputDir),
		logging.Duration("settle", w.opts.Settle),
		logging.Duration("rescan_interval", w.opts.RescanInterval),
	)
	return nil
}

// Stop cancels both producers and waits for them to exit or ctx to expire.
// A file being classified finishes first. Stop on an idle watcher is a no-op.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return nil
	}
	cancel, fsw, done := w.cancel, w.fsw, w.done
	w.cancel, w.fsw = nil, nil
	w.status.Active = false
	w.mu.Unlock()

	cancel()
	_ = fsw.Close()
	w.opts.Metrics.SetWatchActive(false)

	select {
	case <-done:
		w.logger.Info("watcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for watcher shutdown: %w", ctx.Err())
	}
}

// Running reports whether the producers are active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Status returns a snapshot of watcher activity.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "fsnotify error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches if the tree is large"),
				logging.String(logging.FieldImpact, "some events may be missed until the next rescan"),
			)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		w.addRecursive(fsw, event.Name)
		w.walk(ctx, event.Name, pipeline.SourceWatch)
		return
	}
	if !decision.Scannable(event.Name) {
		return
	}
	w.opts.Metrics.WatchEvent()
	w.mu.Lock()
	w.status.LastEvent = time.Now()
	w.mu.Unlock()
	w.logger.Info("new file detected", logging.String(logging.FieldPath, event.Name))

	if !sleepCtx(ctx, w.opts.Settle) {
		return
	}
	w.handle(ctx, event.Name, pipeline.SourceWatch)
}

func (w *Watcher) rescanLoop(ctx context.Context, inputDir string) {
	if w.opts.InitialRescan {
		w.rescan(ctx, inputDir)
	}
	if w.opts.RescanInterval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(w.opts.RescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.rescan(ctx, inputDir)
		}
	}
}

func (w *Watcher) rescan(ctx context.Context, inputDir string) {
	started := time.Now()
	w.walk(ctx, inputDir, pipeline.SourceRescan)
	if ctx.Err() != nil {
		return
	}
	w.opts.Metrics.RescanCompleted()
	w.mu.Lock()
	w.status.LastRescan = time.Now()
	w.mu.Unlock()
	w.logger.Debug("rescan complete", logging.Duration("elapsed", time.Since(started)))
}

// walk classifies every scannable file under root, checking ctx at each entry.
func (w *Watcher) walk(ctx context.Context, root, source string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !decision.Scannable(path) {
			return nil
		}
		w.handle(ctx, path, source)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(w.logger, "scan aborted", "scan_failed",
			logging.String(logging.FieldPath, root),
			logging.Error(err),
			logging.String(logging.FieldImpact, "remaining files are picked up by the next rescan"),
		)
	}
}

func (w *Watcher) handle(ctx context.Context, path, source string) {
	if !w.opts.InFlight.Acquire(path) {
		w.logger.Debug("file already being classified", logging.String(logging.FieldPath, path))
		return
	}
	defer w.opts.InFlight.Release(path)

	if source == pipeline.SourceRescan && w.ledger != nil {
		seen, err := w.ledger.HasOutcome(ctx, path)
		if err != nil {
			logging.WarnWithContext(w.logger, "ledger lookup failed", "ledger_lookup_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file skipped for this rescan"),
			)
			return
		}
		if seen {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	// Stop takes effect between files; the file in progress runs to completion.
	w.proc.Process(context.WithoutCancel(ctx), path, pipeline.Options{Source: source})
	w.mu.Lock()
	w.status.Handled++
	w.mu.Unlock()
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if watchErr := fsw.Add(path); watchErr != nil {
				logging.WarnWithContext(w.logger, "cannot watch directory", "watch_add_failed",
					logging.String(logging.FieldPath, path),
					logging.Error(watchErr),
					logging.String(logging.FieldImpact, "files in this directory wait for the next rescan"),
				)
			}
		}
		return nil
	})
}

// sleepCtx waits d or until ctx is done and reports whether the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
