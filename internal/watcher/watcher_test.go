package watcher_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"filearr/internal/config"
	"filearr/internal/pipeline"
	"filearr/internal/store"
	"filearr/internal/testsupport"
	"filearr/internal/watcher"
)

type recordingProcessor struct {
	mu    sync.Mutex
	calls map[string][]string
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{calls: make(map[string][]string)}
}

func (r *recordingProcessor) Process(_ context.Context, path string, opts pipeline.Options) pipeline.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[path] = append(r.calls[path], opts.Source)
	return pipeline.Outcome{Path: path, Status: store.StatusProcessed}
}

func (r *recordingProcessor) sources(path string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls[path]...)
}

type fakeLedger map[string]bool

func (f fakeLedger) HasOutcome(_ context.Context, path string) (bool, error) {
	return f[path], nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func stop(t *testing.T, w *watcher.Watcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStartRequiresInputDirectory(t *testing.T) {
	settings := config.Static{config.KeyInputDir: filepath.Join(t.TempDir(), "missing")}
	w := watcher.New(settings, newRecordingProcessor(), nil, watcher.Options{}, nil)

	err := w.Start(context.Background())
	if !errors.Is(err, watcher.ErrInputUnavailable) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
	if w.Running() || w.Status().LastError == "" {
		t.Fatalf("unexpected status %+v", w.Status())
	}
}

func TestInitialRescanSkipsSeenPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := cfg.Paths.InputDir
	fresh := filepath.Join(input, "nested", "Fresh.Movie.2020.mkv")
	seen := filepath.Join(input, "Seen.Movie.2019.mkv")
	subtitle := filepath.Join(input, "Fresh.Movie.2020.srt")
	for _, path := range []string{fresh, seen, subtitle} {
		testsupport.WriteFile(t, path, 16)
	}

	proc := newRecordingProcessor()
	w := watcher.New(config.Static{config.KeyInputDir: input}, proc, fakeLedger{seen: true}, watcher.Options{InitialRescan: true}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop(t, w)

	waitFor(t, func() bool { return !w.Status().LastRescan.IsZero() })
	if got := proc.sources(fresh); len(got) != 1 || got[0] != pipeline.SourceRescan {
		t.Fatalf("expected one rescan of fresh file, got %v", got)
	}
	if got := proc.sources(seen); len(got) != 0 {
		t.Fatalf("seen file must be skipped, got %v", got)
	}
	if got := proc.sources(subtitle); len(got) != 0 {
		t.Fatalf("non-video file must be skipped, got %v", got)
	}
}

func TestLiveEventTriggersClassification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	proc := newRecordingProcessor()
	w := watcher.New(config.Static{config.KeyInputDir: cfg.Paths.InputDir}, proc, fakeLedger{}, watcher.Options{Settle: 10 * time.Millisecond}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop(t, w)

	path := filepath.Join(cfg.Paths.InputDir, "Arrived.Movie.2021.mkv")
	testsupport.WriteFile(t, path, 16)

	waitFor(t, func() bool { return len(proc.sources(path)) > 0 })
	if got := proc.sources(path); got[0] != pipeline.SourceWatch {
		t.Fatalf("expected watch source, got %v", got)
	}
}

func TestInFlightPathsAreSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(cfg.Paths.InputDir, "Busy.Movie.2022.mkv")
	testsupport.WriteFile(t, path, 16)
	inflight := pipeline.NewInFlight()
	inflight.Acquire(path)

	proc := newRecordingProcessor()
	w := watcher.New(config.Static{config.KeyInputDir: cfg.Paths.InputDir}, proc, fakeLedger{},
		watcher.Options{InitialRescan: true, InFlight: inflight}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop(t, w)

	waitFor(t, func() bool { return !w.Status().LastRescan.IsZero() })
	if got := proc.sources(path); len(got) != 0 {
		t.Fatalf("in-flight path must be skipped, got %v", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	w := watcher.New(config.Static{config.KeyInputDir: cfg.Paths.InputDir}, newRecordingProcessor(), nil, watcher.Options{}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, watcher.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if !w.Running() || !w.Status().Active {
		t.Fatal("expected running watcher")
	}
	stop(t, w)
	stop(t, w)
	if w.Running() || w.Status().Active {
		t.Fatal("expected stopped watcher")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	stop(t, w)
}

// heldProcessor blocks until release is closed and reports if its context ended first.
type heldProcessor struct {
	entered     chan struct{}
	release     chan struct{}
	interrupted chan struct{}
	once        sync.Once
}

func (h *heldProcessor) Process(ctx context.Context, path string, _ pipeline.Options) pipeline.Outcome {
	h.once.Do(func() { close(h.entered) })
	select {
	case <-h.release:
		return pipeline.Outcome{Path: path, Status: store.StatusProcessed}
	case <-ctx.Done():
		close(h.interrupted)
		return pipeline.Outcome{Path: path, Status: store.StatusSkipped, Reason: pipeline.ReasonLowConfidence}
	}
}

func TestStopLetsInProgressFileFinish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.InputDir, "Held.Movie.2020.mkv"), 16)
	proc := &heldProcessor{entered: make(chan struct{}), release: make(chan struct{}), interrupted: make(chan struct{})}
	w := watcher.New(config.Static{config.KeyInputDir: cfg.Paths.InputDir}, proc, fakeLedger{}, watcher.Options{InitialRescan: true}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-proc.entered

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stopped <- w.Stop(ctx)
	}()
	waitFor(t, func() bool { return !w.Running() })
	select {
	case <-proc.interrupted:
		t.Fatal("stop interrupted the file being classified")
	case <-time.After(100 * time.Millisecond):
	}
	close(proc.release)
	if err := <-stopped; err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
