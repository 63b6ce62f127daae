package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"filearr/internal/config"
	"filearr/internal/logging"
	"filearr/internal/pipeline"
	"filearr/internal/store"
	"filearr/internal/testsupport"
)

// blockingProcessor holds every call until release is closed.
type blockingProcessor struct {
	mu      sync.Mutex
	paths   []string
	entered chan string
	release chan struct{}
}

func newBlockingProcessor() *blockingProcessor {
	return &blockingProcessor{entered: make(chan string, 16), release: make(chan struct{})}
}

func (p *blockingProcessor) Process(_ context.Context, path string, _ pipeline.Options) pipeline.Outcome {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	p.entered <- path
	<-p.release
	return pipeline.Outcome{Path: path, Status: store.StatusProcessed}
}

func newTestDaemon(t *testing.T, proc Processor, opts ...testsupport.ConfigOption) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	if proc == nil {
		proc = newBlockingProcessor()
	}
	d, err := New(cfg, st, logging.NewNop(), WithProcessor(proc))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, cfg
}

func TestDaemonStartStop(t *testing.T) {
	d, cfg := newTestDaemon(t, nil)
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if !status.Watch.Active {
		t.Fatalf("expected auto-started watcher, got %+v", status.Watch)
	}
	if d.APIAddress() == "" {
		t.Fatal("expected api server to be listening")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.Watch.Active {
		t.Fatal("expected watcher to be stopped with the daemon")
	}
	if d.APIAddress() != "" {
		t.Fatal("expected api server to be closed")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	first, cfg := newTestDaemon(t, nil)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	cfg2 := *cfg
	cfg2.Paths.APIBind = ""
	second, err := New(&cfg2, testsupport.MustOpenStore(t, &cfg2), logging.NewNop(), WithProcessor(newBlockingProcessor()))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestDaemonKeepsRunningWhenWatcherCannotStart(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should run without a watcher")
	}
	watch := d.WatchStatus()
	if watch.Active {
		t.Fatal("watcher should be inactive when the input directory is missing")
	}
	if watch.LastError == "" {
		t.Fatal("expected watcher error to be recorded")
	}
}

func TestDaemonRestartWatchPicksUpNewInput(t *testing.T) {
	proc := newBlockingProcessor()
	close(proc.release)
	d, cfg := newTestDaemon(t, proc)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	inbox := filepath.Join(testsupport.BaseDir(cfg), "inbox2")
	testsupport.WriteFile(t, filepath.Join(inbox, "Obscure.Film.2019.1080p.mkv"), 8)
	if err := d.store.SetSetting(context.Background(), config.KeyInputDir, inbox); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.RestartWatch(ctx); err != nil {
		t.Fatalf("RestartWatch: %v", err)
	}
	if got := d.WatchStatus().InputDir; got != inbox {
		t.Fatalf("watcher input = %q, want %q", got, inbox)
	}
	select {
	case path := <-proc.entered:
		if filepath.Base(path) != "Obscure.Film.2019.1080p.mkv" {
			t.Fatalf("unexpected path %q", path)
		}
	case <-ctx.Done():
		t.Fatal("initial rescan did not classify the existing file")
	}
}

func TestDaemonWatchOutlivesRequestContext(t *testing.T) {
	d, cfg := newTestDaemon(t, nil)
	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	reqCtx, cancel := context.WithCancel(context.Background())
	if err := d.StartWatch(reqCtx); err != nil {
		t.Fatalf("StartWatch: %v", err)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	if !d.WatchStatus().Active {
		t.Fatal("watcher stopped with the request context")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := d.StopWatch(stopCtx); err != nil {
		t.Fatalf("StopWatch: %v", err)
	}
}
