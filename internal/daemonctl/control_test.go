package daemonctl

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"filearr/internal/api"
	"filearr/internal/testsupport"
)

type fakeStatus struct{ err error }

func (f fakeStatus) Status(context.Context) (api.StatusResponse, error) {
	return api.StatusResponse{Running: f.err == nil}, f.err
}

func startChild(t *testing.T, script string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start child process: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-exited
	})
	return cmd
}

func writePID(t *testing.T, path string, pid int) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
}

func TestStartSkipsLaunchWhenAPIAnswers(t *testing.T) {
	state, err := Start(context.Background(), fakeStatus{}, "", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state != StartStateAlreadyRunning {
		t.Fatalf("state = %q", state)
	}
}

func TestStartRequiresExecutable(t *testing.T) {
	_, err := Start(context.Background(), fakeStatus{err: api.ErrAPIUnavailable}, " ", LaunchOptions{}, time.Second)
	if err == nil {
		t.Fatal("expected launch error for empty executable")
	}
}

func TestStopWithoutPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := Stop(context.Background(), cfg, time.Second, false); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestStopTerminatesProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	child := startChild(t, "sleep 30")
	writePID(t, cfg.PIDPath(), child.Process.Pid)

	result, err := Stop(context.Background(), cfg, 5*time.Second, false)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.PID != child.Process.Pid || result.ForcedKill {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestStopForceKillsStubbornProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	child := startChild(t, `trap "" TERM; while :; do sleep 0.1; done`)
	writePID(t, cfg.PIDPath(), child.Process.Pid)
	time.Sleep(100 * time.Millisecond)

	if _, err := Stop(context.Background(), cfg, 300*time.Millisecond, false); err == nil {
		t.Fatal("expected stop without force to time out")
	}
	result, err := Stop(context.Background(), cfg, 300*time.Millisecond, true)
	if err != nil {
		t.Fatalf("Stop --force: %v", err)
	}
	if !result.ForcedKill {
		t.Fatalf("expected forced kill, got %+v", result)
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}

func TestStopClearsStalePIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	child := exec.Command("true")
	if err := child.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	writePID(t, cfg.PIDPath(), child.Process.Pid)

	if _, err := Stop(context.Background(), cfg, time.Second, false); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("expected stale pid file removed, got %v", err)
	}
}
