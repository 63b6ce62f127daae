// Package daemonctl starts and stops a detached filearr daemon from the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"filearr/internal/api"
	"filearr/internal/config"
	"filearr/internal/daemonrun"
)

// ErrNotRunning reports that no live daemon process was found.
var ErrNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	NoWatch    bool
}

// StartState describes what Start had to do.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StopResult captures the stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// StatusClient is the part of the API client used to check on the daemon.
type StatusClient interface {
	Status(ctx context.Context) (api.StatusResponse, error)
}

// Launch starts `filearr run` as a detached process in its own session.
// Output goes to the daemon log file, so stdio is discarded.
func Launch(executable string, opts LaunchOptions) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("resolve executable: executable path is empty")
	}
	args := []string{"run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.NoWatch {
		args = append(args, "--no-watch")
	}

	proc := exec.Command(executable, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// Start launches the daemon unless its API already answers, then waits up
// to timeout for the API to come up.
func Start(ctx context.Context, client StatusClient, executable string, opts LaunchOptions, timeout time.Duration) (StartState, error) {
	if _, err := client.Status(ctx); err == nil {
		return StartStateAlreadyRunning, nil
	}
	if err := Launch(executable, opts); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	var lastErr error
	for {
		_, err := client.Status(ctx)
		if err == nil {
			return StartStateStarted, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("daemon did not answer within %s: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}

// Stop sends SIGTERM to the daemon recorded in the pid file and waits up to
// grace for it to exit. With force, a daemon still alive after grace is
// killed and its pid and lock files removed.
func Stop(ctx context.Context, cfg *config.Config, grace time.Duration, force bool) (StopResult, error) {
	pid := daemonrun.ReadPID(cfg)
	if pid <= 0 {
		return StopResult{}, ErrNotRunning
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	result := StopResult{PID: pid}
	if !alive(pid) {
		_ = os.Remove(cfg.PIDPath())
		return result, ErrNotRunning
	}

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return result, fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	if waitExit(ctx, pid, grace) {
		return result, nil
	}
	if !force {
		return result, fmt.Errorf("daemon %d did not exit within %s; retry with --force", pid, grace)
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon %d: %w", pid, err)
	}
	result.ForcedKill = true
	if err := os.Remove(cfg.PIDPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("remove pid file: %w", err)
	}
	_ = os.Remove(cfg.LockPath())
	return result, nil
}

func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func waitExit(ctx context.Context, pid int, grace time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if !alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !alive(pid)
		case <-ticker.C:
		}
	}
}
