package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filearr/internal/store"
	"filearr/internal/testsupport"
)

func TestStatusCommandAgainstDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "== Readiness ==")
}

func TestStatusCommandOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "filearr.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"status"}, "127.0.0.1:1", configPath)
	if err != nil {
		t.Fatalf("status offline: %v", err)
	}
	requireContains(t, out, "not reachable")
	requireContains(t, out, "Input directory")
}

func TestWatchCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "watch", "start"); err == nil {
		t.Fatal("expected watch start to fail without an input directory")
	}
	if err := os.MkdirAll(env.cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	out, _, err := env.run(t, "watch", "start")
	if err != nil {
		t.Fatalf("watch start: %v", err)
	}
	requireContains(t, out, "watching "+env.cfg.Paths.InputDir)

	out, _, err = env.run(t, "watch", "stop")
	if err != nil {
		t.Fatalf("watch stop: %v", err)
	}
	requireContains(t, out, "inactive")
}

func TestCleanupStartWaitPrintsCounts(t *testing.T) {
	env := setupCLITestEnv(t)
	origin := filepath.Join(testsupport.BaseDir(env.cfg), "old-downloads")
	testsupport.WriteFile(t, filepath.Join(origin, "Arrival.2016.sample.mkv"), 64)

	out, _, err := env.run(t, "cleanup", "start", origin, "--dry-run", "--wait")
	if err != nil {
		t.Fatalf("cleanup start: %v", err)
	}
	requireContains(t, out, "finished")
	requireContains(t, out, "skipped")

	if _, err := os.Stat(filepath.Join(origin, "Arrival.2016.sample.mkv")); err != nil {
		t.Fatalf("dry run moved the file: %v", err)
	}
}

func TestCleanupStartRejectsMissingOrigin(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "cleanup", "start", filepath.Join(testsupport.BaseDir(env.cfg), "missing")); err == nil {
		t.Fatal("expected missing origin to fail")
	}
}

func TestLogsCommandShowsLedger(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	if _, err := env.store.Record(ctx, store.Entry{
		Path:        "/inbox/Arrival.2016.1080p.mkv",
		Filename:    "Arrival.2016.1080p.mkv",
		Status:      store.StatusProcessed,
		Destination: "/movies/Arrival (2016)/Arrival (2016).mkv",
		Title:       "Arrival",
		Year:        2016,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := env.store.Record(ctx, store.Entry{
		Path:     "/inbox/Clip.mkv",
		Filename: "Clip.mkv",
		Status:   store.StatusSkipped,
		Reason:   "No year in filename",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	out, _, err := env.run(t, "logs", "--status", "processed")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "Arrival (2016)")
	if strings.Contains(out, "Clip.mkv") {
		t.Fatalf("status filter leaked skipped entry: %q", out)
	}

	if _, _, err := env.run(t, "logs", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestIgnoreCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "ignore", "add", "*.part"); err != nil {
		t.Fatalf("ignore add: %v", err)
	}
	victim := filepath.Join(env.cfg.Paths.InputDir, "Heat.1995.mkv")
	if _, _, err := env.run(t, "ignore", "add", "--file", victim, "--reason", "bad rip"); err != nil {
		t.Fatalf("ignore add --file: %v", err)
	}

	out, _, err := env.run(t, "ignore", "list")
	if err != nil {
		t.Fatalf("ignore list: %v", err)
	}
	requireContains(t, out, "*.part")
	requireContains(t, out, "bad rip")

	out, _, err = env.run(t, "ignore", "test", filepath.Join(env.cfg.Paths.InputDir, "movie.mkv.part"))
	if err != nil {
		t.Fatalf("ignore test: %v", err)
	}
	requireContains(t, out, "Matched pattern: *.part")

	if _, _, err := env.run(t, "ignore", "remove", "*.part"); err != nil {
		t.Fatalf("ignore remove: %v", err)
	}
	_, _, err = env.run(t, "ignore", "remove", "*.part")
	if err == nil || !strings.Contains(err.Error(), "not in the ignore list") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "set", "min_size_mib", "700")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	requireContains(t, out, "min_size_mib = 700")

	out, _, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Source: daemon")
	requireContains(t, out, "700")

	if _, _, err := env.run(t, "config", "set", "nope", "1"); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestClassifyCommandDryRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "filearr.toml")
	writeTestConfig(t, configPath, cfg)

	cam := filepath.Join(cfg.Paths.InputDir, "Some.Film.2021.CAM.mkv")
	testsupport.WriteFile(t, cam, 2048)

	out, _, err := runCLI(t, []string{"classify", cam}, "", configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "planned")
	requireContains(t, out, cfg.Paths.RejectedDir)
	requireContains(t, out, "2.0 KiB")
	if _, err := os.Stat(cam); err != nil {
		t.Fatalf("dry run moved the file: %v", err)
	}
}
