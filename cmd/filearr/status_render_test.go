package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"filearr/internal/api"
	"filearr/internal/cleanup"
	"filearr/internal/identification"
	"filearr/internal/pipeline"
	"filearr/internal/preflight"
	"filearr/internal/store"
	"filearr/internal/watcher"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Watcher", statusOK, "watching", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green wrapped line, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}

func TestRenderStatusSections(t *testing.T) {
	var buf bytes.Buffer
	w := &statusWriter{out: &buf}
	renderStatus(w, api.StatusResponse{
		Running: true,
		PID:     42,
		Watch:   watcher.Status{Active: true, InputDir: "/inbox", LastRescan: time.Now().Add(-time.Minute)},
		Cleanup: cleanup.Status{State: cleanup.StateIdle},
		Ledger:  map[store.Status]int{store.StatusProcessed: 1200, store.StatusRejected: 3},
		Checks: []preflight.Result{
			{Name: "Input directory", Passed: true, Detail: "/inbox"},
			{Name: "FFprobe", Passed: false, Detail: `binary "ffprobe" not found`},
		},
	})
	out := buf.String()
	for _, want := range []string{"== Daemon ==", "pid 42", "watching /inbox", "1,200", "== Readiness ==", "[ERROR]"} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI codes without color, got %q", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Outcome", "Files"}, [][]string{{"processed", "3"}, {"failed"}}, []columnAlignment{alignLeft, alignRight}, false)
	requireContains(t, out, "Outcome")
	requireContains(t, out, "processed")
	requireContains(t, out, "failed")
	if renderTable(nil, nil, nil, false) != "" {
		t.Fatal("expected empty table without headers")
	}
}

func TestLogRowFormatsMatchAndDestination(t *testing.T) {
	row := logRow(store.Entry{
		Filename:    "Arrival.2016.1080p.mkv",
		Status:      store.StatusProcessed,
		Destination: "/movies/Arrival (2016)/Arrival (2016).mkv",
		Title:       "Arrival",
		Year:        2016,
		CreatedAt:   time.Now(),
	})
	if row[3] != "Arrival (2016)" {
		t.Fatalf("match = %q", row[3])
	}
	if row[4] != "/movies/Arrival (2016)" {
		t.Fatalf("detail = %q", row[4])
	}
}

func TestRenderOutcomeNamesLanguage(t *testing.T) {
	var buf bytes.Buffer
	out := pipeline.Outcome{
		Path:        "/inbox/Premam.2015.mkv",
		Status:      pipeline.StatusPlanned,
		Destination: "/media/malayalam/Premam (2015)/Premam (2015).mkv",
		Match:       &identification.Match{Title: "Premam", Year: 2015, TMDBID: 334541},
		Language:    "mal",
		Score:       40,
	}
	renderOutcome(newStatusWriter(&buf), out, 2048)
	got := buf.String()
	for _, want := range []string{"Premam (2015)", "Malayalam (mal)", "2.0 KiB", "planned"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}
