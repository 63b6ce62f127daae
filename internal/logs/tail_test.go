package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"filearr/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filearr.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestReadLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\npartial")

	page, err := logs.Read(context.Background(), path, logs.Options{Offset: -1, Lines: 2})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !slices.Equal(page.Lines, []string{"b", "c"}) {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.Offset != int64(len("a\nb\nc\n")) {
		t.Fatalf("offset = %d, want end of last complete line", page.Offset)
	}

	page, err = logs.Read(context.Background(), path, logs.Options{Offset: -1, Lines: 10})
	if err != nil || !slices.Equal(page.Lines, []string{"a", "b", "c"}) {
		t.Fatalf("short file: lines=%#v err=%v", page.Lines, err)
	}
}

func TestReadForwardResumesAndLimits(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\n")

	page, err := logs.Read(context.Background(), path, logs.Options{Offset: 0, Lines: 2})
	if err != nil || !slices.Equal(page.Lines, []string{"one", "two"}) {
		t.Fatalf("first page: lines=%#v err=%v", page.Lines, err)
	}
	page, err = logs.Read(context.Background(), path, logs.Options{Offset: page.Offset, Lines: 2})
	if err != nil || !slices.Equal(page.Lines, []string{"three"}) {
		t.Fatalf("second page: lines=%#v err=%v", page.Lines, err)
	}
}

func TestReadRestartsAfterRotation(t *testing.T) {
	path := writeLog(t, "fresh\n")
	page, err := logs.Read(context.Background(), path, logs.Options{Offset: 4096})
	if err != nil || !slices.Equal(page.Lines, []string{"fresh"}) {
		t.Fatalf("rotated read: lines=%#v err=%v", page.Lines, err)
	}
}

func TestReadMissingFile(t *testing.T) {
	page, err := logs.Read(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.Options{Offset: -1, Lines: 5})
	if err != nil || len(page.Lines) != 0 || page.Offset != 0 {
		t.Fatalf("expected empty page, got %+v err=%v", page, err)
	}
}

func TestReadWaitsForNewLines(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx := context.Background()

	first, err := logs.Read(ctx, path, logs.Options{Offset: -1, Lines: 1})
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}

	done := make(chan logs.Page, 1)
	go func() {
		page, err := logs.Read(ctx, path, logs.Options{Offset: first.Offset, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow read: %v", err)
		}
		done <- page
	}()

	time.Sleep(100 * time.Millisecond)
	appendLog(t, path, "later\n")

	select {
	case page := <-done:
		if !slices.Equal(page.Lines, []string{"later"}) {
			t.Fatalf("unexpected follow lines: %#v", page.Lines)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("follow read did not return")
	}
}

func TestReadWaitHonoursContext(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := logs.Read(ctx, path, logs.Options{Offset: int64(len("start\n")), Wait: 5 * time.Second})
	if err == nil {
		t.Fatal("expected context error")
	}
}
