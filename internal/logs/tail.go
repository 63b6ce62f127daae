package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// Options selects a window of the log. A negative Offset returns the last
// Lines lines; otherwise up to Lines lines are read forward from Offset, with
// Lines <= 0 meaning no limit. Wait keeps polling a forward read that found
// nothing new.
type Options struct {
	Offset int64
	Lines  int
	Wait   time.Duration
}

// Page is one window of log lines and the offset to resume from.
type Page struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// Read returns the requested window of the file at path. A missing file yields
// an empty page at offset zero.
func Read(ctx context.Context, path string, opts Options) (Page, error) {
	if opts.Offset < 0 {
		return lastLines(path, opts.Lines)
	}

	deadline := time.Now().Add(max(opts.Wait, 0))
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	offset := opts.Offset
	for {
		page, err := forward(path, offset, opts.Lines)
		if err != nil || len(page.Lines) > 0 || !time.Now().Before(deadline) {
			return page, err
		}
		offset = page.Offset
		select {
		case <-ctx.Done():
			return page, ctx.Err()
		case <-ticker.C:
		}
	}
}

func open(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	return file, info.Size(), nil
}

// scan calls fn for each complete line starting at the reader's position and
// returns the number of bytes consumed. fn returning false stops the scan.
func scan(r io.Reader, fn func(line string) bool) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if !fn(strings.TrimRight(line, "\r\n")) {
			return consumed, nil
		}
	}
}

func lastLines(path string, limit int) (Page, error) {
	file, _, err := open(path)
	if err != nil || file == nil {
		return Page{}, err
	}
	defer file.Close()

	var (
		ring  []string
		next  int
		count int
	)
	if limit > 0 {
		ring = make([]string, limit)
	}
	consumed, err := scan(file, func(line string) bool {
		if limit > 0 {
			ring[next] = line
			next = (next + 1) % limit
			count = min(count+1, limit)
		}
		return true
	})
	if err != nil {
		return Page{}, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines = append(lines, ring[(start+i)%max(limit, 1)])
	}
	return Page{Lines: lines, Offset: consumed}, nil
}

func forward(path string, offset int64, limit int) (Page, error) {
	file, size, err := open(path)
	if err != nil || file == nil {
		return Page{}, err
	}
	defer file.Close()

	if offset > size {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Page{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	consumed, err := scan(file, func(line string) bool {
		lines = append(lines, line)
		return limit <= 0 || len(lines) < limit
	})
	if err != nil {
		return Page{Offset: offset}, err
	}
	return Page{Lines: lines, Offset: offset + consumed}, nil
}
