// Package logging assembles structured slog loggers and formatting helpers used
// across filearr services.
//
// It owns the console/JSON handlers, routes daemon output to a size-rotated log
// file, and exposes field helpers so the pipeline, watcher and cleanup job tag
// log lines with the same keys. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
