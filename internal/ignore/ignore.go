// Package ignore decides whether a path is excluded from classification by the
// exact-path denylist or a basename glob pattern.
package ignore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"filearr/internal/logging"
	"filearr/internal/store"
)

// Source supplies the denylist and patterns.
type Source interface {
	IgnoredFile(ctx context.Context, path string) (*store.IgnoredFile, error)
	IgnorePatterns(ctx context.Context) ([]string, error)
}

// Filter answers ShouldIgnore against the current lists.
type Filter struct {
	source Source
	logger *slog.Logger
}

// NewFilter constructs a Filter. A nil source ignores nothing.
func NewFilter(source Source, logger *slog.Logger) *Filter {
	return &Filter{source: source, logger: logging.NewComponentLogger(logger, "ignore")}
}

// ShouldIgnore reports whether path is excluded and why. Lookup errors are
// logged and treated as "not ignored".
func (f *Filter) ShouldIgnore(ctx context.Context, path string) (bool, string) {
	if f == nil || f.source == nil {
		return false, ""
	}
	entry, err := f.source.IgnoredFile(ctx, path)
	if err != nil {
		f.warn(path, "ignored file lookup failed", err)
	} else if entry != nil {
		reason := entry.Reason
		if reason == "" {
			reason = "No reason provided"
		}
		return true, "File manually ignored: " + reason
	}

	patterns, err := f.source.IgnorePatterns(ctx)
	if err != nil {
		f.warn(path, "ignore pattern lookup failed", err)
		return false, ""
	}
	if pattern, ok := MatchAny(patterns, filepath.Base(path)); ok {
		return true, fmt.Sprintf("Matched pattern: %s", pattern)
	}
	return false, ""
}

// Match reports whether filename matches the glob pattern. Malformed patterns
// never match. A class may be negated with "[!...]" as well as "[^...]".
func Match(pattern, filename string) bool {
	ok, err := filepath.Match(globPattern(pattern), filename)
	return err == nil && ok
}

// MatchAny returns the first pattern that matches filename.
func MatchAny(patterns []string, filename string) (string, bool) {
	for _, pattern := range patterns {
		if Match(pattern, filename) {
			return pattern, true
		}
	}
	return "", false
}

// Validate reports a malformed pattern.
func Validate(pattern string) error {
	if _, err := filepath.Match(globPattern(pattern), ""); err != nil {
		return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
	}
	return nil
}

// globPattern rewrites "[!" class negation into the "[^" form filepath.Match
// understands. Escaped brackets are left alone.
func globPattern(pattern string) string {
	if !strings.Contains(pattern, "[!") {
		return pattern
	}
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			c = pattern[i]
		case !inClass && c == '[':
			inClass = true
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '!' {
				b.WriteByte('^')
				i++
			}
			continue
		case inClass && c == ']':
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (f *Filter) warn(path, msg string, err error) {
	logging.WarnWithContext(f.logger, msg, "ignore_lookup_failed",
		logging.String(logging.FieldPath, path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the filearr database"),
		logging.String(logging.FieldImpact, "file is classified as if not ignored"),
	)
}
