package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// IgnoredFile is an exact path excluded from classification.
type IgnoredFile struct {
	Path      string    `json:"path"`
	Filename  string    `json:"filename"`
	Reason    string    `json:"reason,omitempty"`
	IgnoredAt time.Time `json:"ignored_at"`
}

// IgnorePatterns returns the stored basename glob patterns in insertion order.
func (s *Store) IgnorePatterns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT pattern FROM ignore_patterns ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query ignore patterns: %w", err)
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var pattern string
		if err := rows.Scan(&pattern); err != nil {
			return nil, fmt.Errorf("scan ignore pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, rows.Err()
}

// AddIgnorePattern stores pattern. Adding an existing pattern is a no-op.
func (s *Store) AddIgnorePattern(ctx context.Context, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("ignore pattern required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO ignore_patterns (pattern, created_at) VALUES (?, ?) ON CONFLICT(pattern) DO NOTHING`,
		pattern, s.timestamp(),
	); err != nil {
		return fmt.Errorf("add ignore pattern: %w", err)
	}
	return nil
}

// RemoveIgnorePattern deletes pattern and reports whether it existed.
func (s *Store) RemoveIgnorePattern(ctx context.Context, pattern string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ignore_patterns WHERE pattern = ?`, strings.TrimSpace(pattern))
	if err != nil {
		return false, fmt.Errorf("remove ignore pattern: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IgnoredFiles returns the exact-path denylist, newest first.
func (s *Store) IgnoredFiles(ctx context.Context) ([]IgnoredFile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT path, filename, reason, ignored_at FROM ignored_files ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query ignored files: %w", err)
	}
	defer rows.Close()

	var files []IgnoredFile
	for rows.Next() {
		var (
			file    IgnoredFile
			reason  sql.NullString
			ignored string
		)
		if err := rows.Scan(&file.Path, &file.Filename, &reason, &ignored); err != nil {
			return nil, fmt.Errorf("scan ignored file: %w", err)
		}
		file.Reason = reason.String
		file.IgnoredAt = parseTimestamp(ignored)
		files = append(files, file)
	}
	return files, rows.Err()
}

// IgnoredFile returns the denylist entry for path, or nil.
func (s *Store) IgnoredFile(ctx context.Context, path string) (*IgnoredFile, error) {
	var (
		file    IgnoredFile
		reason  sql.NullString
		ignored string
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT path, filename, reason, ignored_at FROM ignored_files WHERE path = ?`, path,
	).Scan(&file.Path, &file.Filename, &reason, &ignored)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ignored file: %w", err)
	}
	file.Reason = reason.String
	file.IgnoredAt = parseTimestamp(ignored)
	return &file, nil
}

// AddIgnoredFile adds path to the denylist. An existing entry is kept as is.
func (s *Store) AddIgnoredFile(ctx context.Context, path, reason string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("ignored file path required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO ignored_files (path, filename, reason, ignored_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(path) DO NOTHING`,
		path, filepath.Base(path), nullableString(reason), s.timestamp(),
	); err != nil {
		return fmt.Errorf("add ignored file: %w", err)
	}
	return nil
}

// RemoveIgnoredFile deletes path from the denylist and reports whether it existed.
func (s *Store) RemoveIgnoredFile(ctx context.Context, path string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ignored_files WHERE path = ?`, strings.TrimSpace(path))
	if err != nil {
		return false, fmt.Errorf("remove ignored file: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
