package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Status is the recorded outcome of one classification attempt.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
	StatusIgnored   Status = "ignored"
)

// Entry is one ledger row. Retry marks an attempt that does not count as
// seen, such as a file that was still being written.
type Entry struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Status       Status    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Destination  string    `json:"destination,omitempty"`
	Source       string    `json:"source,omitempty"`
	Title        string    `json:"title,omitempty"`
	Year         int       `json:"year,omitempty"`
	TMDBID       int64     `json:"tmdb_id,omitempty"`
	Language     string    `json:"language,omitempty"`
	QualityScore int       `json:"quality_score,omitempty"`
	Retry        bool      `json:"retry,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const entryColumns = `id, path, filename, status, reason, destination, source,
    title, year, tmdb_id, language, quality_score, retry, created_at`

// Record appends entry to the ledger and returns it with ID and CreatedAt set.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	entry.Path = strings.TrimSpace(entry.Path)
	if entry.Path == "" {
		return Entry{}, fmt.Errorf("record ledger entry: path required")
	}
	if entry.Filename == "" {
		entry.Filename = filepath.Base(entry.Path)
	}
	created := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO ledger (path, filename, status, reason, destination, source,
            title, year, tmdb_id, language, quality_score, retry, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Path,
		entry.Filename,
		string(entry.Status),
		nullableString(entry.Reason),
		nullableString(entry.Destination),
		nullableString(entry.Source),
		nullableString(entry.Title),
		nullableInt(int64(entry.Year)),
		nullableInt(entry.TMDBID),
		nullableString(entry.Language),
		sql.NullInt64{Int64: int64(entry.QualityScore), Valid: entry.Status == StatusProcessed},
		entry.Retry,
		created,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = parseTimestamp(created)
	return entry, nil
}

// HasOutcome reports whether path has a recorded outcome that counts as seen.
// Failed attempts and entries marked Retry are excluded so they are retried.
func (s *Store) HasOutcome(ctx context.Context, path string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM ledger WHERE path = ? AND status != ? AND retry = 0`,
		path, string(StatusFailed),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query ledger outcome: %w", err)
	}
	return count > 0, nil
}

// RecentFilter narrows Recent results.
type RecentFilter struct {
	Limit  int
	Status Status
}

// Recent returns ledger entries newest first.
func (s *Store) Recent(ctx context.Context, filter RecentFilter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `SELECT ` + entryColumns + ` FROM ledger`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns a count of ledger entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM ledger GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry                                    Entry
		status                                   string
		reason, destination, source, title, lang sql.NullString
		year, tmdbID, score                      sql.NullInt64
		created                                  string
	)
	if err := rows.Scan(
		&entry.ID, &entry.Path, &entry.Filename, &status, &reason, &destination, &source,
		&title, &year, &tmdbID, &lang, &score, &entry.Retry, &created,
	); err != nil {
		return Entry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	entry.Status = Status(status)
	entry.Reason = reason.String
	entry.Destination = destination.String
	entry.Source = source.String
	entry.Title = title.String
	entry.Year = int(year.Int64)
	entry.TMDBID = tmdbID.Int64
	entry.Language = lang.String
	entry.QualityScore = int(score.Int64)
	entry.CreatedAt = parseTimestamp(created)
	return entry, nil
}
