package store

import (
	"context"
	"fmt"
	"strings"
)

// Settings returns every persisted setting. It satisfies config.SettingsSource.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

// SetSetting upserts key. A blank value deletes the row so the file or
// environment default applies again.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("setting key required")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if _, err := s.execWithRetry(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete setting %s: %w", key, err)
		}
		return nil
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
