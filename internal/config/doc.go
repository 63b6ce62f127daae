// Package config loads, normalizes, and validates filearr configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and FILEARR_INPUT_DIR. The Config type centralizes the knobs the
// daemon and CLI need; the Provider layer lets persisted settings and
// per-request overrides take precedence over the file values at read time.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
