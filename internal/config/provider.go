package config

import (
	"context"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// Setting keys understood by the layered provider.
const (
	KeyTMDBAPIKey       = "tmdb_api_key"
	KeyInputDir         = "input_dir"
	KeyMoviesDir        = "movies_dir"
	KeyRegionalDir      = "regional_dir"
	KeyRejectedDir      = "rejected_dir"
	KeyRegionalLanguage = "regional_language"
	KeyMinSizeMiB       = "min_size_mib"
)

// Keys lists every setting key in display order.
func Keys() []string {
	return []string{
		KeyTMDBAPIKey,
		KeyInputDir,
		KeyMoviesDir,
		KeyRegionalDir,
		KeyRejectedDir,
		KeyRegionalLanguage,
		KeyMinSizeMiB,
	}
}

// IsKey reports whether key is a known setting.
func IsKey(key string) bool {
	for _, candidate := range Keys() {
		if candidate == key {
			return true
		}
	}
	return false
}

// Provider answers setting lookups at the moment they are needed so that
// changes made through the API apply to the next classification.
type Provider interface {
	Get(key string) string
	All() map[string]string
}

// SettingsSource is the persisted settings layer.
type SettingsSource interface {
	Settings(ctx context.Context) (map[string]string, error)
}

// Layered resolves keys with precedence override > persisted setting > file
// or environment value.
type Layered struct {
	base      map[string]string
	source    SettingsSource
	overrides map[string]string
}

// NewLayered builds a provider over cfg. source may be nil.
func NewLayered(cfg *Config, source SettingsSource) *Layered {
	return &Layered{base: cfg.values(), source: source}
}

// WithOverrides returns a copy that consults overrides before the other layers.
// Empty override values are ignored.
func (l *Layered) WithOverrides(overrides map[string]string) *Layered {
	clone := &Layered{base: l.base, source: l.source, overrides: maps.Clone(l.overrides)}
	if clone.overrides == nil {
		clone.overrides = make(map[string]string, len(overrides))
	}
	for key, value := range overrides {
		if strings.TrimSpace(value) != "" {
			clone.overrides[key] = strings.TrimSpace(value)
		}
	}
	return clone
}

// Get returns the effective value for key, or "" when unset.
func (l *Layered) Get(key string) string {
	if value, ok := l.overrides[key]; ok {
		return value
	}
	if persisted := l.persisted(); persisted != nil {
		if value := strings.TrimSpace(persisted[key]); value != "" {
			return value
		}
	}
	return l.base[key]
}

// All returns the effective value of every known key.
func (l *Layered) All() map[string]string {
	out := maps.Clone(l.base)
	for key, value := range l.persisted() {
		if strings.TrimSpace(value) != "" {
			out[key] = strings.TrimSpace(value)
		}
	}
	maps.Copy(out, l.overrides)
	return out
}

func (l *Layered) persisted() map[string]string {
	if l.source == nil {
		return nil
	}
	values, err := l.source.Settings(context.Background())
	if err != nil {
		return nil
	}
	return values
}

func (c *Config) values() map[string]string {
	return map[string]string{
		KeyTMDBAPIKey:       c.TMDB.APIKey,
		KeyInputDir:         c.Paths.InputDir,
		KeyMoviesDir:        c.Paths.MoviesDir,
		KeyRegionalDir:      c.Paths.RegionalDir,
		KeyRejectedDir:      c.Paths.RejectedDir,
		KeyRegionalLanguage: c.Pipeline.RegionalLanguage,
		KeyMinSizeMiB:       strconv.FormatInt(c.Safety.MinSizeMiB, 10),
	}
}

// Static is a fixed-value provider, used by tests and one-shot CLI runs.
type Static map[string]string

// Get returns the stored value for key.
func (s Static) Get(key string) string { return s[key] }

// All returns a copy of the stored values.
func (s Static) All() map[string]string { return maps.Clone(s) }

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskSecret hides all but the last four characters of a credential.
func MaskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
