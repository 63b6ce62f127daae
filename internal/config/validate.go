package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validatePermissions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MoviesDir) == "" {
		return errors.New("paths.movies_dir must be set")
	}
	if strings.TrimSpace(c.Paths.RejectedDir) == "" {
		return errors.New("paths.rejected_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.MoviesDir || c.Paths.InputDir == c.Paths.RegionalDir {
		return errors.New("paths.input_dir must differ from the destination roots")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.RegionalLanguage) != 3 {
		return fmt.Errorf("pipeline.regional_language must be a 3-letter code, got %q", c.Pipeline.RegionalLanguage)
	}
	return nil
}

func (c *Config) validatePermissions() error {
	if _, err := parseMode(c.Permissions.DirMode); err != nil {
		return fmt.Errorf("permissions.dir_mode: %w", err)
	}
	if _, err := parseMode(c.Permissions.FileMode); err != nil {
		return fmt.Errorf("permissions.file_mode: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func parseMode(value string) (os.FileMode, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("parse octal mode %q: %w", value, err)
	}
	if parsed > 0o7777 {
		return 0, fmt.Errorf("mode %q out of range", value)
	}
	return os.FileMode(parsed), nil
}

// DirMode returns the directory mode applied after a move.
func (c *Config) DirMode() os.FileMode {
	mode, err := parseMode(c.Permissions.DirMode)
	if err != nil {
		return 0o775
	}
	return mode
}

// FileMode returns the file mode applied after a move.
func (c *Config) FileMode() os.FileMode {
	mode, err := parseMode(c.Permissions.FileMode)
	if err != nil {
		return 0o664
	}
	return mode
}
