package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"storage.timeout_seconds": c.Storage.TimeoutSeconds,
		"scan.workers":            c.Scan.Workers,
		"purge.filename_cap":      c.Purge.FilenameCap,
	})
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendBleve, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendBleve, BackendSQLite, c.Storage.Backend)
	}
	if c.Paths.IndexDir == "" {
		return errors.New("paths.index_dir must be set")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if !c.TMDB.Enabled {
		return nil
	}
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required when tmdb.enabled is true. Set TMDB_API_KEY env var or edit %s (create with 'mediadex config init')", defaultPath)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	if c.TMDB.BreakerFailures <= 0 {
		return errors.New("tmdb.breaker_failures must be positive")
	}
	if c.TMDB.BreakerTimeoutSeconds <= 0 {
		return errors.New("tmdb.breaker_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
