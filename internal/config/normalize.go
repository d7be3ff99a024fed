package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeScan()
	if c.Purge.FilenameCap <= 0 {
		c.Purge.FilenameCap = defaultPurgeFilenameCap
	}
	c.normalizeTMDB()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("MEDIADEX_INDEX_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.IndexDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.IndexDir) == "" {
		c.Paths.IndexDir = defaultIndexDir
	}
	if c.Paths.IndexDir, err = expandPath(c.Paths.IndexDir); err != nil {
		return fmt.Errorf("paths.index_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	roots := make([]string, 0, len(c.Paths.LibraryRoots))
	seen := make(map[string]struct{}, len(c.Paths.LibraryRoots))
	for _, root := range c.Paths.LibraryRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(root))
		if err != nil {
			return fmt.Errorf("paths.library_roots: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.LibraryRoots = roots
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Storage.TimeoutSeconds <= 0 {
		c.Storage.TimeoutSeconds = defaultStorageTimeoutSeconds
	}
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultScanWorkers
	}
	if c.Scan.RecentHours < 0 {
		c.Scan.RecentHours = 0
	}
	c.Scan.FFprobeBinary = strings.TrimSpace(c.Scan.FFprobeBinary)
	if c.Scan.FFprobeBinary == "" {
		c.Scan.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		c.TMDB.RequestsPerSecond = defaultTMDBRequestsPerSecond
	}
	if c.TMDB.BreakerFailures <= 0 {
		c.TMDB.BreakerFailures = defaultTMDBBreakerFailures
	}
	if c.TMDB.BreakerTimeoutSeconds <= 0 {
		c.TMDB.BreakerTimeoutSeconds = defaultTMDBBreakerTimeout
	}
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.Textfile) == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
