package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the library roots and mediadex's own state directories.
type Paths struct {
	LibraryRoots []string `toml:"library_roots"`
	IndexDir     string   `toml:"index_dir"`
	LogDir       string   `toml:"log_dir"`
}

// Storage selects the document store backend.
type Storage struct {
	Backend        string `toml:"backend"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Scan contains batch driver settings.
type Scan struct {
	Workers       int    `toml:"workers"`
	RecentHours   int    `toml:"recent_hours"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Purge bounds the stale-entry scan.
type Purge struct {
	FilenameCap int `toml:"filename_cap"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	Enabled               bool    `toml:"enabled"`
	APIKey                string  `toml:"api_key"`
	BaseURL               string  `toml:"base_url"`
	Language              string  `toml:"language"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	BreakerFailures       int     `toml:"breaker_failures"`
	BreakerTimeoutSeconds int     `toml:"breaker_timeout_seconds"`
}

// Metrics controls the Prometheus textfile written after each run.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediadex.
//
// Configuration sections by subsystem:
//   - Paths: library roots to scan, index and log directories
//   - Storage: document store backend and per-call timeout
//   - Scan: worker count, recent-file window, ffprobe binary
//   - Purge: distinct filename cap
//   - TMDB: movie/show enrichment
//   - Metrics: Prometheus textfile output
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Storage Storage `toml:"storage"`
	Scan    Scan    `toml:"scan"`
	Purge   Purge   `toml:"purge"`
	TMDB    TMDB    `toml:"tmdb"`
	Metrics Metrics `toml:"metrics"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediadex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the index and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.IndexDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for track probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Scan.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// StorageTimeout returns the bound applied to each storage call.
func (c *Config) StorageTimeout() time.Duration {
	return time.Duration(c.Storage.TimeoutSeconds) * time.Second
}

// RecentWindow returns the modification window used by --today, or zero when
// every file is considered.
func (c *Config) RecentWindow() time.Duration {
	if c.Scan.RecentHours <= 0 {
		return 0
	}
	return time.Duration(c.Scan.RecentHours) * time.Hour
}

// LockPath returns the advisory lock guarding the index against concurrent writers.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.IndexDir, "mediadex.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
