package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mediadex/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("MEDIADEX_INDEX_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantIndex := filepath.Join(tempHome, ".local", "share", "mediadex", "index")
	if cfg.Paths.IndexDir != wantIndex {
		t.Fatalf("unexpected index dir: got %q want %q", cfg.Paths.IndexDir, wantIndex)
	}
	if cfg.Storage.Backend != config.BackendBleve {
		t.Fatalf("expected bleve backend, got %q", cfg.Storage.Backend)
	}
	if cfg.StorageTimeout() != 11*time.Second {
		t.Fatalf("unexpected storage timeout: %s", cfg.StorageTimeout())
	}
	if cfg.Purge.FilenameCap != 10000 {
		t.Fatalf("unexpected filename cap: %d", cfg.Purge.FilenameCap)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected warn default level, got %q", cfg.Logging.Level)
	}
	if cfg.TMDB.Enabled {
		t.Fatal("expected TMDB disabled by default")
	}
	if cfg.LockPath() != filepath.Join(wantIndex, "mediadex.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.IndexDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediadex.toml")
	t.Setenv("MEDIADEX_INDEX_DIR", "")

	type payload struct {
		Paths struct {
			LibraryRoots []string `toml:"library_roots"`
			IndexDir     string   `toml:"index_dir"`
		} `toml:"paths"`
		Storage struct {
			Backend string `toml:"backend"`
		} `toml:"storage"`
		TMDB struct {
			Enabled bool   `toml:"enabled"`
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tmdb"`
	}
	custom := payload{}
	custom.Paths.LibraryRoots = []string{filepath.Join(tempDir, "music"), filepath.Join(tempDir, "music"), " "}
	custom.Paths.IndexDir = filepath.Join(tempDir, "idx")
	custom.Storage.Backend = "SQLite"
	custom.TMDB.Enabled = true
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Fatalf("expected backend to normalize to sqlite, got %q", cfg.Storage.Backend)
	}
	if len(cfg.Paths.LibraryRoots) != 1 {
		t.Fatalf("expected deduplicated library roots, got %v", cfg.Paths.LibraryRoots)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TMDB.BaseURL)
	}
}

func TestEnvFallbacks(t *testing.T) {
	indexDir := filepath.Join(t.TempDir(), "env-index")
	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("MEDIADEX_INDEX_DIR", indexDir)

	configPath := filepath.Join(t.TempDir(), "mediadex.toml")
	if err := os.WriteFile(configPath, []byte("[tmdb]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIKey != "env-tmdb" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Paths.IndexDir != indexDir {
		t.Fatalf("expected index dir from env, got %q", cfg.Paths.IndexDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mediadex.toml")
	if err := os.WriteFile(configPath, []byte("[storage]\nengine = \"bleve\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected parse error for unknown key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.IndexDir, "mediadex") {
		t.Fatalf("expected index dir to contain mediadex, got %q", cfg.Paths.IndexDir)
	}
	if cfg.Storage.Backend != config.BackendBleve {
		t.Fatalf("expected sample backend bleve, got %q", cfg.Storage.Backend)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "elasticsearch" }},
		{"zero timeout", func(c *config.Config) { c.Storage.TimeoutSeconds = 0 }},
		{"zero workers", func(c *config.Config) { c.Scan.Workers = 0 }},
		{"zero cap", func(c *config.Config) { c.Purge.FilenameCap = 0 }},
		{"tmdb without key", func(c *config.Config) { c.TMDB.Enabled = true; c.TMDB.APIKey = "" }},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestRecentWindow(t *testing.T) {
	cfg := config.Default()
	if cfg.RecentWindow() != 24*time.Hour {
		t.Fatalf("unexpected recent window: %s", cfg.RecentWindow())
	}
	cfg.Scan.RecentHours = 0
	if cfg.RecentWindow() != 0 {
		t.Fatalf("expected zero window, got %s", cfg.RecentWindow())
	}
}
