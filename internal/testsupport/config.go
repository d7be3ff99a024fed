package testsupport

import (
	"path/filepath"
	"testing"

	"mediadex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryRoots = []string{filepath.Join(base, "library")}
	cfgVal.Paths.IndexDir = filepath.Join(base, "index")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.TMDB.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend selects the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithTMDB enables TMDB enrichment against baseURL.
func WithTMDB(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.Enabled = true
		b.cfg.TMDB.BaseURL = baseURL
		b.cfg.TMDB.RequestsPerSecond = 1000
	}
}

// WithLibraryRoots replaces the library roots with directories under the
// test's base directory.
func WithLibraryRoots(names ...string) ConfigOption {
	return func(b *configBuilder) {
		roots := make([]string, 0, len(names))
		for _, name := range names {
			roots = append(roots, filepath.Join(b.baseDir, name))
		}
		b.cfg.Paths.LibraryRoots = roots
	}
}

// WithConfigMutator applies arbitrary mutations to the config.
func WithConfigMutator(mut func(*config.Config)) ConfigOption {
	return func(b *configBuilder) {
		if mut != nil {
			mut(b.cfg)
		}
	}
}
