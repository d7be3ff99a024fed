package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"mediadex/internal/config"
	"mediadex/internal/records"
	"mediadex/internal/services"
)

// Filter selects records for deletion. An empty Dirname matches any directory.
type Filter struct {
	Dirname  string
	Filename string
}

// Store is the document store consumed by the reconciler and purge scanner.
type Store interface {
	// Query returns every record of kind stored at exactly (dirname, filename).
	Query(ctx context.Context, kind records.Kind, dirname, filename string) ([]*records.Record, error)
	// FindByFilename returns every record of kind with the given filename.
	FindByFilename(ctx context.Context, kind records.Kind, filename string) ([]*records.Record, error)
	// Save writes rec, assigning an ID when it has none.
	Save(ctx context.Context, rec *records.Record) error
	// Delete removes every record of kind matching filter and returns the count.
	Delete(ctx context.Context, kind records.Kind, filter Filter) (int, error)
	// DistinctFilenames lists up to limit distinct filename values.
	DistinctFilenames(ctx context.Context, kind records.Kind, limit int) ([]string, error)
	// Search runs a free-text query; empty text matches everything.
	Search(ctx context.Context, kind records.Kind, text string, limit int) ([]*records.Record, error)
	Count(ctx context.Context, kind records.Kind) (int, error)
	Close() error
}

// Open builds the configured backend under cfg.Paths.IndexDir.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open index: config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Storage("open", fmt.Errorf("ensure directories: %w", err))
	}

	var (
		backend Store
		err     error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		backend, err = OpenSQLite(filepath.Join(cfg.Paths.IndexDir, "mediadex.db"))
	case config.BackendBleve, "":
		backend, err = OpenBleve(cfg.Paths.IndexDir)
	default:
		err = fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, services.Storage("open", err)
	}
	return Guard(backend, cfg.StorageTimeout()), nil
}

// Guard bounds each call on store by timeout and wraps failures as storage
// unavailable errors. A non-positive timeout leaves deadlines to the caller.
func Guard(store Store, timeout time.Duration) Store {
	if g, ok := store.(*guarded); ok {
		store = g.inner
	}
	return &guarded{inner: store, timeout: timeout}
}

type guarded struct {
	inner   Store
	timeout time.Duration
}

func (g *guarded) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *guarded) Query(ctx context.Context, kind records.Kind, dirname, filename string) ([]*records.Record, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	recs, err := g.inner.Query(ctx, kind, dirname, filename)
	return recs, services.Storage("query "+kind.Partition(), err)
}

func (g *guarded) FindByFilename(ctx context.Context, kind records.Kind, filename string) ([]*records.Record, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	recs, err := g.inner.FindByFilename(ctx, kind, filename)
	return recs, services.Storage("find "+kind.Partition(), err)
}

func (g *guarded) Save(ctx context.Context, rec *records.Record) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	op := "save"
	if rec != nil {
		op = "save " + rec.Kind.Partition()
	}
	return services.Storage(op, g.inner.Save(ctx, rec))
}

func (g *guarded) Delete(ctx context.Context, kind records.Kind, filter Filter) (int, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	n, err := g.inner.Delete(ctx, kind, filter)
	return n, services.Storage("delete "+kind.Partition(), err)
}

func (g *guarded) DistinctFilenames(ctx context.Context, kind records.Kind, limit int) ([]string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	names, err := g.inner.DistinctFilenames(ctx, kind, limit)
	return names, services.Storage("list filenames "+kind.Partition(), err)
}

func (g *guarded) Search(ctx context.Context, kind records.Kind, text string, limit int) ([]*records.Record, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	recs, err := g.inner.Search(ctx, kind, text, limit)
	return recs, services.Storage("search "+kind.Partition(), err)
}

func (g *guarded) Count(ctx context.Context, kind records.Kind) (int, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	n, err := g.inner.Count(ctx, kind)
	return n, services.Storage("count "+kind.Partition(), err)
}

func (g *guarded) Close() error {
	return services.Storage("close", g.inner.Close())
}

func checkKind(kind records.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid record kind %q", kind)
	}
	return nil
}
