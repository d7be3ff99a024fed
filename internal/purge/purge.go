package purge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"

	"mediadex/internal/fileutil"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/records"
)

// DefaultFilenameCap bounds the distinct file names scanned per partition.
const DefaultFilenameCap = 10000

// Report summarizes one partition scan.
type Report struct {
	Kind      records.Kind
	Scanned   int
	Removed   int
	Truncated bool
}

// Purger deletes stale index entries.
type Purger struct {
	store  index.Store
	fs     fileutil.Filesystem
	limit  int
	logger *slog.Logger
}

// New constructs a Purger. A non-positive filenameCap uses DefaultFilenameCap.
func New(store index.Store, fs fileutil.Filesystem, filenameCap int, logger *slog.Logger) *Purger {
	if filenameCap <= 0 {
		filenameCap = DefaultFilenameCap
	}
	if fs == nil {
		fs = fileutil.OSFilesystem{}
	}
	return &Purger{
		store:  store,
		fs:     fs,
		limit:  filenameCap,
		logger: logging.NewComponentLogger(logger, "purge"),
	}
}

// Purge scans one partition and returns the number of records removed.
func (p *Purger) Purge(ctx context.Context, kind records.Kind) (int, error) {
	report, err := p.Scan(ctx, kind)
	return report.Removed, err
}

// PurgeAll scans the movie, show and song partitions independently and sums
// their removals. A failing partition does not stop the others.
func (p *Purger) PurgeAll(ctx context.Context) (int, []Report, error) {
	var (
		total   int
		reports []Report
		errs    []error
	)
	for _, kind := range []records.Kind{records.KindMovie, records.KindShow, records.KindSong} {
		report, err := p.Scan(ctx, kind)
		total += report.Removed
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", kind, err))
		}
	}
	return total, reports, errors.Join(errs...)
}

// Scan is Purge with the full report.
func (p *Purger) Scan(ctx context.Context, kind records.Kind) (Report, error) {
	report := Report{Kind: kind}
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldKind, string(kind)))

	names, err := p.store.DistinctFilenames(ctx, kind, p.limit+1)
	if err != nil {
		return report, fmt.Errorf("list filenames: %w", err)
	}
	if len(names) > p.limit {
		report.Truncated = true
		names = names[:p.limit]
		logging.WarnWithContext(logger, "purge scan truncated", "purge_truncated",
			logging.Int("cap", p.limit),
			logging.String(logging.FieldErrorHint, "run purge again to continue"),
			logging.String(logging.FieldImpact, "some stale entries remain until the next purge"),
		)
	}

	for _, filename := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		removed, err := p.purgeFilename(ctx, logger, kind, filename)
		report.Removed += removed
		if err != nil {
			return report, err
		}
	}

	logger.Info("purge complete",
		logging.Int("scanned", report.Scanned),
		logging.Int("removed", report.Removed),
		logging.Bool("truncated", report.Truncated),
	)
	return report, nil
}

func (p *Purger) purgeFilename(ctx context.Context, logger *slog.Logger, kind records.Kind, filename string) (int, error) {
	found, err := p.store.FindByFilename(ctx, kind, filename)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", filename, err)
	}

	dirnames := make(map[string]struct{}, len(found))
	for _, rec := range found {
		dirnames[rec.Dirname] = struct{}{}
	}
	ordered := make([]string, 0, len(dirnames))
	for dirname := range dirnames {
		ordered = append(ordered, dirname)
	}
	sort.Strings(ordered)

	removed := 0
	for _, dirname := range ordered {
		full := path.Join(dirname, filename)
		exists, err := p.fs.Exists(full)
		if err != nil {
			logging.Diagnostic(ctx, logger, "existence check failed", err, logging.String(logging.FieldPath, full))
			continue
		}
		if exists {
			continue
		}
		n, err := p.store.Delete(ctx, kind, index.Filter{Dirname: dirname, Filename: filename})
		removed += n
		if err != nil {
			return removed, fmt.Errorf("delete %s: %w", full, err)
		}
		logger.Info("stale entry removed",
			logging.String(logging.FieldPath, full),
			logging.Int("records", n),
		)
	}
	return removed, nil
}
