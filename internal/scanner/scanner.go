package scanner

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediadex/internal/classify"
	"mediadex/internal/fileutil"
	"mediadex/internal/logging"
	"mediadex/internal/metrics"
	"mediadex/internal/reconcile"
	"mediadex/internal/services"
)

// Indexer reconciles one classified item. *reconcile.Reconciler satisfies it.
type Indexer interface {
	Index(ctx context.Context, item *classify.Item) (reconcile.Result, error)
}

// Options controls a single run.
type Options struct {
	Roots   []string
	Workers int
	// Recent skips files modified longer ago than this window; zero scans all.
	Recent time.Duration
	// DryRun, when set, receives a YAML dump of every probed file and nothing
	// is indexed.
	DryRun io.Writer
	Now    func() time.Time
}

// Failure records one item-level failure.
type Failure struct {
	Path    string
	Outcome reconcile.Outcome
	Err     error
}

// Summary tallies a run.
type Summary struct {
	RunID    string
	Files    int
	Outcomes map[reconcile.Outcome]int
	Warnings int
	Probed   int
	Failures []Failure
	Duration time.Duration
}

// ExitCode is 1 when any file ended in conflict or failure, 0 otherwise.
func (s Summary) ExitCode() int {
	if s.Outcomes[reconcile.OutcomeConflict] > 0 || s.Outcomes[reconcile.OutcomeFailed] > 0 {
		return 1
	}
	return 0
}

// Scanner runs batch index passes.
type Scanner struct {
	prober  Prober
	indexer Indexer
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// New constructs a Scanner. recorder may be nil.
func New(prober Prober, indexer Indexer, recorder *metrics.Recorder, logger *slog.Logger) *Scanner {
	return &Scanner{
		prober:  prober,
		indexer: indexer,
		metrics: recorder,
		logger:  logging.NewComponentLogger(logger, "scanner"),
	}
}

type job struct {
	root string
	path string
}

type jobResult struct {
	path     string
	outcome  reconcile.Outcome
	kind     string
	warnings []error
	err      error
	probed   bool
}

// Run walks opts.Roots and processes every media file found.
func (s *Scanner) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, s.logger)

	var dump *dumper
	if opts.DryRun != nil {
		dump = newDumper(opts.DryRun)
	}

	queues := make([]chan job, workers)
	results := make(chan jobResult, workers*2)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan job, 16)
		wg.Add(1)
		go func(queue <-chan job) {
			defer wg.Done()
			for j := range queue {
				results <- s.process(ctx, j, dump)
			}
		}(queues[i])
	}

	summary := Summary{RunID: runID, Outcomes: make(map[reconcile.Outcome]int)}
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for r := range results {
			s.tally(&summary, r)
		}
	}()

	walkErr := s.walk(ctx, opts, now(), func(j job) {
		queues[partition(j.path, workers)] <- j
	})

	for _, queue := range queues {
		close(queue)
	}
	wg.Wait()
	close(results)
	<-collectDone

	if dump != nil {
		if err := dump.close(); err != nil {
			walkErr = errors.Join(walkErr, err)
		}
	}

	summary.Duration = time.Since(started)
	s.metrics.FinishRun("index", started, time.Now())
	logger.Info("scan complete",
		logging.Int("files", summary.Files),
		logging.Int("inserted", summary.Outcomes[reconcile.OutcomeInserted]),
		logging.Int("updated", summary.Outcomes[reconcile.OutcomeUpdated]),
		logging.Int("unchanged", summary.Outcomes[reconcile.OutcomeUnchanged]),
		logging.Int("skipped", summary.Outcomes[reconcile.OutcomeSkipped]),
		logging.Int("conflict", summary.Outcomes[reconcile.OutcomeConflict]),
		logging.Int("failed", summary.Outcomes[reconcile.OutcomeFailed]),
		logging.Duration("duration", summary.Duration),
	)
	return summary, walkErr
}

func (s *Scanner) walk(ctx context.Context, opts Options, now time.Time, enqueue func(job)) error {
	var errs []error
	for _, root := range opts.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logging.WarnWithContext(s.logger, "walk error", "walk_error",
					logging.String(logging.FieldPath, path),
					logging.Error(err),
				)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() || !fileutil.IsMediaFile(path) {
				return nil
			}
			if opts.Recent > 0 {
				info, infoErr := d.Info()
				if infoErr != nil || !fileutil.ModifiedWithin(info, opts.Recent, now) {
					return nil
				}
			}
			// A file given as a root is keyed by its parent directory.
			jobRoot := root
			if path == root {
				jobRoot = filepath.Dir(root)
			}
			enqueue(job{root: jobRoot, path: path})
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("walk %s: %w", root, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scanner) process(ctx context.Context, j job, dump *dumper) jobResult {
	ctx = services.WithPath(ctx, j.path)
	logger := logging.WithContext(ctx, s.logger)
	result := jobResult{path: j.path}

	probeStart := time.Now()
	raws, err := s.prober.Probe(ctx, j.path)
	s.metrics.ObserveProbe(time.Since(probeStart))
	if err != nil {
		result.outcome, result.err = reconcile.OutcomeFailed, fmt.Errorf("probe: %w", err)
		logging.Diagnostic(ctx, logger, "probe failed", err)
		if dump != nil {
			_ = dump.write(dumpEntry{Path: j.path, Error: err.Error()})
		}
		return result
	}

	item, err := classify.Classify(raws)
	if dump != nil {
		result.probed = true
		entry := dumpEntry{Path: j.path, Tracks: raws}
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.DexType = string(item.DexType())
		}
		if dumpErr := dump.write(entry); dumpErr != nil {
			result.outcome, result.err = reconcile.OutcomeFailed, dumpErr
		}
		return result
	}
	if err != nil {
		result.outcome, result.err = reconcile.OutcomeFailed, err
		logging.Diagnostic(ctx, logger, "classification failed", err)
		return result
	}

	completeName := item.CompleteName()
	if completeName == "" {
		completeName = j.path
	}
	item = item.At(classify.SplitPath(j.root, completeName))

	res, err := s.indexer.Index(ctx, item)
	result.outcome = res.Outcome
	result.kind = string(res.Kind)
	result.warnings = res.Warnings
	switch {
	case err == nil:
	case !services.ItemFatal(err):
		// Field and enrichment errors degrade to warnings on the item.
		result.warnings = append(result.warnings, err)
		if result.outcome == "" {
			result.outcome = reconcile.OutcomeSkipped
		}
	default:
		result.err = err
		if result.outcome == "" {
			result.outcome = reconcile.OutcomeFailed
		}
	}
	return result
}

func (s *Scanner) tally(summary *Summary, r jobResult) {
	summary.Files++
	if r.probed {
		summary.Probed++
		if r.outcome == "" {
			return
		}
	}
	summary.Outcomes[r.outcome]++
	summary.Warnings += len(r.warnings)
	s.metrics.RecordItem(string(r.outcome), r.kind)
	for _, w := range r.warnings {
		s.metrics.RecordWarning(services.Kind(w))
	}
	if r.outcome.Failure() {
		summary.Failures = append(summary.Failures, Failure{Path: r.path, Outcome: r.outcome, Err: r.err})
	}
}

// partition assigns path to one of n workers.
func partition(path string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32() % uint32(n))
}
