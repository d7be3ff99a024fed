package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/enrich"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/metrics"
	"mediadex/internal/reconcile"
	"mediadex/internal/scanner"
)

type indexOptions struct {
	today    bool
	dryRun   bool
	backend  string
	indexDir string
	workers  int
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Probe media files and reconcile them into the index",
		Long: "Walk the given paths (or the configured library roots), classify every media file " +
			"and insert, update or skip its index record. Exits non-zero when any file ends in conflict or failure.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyIndexOverrides(cfg, opts); err != nil {
				return err
			}
			roots, err := resolveRoots(cfg, args)
			if err != nil {
				return err
			}
			runOpts := scanner.Options{
				Roots:   roots,
				Workers: cfg.Scan.Workers,
			}
			if opts.today {
				runOpts.Recent = cfg.RecentWindow()
			}
			prober := scanner.FFprobe{Binary: cfg.FFprobeBinary()}

			if opts.dryRun {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				runOpts.DryRun = cmd.OutOrStdout()
				summary, err := scanner.New(prober, nil, nil, logger).Run(cmd.Context(), runOpts)
				fmt.Fprintf(cmd.ErrOrStderr(), "Probed %d of %d files\n", summary.Probed, summary.Files)
				return err
			}

			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, store index.Store) error {
				recOpts := []reconcile.Option{reconcile.WithTagReader(enrich.FileTagReader{})}
				if cfg.TMDB.Enabled {
					lookup, err := enrich.NewTMDBLookup(cfg.TMDB, nil, logger)
					if err != nil {
						return err
					}
					recOpts = append(recOpts, reconcile.WithLookup(lookup))
				}
				reconciler := reconcile.New(store, logger, recOpts...)
				recorder := metrics.New()

				summary, runErr := scanner.New(prober, reconciler, recorder, logger).Run(cmd.Context(), runOpts)
				printIndexSummary(cmd.OutOrStdout(), summary)

				if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					logger.Warn("metrics textfile not written",
						logging.Error(err),
						logging.String(logging.FieldEventType, "metrics_write_failed"),
						logging.String(logging.FieldErrorHint, "check metrics.textfile permissions"),
					)
				}
				if runErr != nil {
					return runErr
				}
				if summary.ExitCode() != 0 {
					return fmt.Errorf("index: %d of %d files ended in conflict or failure", len(summary.Failures), summary.Files)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.today, "today", false, "Only process files modified within scan.recent_hours")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print probed tracks as YAML without touching the index")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Storage backend override (bleve or sqlite)")
	cmd.Flags().StringVar(&opts.indexDir, "index-dir", "", "Index directory override")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Parallel workers (default scan.workers)")
	return cmd
}

func applyIndexOverrides(cfg *config.Config, opts indexOptions) error {
	if backend := strings.ToLower(strings.TrimSpace(opts.backend)); backend != "" {
		cfg.Storage.Backend = backend
	}
	if dir := strings.TrimSpace(opts.indexDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve index dir: %w", err)
		}
		cfg.Paths.IndexDir = expanded
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}
	return cfg.Validate()
}

func resolveRoots(cfg *config.Config, args []string) ([]string, error) {
	candidates := args
	if len(candidates) == 0 {
		candidates = cfg.Paths.LibraryRoots
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no paths given and paths.library_roots is empty")
	}
	roots := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		expanded, err := config.ExpandPath(candidate)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", candidate, err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", candidate, err)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

func printIndexSummary(out io.Writer, summary scanner.Summary) {
	color := shouldColorize(out)

	rows := make([][]string, 0, len(reconcile.Outcomes())+2)
	for _, outcome := range reconcile.Outcomes() {
		label := string(outcome)
		count := summary.Outcomes[outcome]
		if outcome.Failure() && count > 0 {
			label = colorize(label, ansiRed, color)
		}
		rows = append(rows, []string{label, strconv.Itoa(count)})
	}
	rows = append(rows,
		[]string{"warnings", strconv.Itoa(summary.Warnings)},
		[]string{"files", strconv.Itoa(summary.Files)},
	)
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(summary.Failures) > 0 {
		failures := make([][]string, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			msg := ""
			if f.Err != nil {
				msg = f.Err.Error()
			}
			failures = append(failures, []string{f.Path, string(f.Outcome), msg})
		}
		fmt.Fprintln(out, renderTable([]string{"Path", "Outcome", "Error"}, failures, nil))
	}

	status := colorize("Index run complete", ansiGreen, color)
	if summary.ExitCode() != 0 {
		status = colorize("Index run finished with failures", ansiYellow, color)
	}
	fmt.Fprintf(out, "%s in %s (run %s)\n", status, summary.Duration.Round(time.Millisecond), summary.RunID)
}
