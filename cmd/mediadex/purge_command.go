package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/fileutil"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/metrics"
	"mediadex/internal/purge"
	"mediadex/internal/records"
)

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove index entries whose files no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			var kinds []records.Kind
			if strings.TrimSpace(kindFlag) != "" {
				kind, err := records.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []records.Kind{kind}
			}

			return ctx.withStore(func(cfg *config.Config, logger *slog.Logger, store index.Store) error {
				started := time.Now()
				purger := purge.New(store, fileutil.OSFilesystem{}, cfg.Purge.FilenameCap, logger)
				recorder := metrics.New()

				var (
					reports []purge.Report
					err     error
				)
				if len(kinds) == 0 {
					_, reports, err = purger.PurgeAll(cmd.Context())
				} else {
					var report purge.Report
					report, err = purger.Scan(cmd.Context(), kinds[0])
					reports = []purge.Report{report}
				}

				rows := make([][]string, 0, len(reports))
				total := 0
				for _, report := range reports {
					recorder.RecordPurge(string(report.Kind), report.Removed)
					total += report.Removed
					rows = append(rows, []string{
						string(report.Kind),
						strconv.Itoa(report.Scanned),
						strconv.Itoa(report.Removed),
						yesNo(report.Truncated),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Kind", "Filenames", "Removed", "Truncated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "Removed %d stale entries\n", total)

				recorder.FinishRun("purge", started, time.Now())
				if writeErr := recorder.WriteTextfile(cfg.Metrics.Textfile); writeErr != nil {
					logger.Warn("metrics textfile not written",
						logging.Error(writeErr),
						logging.String(logging.FieldEventType, "metrics_write_failed"),
						logging.String(logging.FieldErrorHint, "check metrics.textfile permissions"),
					)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Limit the purge to one kind (song, movie, show)")
	return cmd
}
