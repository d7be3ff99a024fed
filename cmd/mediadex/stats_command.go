package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/index"
	"mediadex/internal/records"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per partition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, _ *slog.Logger, store index.Store) error {
				rows := make([][]string, 0, len(records.Kinds()))
				for _, kind := range records.Kinds() {
					count, err := store.Count(cmd.Context(), kind)
					if err != nil {
						return fmt.Errorf("count %s: %w", kind.Partition(), err)
					}
					rows = append(rows, []string{kind.Partition(), strconv.Itoa(count)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend: %s (%s)\n", cfg.Storage.Backend, cfg.Paths.IndexDir)
				fmt.Fprintln(out, renderTable([]string{"Partition", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
