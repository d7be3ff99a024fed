package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/index"
	"mediadex/internal/records"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Search indexed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := records.Kinds()
			if strings.TrimSpace(kindFlag) != "" {
				kind, err := records.ParseKind(kindFlag)
				if err != nil {
					return err
				}
				kinds = []records.Kind{kind}
			}
			query := strings.Join(args, " ")

			return ctx.withStore(func(_ *config.Config, _ *slog.Logger, store index.Store) error {
				var rows [][]string
				for _, kind := range kinds {
					found, err := store.Search(cmd.Context(), kind, query, limit)
					if err != nil {
						return fmt.Errorf("search %s: %w", kind.Partition(), err)
					}
					for _, rec := range found {
						rows = append(rows, searchRow(rec))
					}
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No matching records")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Kind", "Title", "Detail", "Year", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Restrict to one kind (song, movie, show)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results per kind")
	return cmd
}

func searchRow(rec *records.Record) []string {
	detail := ""
	switch {
	case rec.SongInfo != nil:
		detail = strings.Trim(strings.Join([]string{rec.Artist, rec.Album}, " / "), "/ ")
	case rec.ScreenInfo != nil && rec.Kind == records.KindShow && rec.Season > 0:
		detail = fmt.Sprintf("S%02dE%02d", rec.Season, rec.Episode)
	case rec.ScreenInfo != nil && len(rec.Director) > 0:
		detail = strings.Join(rec.Director, ", ")
	}
	year := ""
	if rec.Year > 0 {
		year = strconv.Itoa(rec.Year)
	}
	return []string{string(rec.Kind), rec.Title, detail, year, rec.Path()}
}
