package reconcile

import (
	"context"
	"log/slog"

	"mediadex/internal/classify"
	"mediadex/internal/enrich"
	"mediadex/internal/logging"
	"mediadex/internal/records"
	"mediadex/internal/services"
)

type screenBuilder struct {
	lookup enrich.Lookup
	logger *slog.Logger
}

func (b *screenBuilder) enrich(ctx context.Context, item *classify.Item, rec *records.Record, warn func(error)) {
	if rec.Kind == records.KindShow {
		if ep, ok := enrich.ParseEpisode(item.Filename()); ok {
			rec.Season = ep.Season
			rec.Episode = ep.Episode
		}
	}
	if b.lookup == nil {
		return
	}

	preferred := enrich.KindMovie
	if rec.Kind == records.KindShow {
		preferred = enrich.KindTV
	}

	queries := enrich.Queries(item.General())
	logger := logging.WithContext(ctx, b.logger)
	details, err := b.match(ctx, queries, preferred)
	if err != nil {
		warn(err)
		logger.Info("enrichment miss",
			logging.Error(err),
			logging.String(logging.FieldEventType, services.Kind(err)),
			logging.Strings("queries", queries),
		)
		return
	}

	rec.Title = details.Title
	rec.Year = details.Year
	rec.Genre = details.Genres
	rec.Cast = details.Cast
	rec.Director = details.Director
	rec.Writer = details.Writer
	rec.TMDBID = details.ID
	logger.Info("enrichment matched",
		logging.Int64("tmdb_id", details.ID),
		logging.String("title", details.Title),
		logging.Int("year", details.Year),
	)
}

// match runs queries in order, stopping at the first one with candidates.
func (b *screenBuilder) match(ctx context.Context, queries []string, preferred string) (*enrich.Details, error) {
	miss := &services.EnrichmentMissError{Queries: queries}
	if len(queries) == 0 {
		miss.Reason = "no title or file name to search"
		return nil, miss
	}

	var candidates []enrich.Candidate
	for _, query := range queries {
		found, err := b.lookup.Search(ctx, query)
		if err != nil {
			miss.Err = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(found) > 0 {
			candidates = found
			break
		}
	}
	if len(candidates) == 0 {
		miss.Reason = "no candidates"
		return nil, miss
	}

	chosen, ok := enrich.Choose(candidates, preferred)
	if !ok {
		miss.Reason = "no " + preferred + " candidate among multiple matches"
		miss.Err = nil
		return nil, miss
	}
	details, err := b.lookup.Details(ctx, chosen)
	if err != nil {
		miss.Reason = "details lookup failed"
		miss.Err = err
		return nil, miss
	}
	return details, nil
}
