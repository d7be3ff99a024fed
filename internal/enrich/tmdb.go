package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"mediadex/internal/config"
	"mediadex/internal/identification/tmdb"
	"mediadex/internal/logging"
)

const maxCast = 20

// TMDBLookup implements Lookup over the TMDB API. Requests are paced by a
// token bucket and pass through a circuit breaker that opens after a run of
// consecutive failures.
type TMDBLookup struct {
	client  tmdb.Searcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

var _ Lookup = (*TMDBLookup)(nil)

// NewTMDBLookup builds a lookup from the TMDB config section. client may be
// nil, in which case an HTTP client is created from cfg.
func NewTMDBLookup(cfg config.TMDB, client tmdb.Searcher, logger *slog.Logger) (*TMDBLookup, error) {
	if client == nil {
		c, err := tmdb.New(cfg.APIKey, cfg.BaseURL, cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("tmdb client: %w", err)
		}
		client = c
	}
	logger = logging.NewComponentLogger(logger, "tmdb")

	defaults := config.Default().TMDB
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaults.RequestsPerSecond
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = defaults.BreakerFailures
	}
	timeout := time.Duration(cfg.BreakerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(defaults.BreakerTimeoutSeconds) * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation and client errors such as 404 say nothing
			// about TMDB health.
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var status *tmdb.StatusError
			if errors.As(err, &status) {
				return !status.Temporary()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldEventType, "breaker_state_change"),
			)
		},
	})

	return &TMDBLookup{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Search runs a TMDB multi search and maps movie and TV hits to candidates.
func (l *TMDBLookup) Search(ctx context.Context, query string) ([]Candidate, error) {
	resp, err := execute(ctx, l, func() (*tmdb.Response, error) {
		return l.client.SearchMulti(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", query, err)
	}
	candidates := make([]Candidate, 0, len(resp.Results))
	for _, result := range resp.Results {
		candidates = append(candidates, Candidate{
			ID:    result.ID,
			Kind:  result.MediaType,
			Title: result.DisplayTitle(),
			Year:  result.Year(),
		})
	}
	l.logger.Debug("tmdb search",
		logging.String("query", query),
		logging.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// Details fetches title, year, genres and credits for candidate.
func (l *TMDBLookup) Details(ctx context.Context, candidate Candidate) (*Details, error) {
	var fetch func() (*tmdb.Details, error)
	switch candidate.Kind {
	case KindMovie:
		fetch = func() (*tmdb.Details, error) { return l.client.GetMovieDetails(ctx, candidate.ID) }
	case KindTV:
		fetch = func() (*tmdb.Details, error) { return l.client.GetTVDetails(ctx, candidate.ID) }
	default:
		return nil, fmt.Errorf("tmdb details: unsupported candidate kind %q", candidate.Kind)
	}
	payload, err := execute(ctx, l, fetch)
	if err != nil {
		return nil, fmt.Errorf("tmdb details %s/%d: %w", candidate.Kind, candidate.ID, err)
	}
	return detailsFrom(payload), nil
}

func execute[T any](ctx context.Context, l *TMDBLookup, fn func() (*T, error)) (*T, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := l.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok || typed == nil {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func detailsFrom(payload *tmdb.Details) *Details {
	out := &Details{
		ID:     payload.ID,
		Title:  payload.DisplayTitle(),
		Year:   payload.Year(),
		Genres: payload.GenreNames(),
	}

	cast := append([]tmdb.CastMember(nil), payload.Credits.Cast...)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	for _, member := range cast {
		if len(out.Cast) == maxCast {
			break
		}
		out.Cast = appendUnique(out.Cast, member.Name)
	}

	for _, member := range payload.CreatedBy {
		out.Director = appendUnique(out.Director, member.Name)
	}
	for _, member := range payload.Credits.Crew {
		switch {
		case member.Job == "Director":
			out.Director = appendUnique(out.Director, member.Name)
		case strings.EqualFold(member.Department, "Writing"):
			out.Writer = appendUnique(out.Writer, member.Name)
		}
	}
	return out
}

func appendUnique(values []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
