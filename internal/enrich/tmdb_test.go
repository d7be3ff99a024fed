package enrich

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"mediadex/internal/config"
	"mediadex/internal/identification/tmdb"
	"mediadex/internal/logging"
)

type fakeSearcher struct {
	results   []tmdb.Result
	details   map[int64]*tmdb.Details
	searchErr error
	searches  int
}

func (f *fakeSearcher) SearchMulti(_ context.Context, _ string) (*tmdb.Response, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.results}, nil
}

func (f *fakeSearcher) GetMovieDetails(_ context.Context, id int64) (*tmdb.Details, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeSearcher) GetTVDetails(ctx context.Context, id int64) (*tmdb.Details, error) {
	return f.GetMovieDetails(ctx, id)
}

func testTMDBConfig() config.TMDB {
	cfg := config.Default().TMDB
	cfg.RequestsPerSecond = 1000
	cfg.BreakerFailures = 2
	return cfg
}

func TestTMDBLookupSearchMapsCandidates(t *testing.T) {
	searcher := &fakeSearcher{results: []tmdb.Result{
		{ID: 949, Title: "Heat", MediaType: tmdb.MediaMovie, ReleaseDate: "1995-12-15"},
		{ID: 7, Name: "Heat", MediaType: tmdb.MediaTV, FirstAirDate: "2004-02-01"},
	}}
	lookup, err := NewTMDBLookup(testTMDBConfig(), searcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTMDBLookup: %v", err)
	}
	candidates, err := lookup.Search(context.Background(), "Heat")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []Candidate{
		{ID: 949, Kind: KindMovie, Title: "Heat", Year: 1995},
		{ID: 7, Kind: KindTV, Title: "Heat", Year: 2004},
	}
	if len(candidates) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(candidates))
	}
	for i := range want {
		if candidates[i] != want[i] {
			t.Fatalf("candidate %d = %+v, want %+v", i, candidates[i], want[i])
		}
	}
}

func TestTMDBLookupDetailsMapsCredits(t *testing.T) {
	searcher := &fakeSearcher{details: map[int64]*tmdb.Details{
		949: {
			Result: tmdb.Result{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15"},
			Genres: []tmdb.Genre{{Name: "Action"}, {Name: "Crime"}},
			Credits: tmdb.Credits{
				Cast: []tmdb.CastMember{{Name: "Robert De Niro", Order: 1}, {Name: "Al Pacino", Order: 0}},
				Crew: []tmdb.CrewMember{
					{Name: "Michael Mann", Job: "Director", Department: "Directing"},
					{Name: "Michael Mann", Job: "Screenplay", Department: "Writing"},
					{Name: "Dante Spinotti", Job: "Director of Photography", Department: "Camera"},
				},
			},
		},
	}}
	lookup, err := NewTMDBLookup(testTMDBConfig(), searcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTMDBLookup: %v", err)
	}
	details, err := lookup.Details(context.Background(), Candidate{ID: 949, Kind: KindMovie})
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Title != "Heat" || details.Year != 1995 {
		t.Fatalf("unexpected details %+v", details)
	}
	if len(details.Cast) != 2 || details.Cast[0] != "Al Pacino" {
		t.Fatalf("expected cast ordered by billing, got %v", details.Cast)
	}
	if len(details.Director) != 1 || details.Director[0] != "Michael Mann" {
		t.Fatalf("unexpected directors %v", details.Director)
	}
	if len(details.Writer) != 1 {
		t.Fatalf("unexpected writers %v", details.Writer)
	}
	if len(details.Genres) != 2 {
		t.Fatalf("unexpected genres %v", details.Genres)
	}
}

func TestTMDBLookupDetailsRejectsUnknownKind(t *testing.T) {
	lookup, err := NewTMDBLookup(testTMDBConfig(), &fakeSearcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTMDBLookup: %v", err)
	}
	if _, err := lookup.Details(context.Background(), Candidate{ID: 1, Kind: "person"}); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestTMDBLookupBreakerOpensAfterFailures(t *testing.T) {
	searcher := &fakeSearcher{searchErr: errors.New("connection refused")}
	lookup, err := NewTMDBLookup(testTMDBConfig(), searcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTMDBLookup: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := lookup.Search(context.Background(), "Heat"); err == nil {
			t.Fatal("expected search failure")
		}
	}
	_, err = lookup.Search(context.Background(), "Heat")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if searcher.searches != 2 {
		t.Fatalf("expected open breaker to short-circuit, got %d calls", searcher.searches)
	}
}

func TestTMDBLookupBreakerIgnoresClientErrors(t *testing.T) {
	searcher := &fakeSearcher{searchErr: &tmdb.StatusError{Label: "search", StatusCode: 404}}
	lookup, err := NewTMDBLookup(testTMDBConfig(), searcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewTMDBLookup: %v", err)
	}
	for i := 0; i < 4; i++ {
		_, err := lookup.Search(context.Background(), "Heat")
		var status *tmdb.StatusError
		if !errors.As(err, &status) {
			t.Fatalf("attempt %d: expected status error, got %v", i, err)
		}
	}
	if searcher.searches != 4 {
		t.Fatalf("expected every 404 to reach TMDB, got %d calls", searcher.searches)
	}

	searcher.searchErr = &tmdb.StatusError{Label: "search", StatusCode: 503}
	for i := 0; i < 2; i++ {
		_, _ = lookup.Search(context.Background(), "Heat")
	}
	if _, err := lookup.Search(context.Background(), "Heat"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected 503s to open the breaker, got %v", err)
	}
}

func TestNewTMDBLookupRequiresKeyWithoutClient(t *testing.T) {
	cfg := testTMDBConfig()
	cfg.APIKey = ""
	if _, err := NewTMDBLookup(cfg, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error when api key missing")
	}
}
