package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"mediadex/internal/classify"
	"mediadex/internal/enrich"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/reconcile"
	"mediadex/internal/records"
	"mediadex/internal/services"
	"mediadex/internal/testsupport"
	"mediadex/internal/tracks"
)

type countingStore struct {
	index.Store
	saves   int
	saveErr error
}

func (s *countingStore) Save(ctx context.Context, rec *records.Record) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, rec)
}

func newStore(t *testing.T) *countingStore {
	t.Helper()
	return &countingStore{Store: testsupport.MemoryStore(t)}
}

type fakeLookup struct {
	byQuery map[string][]enrich.Candidate
	details map[int64]*enrich.Details
	queries []string
	err     error
}

func (f *fakeLookup) Search(_ context.Context, query string) ([]enrich.Candidate, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[query], nil
}

func (f *fakeLookup) Details(_ context.Context, c enrich.Candidate) (*enrich.Details, error) {
	if d, ok := f.details[c.ID]; ok {
		return d, nil
	}
	return nil, errors.New("details unavailable")
}

type fakeTags struct {
	tags *enrich.Tags
	err  error
}

func (f fakeTags) Read(string) (*enrich.Tags, error) { return f.tags, f.err }

func movieItem(t *testing.T, filename string, general map[string]string) *classify.Item {
	t.Helper()
	raws := testsupport.Tracks("/library/movies/"+filename, 1, 1, 0)
	for k, v := range general {
		raws[0][k] = v
	}
	return testsupport.Item(t, raws, "/library/movies", filename)
}

func TestIndexSongInserted(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := testsupport.Item(t, testsupport.Tracks("/library/music/a.mp3", 1, 0, 0), "/library/music", "a.mp3")

	if item.DexType() != classify.DexSong {
		t.Fatalf("expected song, got %s", item.DexType())
	}
	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Outcome != reconcile.OutcomeInserted || result.Kind != records.KindSong {
		t.Fatalf("expected inserted song, got %+v", result)
	}

	stored, err := store.Query(context.Background(), records.KindSong, "/library/music", "a.mp3")
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored song, got %d (%v)", len(stored), err)
	}
	if !records.Equal(stored[0], result.Record) {
		t.Fatalf("stored record differs from built record:\n%+v\n%+v", stored[0], result.Record)
	}
	if stored[0].StreamCounts.AudioStreamCount != 1 || len(stored[0].AudioStreams) != 1 {
		t.Fatalf("unexpected streams %+v", stored[0].StreamCounts)
	}
}

func TestIndexMultipleAudioWithoutVideoSkipped(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := testsupport.Item(t, testsupport.Tracks("/library/book.m4b", 2, 0, 0), "/library", "book.m4b")

	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Outcome != reconcile.OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", result.Outcome)
	}
	if store.saves != 0 {
		t.Fatalf("expected no writes, got %d", store.saves)
	}
}

func TestIndexTwiceIsUnchanged(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := movieItem(t, "Heat.mkv", nil)

	first, err := r.Index(context.Background(), item)
	if err != nil || first.Outcome != reconcile.OutcomeInserted {
		t.Fatalf("first Index = %+v, %v", first, err)
	}
	second, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("second Index: %v", err)
	}
	if second.Outcome != reconcile.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", second.Outcome)
	}
	if store.saves != 1 {
		t.Fatalf("expected exactly one write, got %d", store.saves)
	}
	if second.Record.ID != first.Record.ID {
		t.Fatalf("expected existing ID %q, got %q", first.Record.ID, second.Record.ID)
	}
}

func TestReconcileAgainstIdenticalRecordIsUnchanged(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := movieItem(t, "Alien.mkv", nil)

	built, err := r.Reconcile(context.Background(), item, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	existing, err := r.Resolve(context.Background(), records.KindMovie, item)
	if err != nil || existing == nil {
		t.Fatalf("Resolve = %v, %v", existing, err)
	}
	result, err := r.Reconcile(context.Background(), item, existing)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != reconcile.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", result.Outcome)
	}
	if result.Record.ID != built.Record.ID {
		t.Fatalf("expected ID %q, got %q", built.Record.ID, result.Record.ID)
	}
}

func TestReconcileUpdateKeepsDocumentID(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := movieItem(t, "Ronin.mkv", nil)

	existing := records.New(records.KindMovie)
	existing.Dirname = "/library/movies"
	existing.Filename = "Ronin.mkv"
	existing.Title = "stale"
	testsupport.SaveRecord(t, store.Store, existing)

	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Outcome != reconcile.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", result.Outcome)
	}
	if result.Record.ID != existing.ID {
		t.Fatalf("expected update under %q, got %q", existing.ID, result.Record.ID)
	}
	count, err := store.Count(context.Background(), records.KindMovie)
	if err != nil || count != 1 {
		t.Fatalf("expected one movie document, got %d (%v)", count, err)
	}
}

func TestIndexDuplicateRecordsConflict(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	item := movieItem(t, "Heat.mkv", nil)

	for range 2 {
		rec := records.New(records.KindMovie)
		rec.Dirname = "/library/movies"
		rec.Filename = "Heat.mkv"
		testsupport.SaveRecord(t, store.Store, rec)
	}
	store.saves = 0

	result, err := r.Index(context.Background(), item)
	if !errors.Is(err, services.ErrDuplicateRecord) {
		t.Fatalf("expected DuplicateRecordError, got %v", err)
	}
	var dup *services.DuplicateRecordError
	if !errors.As(err, &dup) || dup.Count != 2 {
		t.Fatalf("expected duplicate count 2, got %v", err)
	}
	if result.Outcome != reconcile.OutcomeConflict || !result.Outcome.Failure() {
		t.Fatalf("expected conflict outcome, got %s", result.Outcome)
	}
	if store.saves != 0 {
		t.Fatalf("expected no writes on conflict, got %d", store.saves)
	}
}

func TestReconcileStorageFailure(t *testing.T) {
	store := newStore(t)
	store.saveErr = errors.New("disk full")
	r := reconcile.New(store, logging.NewNop())

	result, err := r.Reconcile(context.Background(), movieItem(t, "Heat.mkv", nil), nil)
	if !errors.Is(err, services.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if !services.ItemFatal(err) {
		t.Fatal("storage failures abort the item")
	}
	if result.Outcome != reconcile.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome)
	}
}

func TestReconcileFieldErrorsAreWarnings(t *testing.T) {
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop())
	raws := testsupport.Tracks("/library/movies/Bad.mkv", 1, 1, 0)
	raws[2][tracks.KeyHeight] = "tall"
	item := testsupport.Item(t, raws, "/library/movies", "Bad.mkv")

	result, err := r.Reconcile(context.Background(), item, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Outcome != reconcile.OutcomeInserted {
		t.Fatalf("expected inserted, got %s", result.Outcome)
	}
	if len(result.Warnings) != 1 || !errors.Is(result.Warnings[0], services.ErrFieldExtraction) {
		t.Fatalf("expected one field extraction warning, got %v", result.Warnings)
	}
	video := result.Record.VideoStreams[0]
	if video.Height != nil || video.Resolution != "" {
		t.Fatalf("expected height and resolution to be omitted, got %+v", video)
	}
	if video.Width == nil || *video.Width != 1920 || video.Codec != "AVC" {
		t.Fatalf("expected other fields populated, got %+v", video)
	}
}

func TestScreenEnrichmentPrefersMovieCandidate(t *testing.T) {
	lookup := &fakeLookup{
		byQuery: map[string][]enrich.Candidate{
			"Heat": {
				{ID: 1, Kind: enrich.KindTV, Title: "Heat"},
				{ID: 2, Kind: enrich.KindMovie, Title: "Heat"},
				{ID: 3, Kind: enrich.KindTV, Title: "Heat Wave"},
			},
		},
		details: map[int64]*enrich.Details{
			2: {ID: 2, Title: "Heat", Year: 1995, Genres: []string{"Crime"}, Cast: []string{"Al Pacino"}, Director: []string{"Michael Mann"}},
		},
	}
	r := reconcile.New(newStore(t), logging.NewNop(), reconcile.WithLookup(lookup))

	result, err := r.Index(context.Background(), movieItem(t, "Heat.mkv", map[string]string{tracks.KeyMovieName: "Heat"}))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	rec := result.Record
	if rec.TMDBID != 2 || rec.Title != "Heat" || rec.Year != 1995 {
		t.Fatalf("expected movie candidate details, got %+v", rec)
	}
	if len(rec.Cast) != 1 || len(rec.Director) != 1 || len(rec.Genre) != 1 {
		t.Fatalf("expected credits copied, got %+v", rec.ScreenInfo)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}
}

func TestScreenEnrichmentMissIsNotFatal(t *testing.T) {
	lookup := &fakeLookup{}
	r := reconcile.New(newStore(t), logging.NewNop(), reconcile.WithLookup(lookup))

	result, err := r.Index(context.Background(), movieItem(t, "Unknown.Film.mkv", map[string]string{tracks.KeyTitle: "Unknown Film"}))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Outcome != reconcile.OutcomeInserted {
		t.Fatalf("expected inserted, got %s", result.Outcome)
	}
	if len(result.Warnings) != 1 || !errors.Is(result.Warnings[0], services.ErrEnrichmentMiss) {
		t.Fatalf("expected enrichment miss warning, got %v", result.Warnings)
	}
	rec := result.Record
	if rec.Title != "" || rec.Year != 0 || len(rec.Cast) != 0 || len(rec.Director) != 0 || len(rec.Genre) != 0 {
		t.Fatalf("expected enrichment fields unset, got %+v", rec)
	}
	if len(lookup.queries) != 1 || lookup.queries[0] != "Unknown Film" {
		t.Fatalf("expected deduplicated queries, got %v", lookup.queries)
	}
}

func TestScreenEnrichmentFallsThroughQueries(t *testing.T) {
	lookup := &fakeLookup{
		byQuery: map[string][]enrich.Candidate{
			"The Thing 1982": {{ID: 9, Kind: enrich.KindMovie, Title: "The Thing"}},
		},
		details: map[int64]*enrich.Details{9: {ID: 9, Title: "The Thing", Year: 1982}},
	}
	r := reconcile.New(newStore(t), logging.NewNop(), reconcile.WithLookup(lookup))
	item := movieItem(t, "The.Thing.1982.mkv", map[string]string{
		tracks.KeyTitle:    "thing_final_v2",
		tracks.KeyFileName: "The.Thing.1982",
	})

	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Record.TMDBID != 9 {
		t.Fatalf("expected match from file name query, got %+v (queries %v)", result.Record, lookup.queries)
	}
	if len(lookup.queries) != 2 {
		t.Fatalf("expected two queries, got %v", lookup.queries)
	}
}

func TestEpisodeFileBecomesShow(t *testing.T) {
	lookup := &fakeLookup{
		byQuery: map[string][]enrich.Candidate{
			"Show S01E02": {
				{ID: 5, Kind: enrich.KindMovie, Title: "Show"},
				{ID: 6, Kind: enrich.KindTV, Title: "Show"},
			},
		},
		details: map[int64]*enrich.Details{6: {ID: 6, Title: "Show", Year: 2010}},
	}
	store := newStore(t)
	r := reconcile.New(store, logging.NewNop(), reconcile.WithLookup(lookup))
	item := movieItem(t, "Show.S01E02.mkv", map[string]string{tracks.KeyFileName: "Show.S01E02"})

	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if result.Kind != records.KindShow {
		t.Fatalf("expected show, got %s", result.Kind)
	}
	rec := result.Record
	if rec.Season != 1 || rec.Episode != 2 || rec.TMDBID != 6 {
		t.Fatalf("unexpected show record %+v", rec.ScreenInfo)
	}
	if n, _ := store.Count(context.Background(), records.KindMovie); n != 0 {
		t.Fatalf("expected no movie documents, got %d", n)
	}
	if n, _ := store.Count(context.Background(), records.KindShow); n != 1 {
		t.Fatalf("expected one show document, got %d", n)
	}
}

func TestSongTagEnrichment(t *testing.T) {
	tags := &enrich.Tags{
		Title:  "So What",
		Artist: "Miles Davis",
		Album:  "Kind of Blue",
		Genre:  "Jazz",
		Year:   1959,
		Track:  1,
		IDs:    records.IDInfo{AcoustIDID: "abc"},

		Arranger:    "Gil Evans",
		BPM:         136,
		Compilation: true,
		Conductor:   "Teo Macero",
		Mood:        "Cool",
		Performer:   "Bill Evans",
	}
	r := reconcile.New(newStore(t), logging.NewNop(), reconcile.WithTagReader(fakeTags{tags: tags}))
	item := testsupport.Item(t, testsupport.Tracks("/library/music/so-what.mp3", 1, 0, 0), "/library/music", "so-what.mp3")

	result, err := r.Index(context.Background(), item)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	rec := result.Record
	if rec.Title != "So What" || rec.Artist != "Miles Davis" || rec.Year != 1959 || rec.TrackNumber != 1 {
		t.Fatalf("unexpected song record %+v / %+v", rec, rec.SongInfo)
	}
	if rec.IDInfo == nil || rec.IDInfo.AcoustIDID != "abc" {
		t.Fatalf("expected id info, got %+v", rec.IDInfo)
	}
	song := rec.SongInfo
	if song.Arranger != "Gil Evans" || song.Conductor != "Teo Macero" || song.Performer != "Bill Evans" {
		t.Fatalf("unexpected credits %+v", song)
	}
	if song.BPM != 136 || !song.Compilation || song.Mood != "Cool" {
		t.Fatalf("unexpected bpm/compilation/mood %+v", song)
	}
}

func TestSongTagFailures(t *testing.T) {
	item := func(t *testing.T) *classify.Item {
		return testsupport.Item(t, testsupport.Tracks("/library/music/x.mp3", 1, 0, 0), "/library/music", "x.mp3")
	}

	r := reconcile.New(newStore(t), logging.NewNop(), reconcile.WithTagReader(fakeTags{err: enrich.ErrNoTag}))
	result, err := r.Index(context.Background(), item(t))
	if err != nil || result.Outcome != reconcile.OutcomeInserted || len(result.Warnings) != 0 {
		t.Fatalf("missing tags should be silent, got %+v, %v", result, err)
	}

	corrupt := &services.TagContainerError{Path: "/library/music/x.mp3", Err: errors.New("bad frame")}
	r = reconcile.New(newStore(t), logging.NewNop(), reconcile.WithTagReader(fakeTags{err: corrupt}))
	result, err = r.Index(context.Background(), item(t))
	if err != nil || result.Outcome != reconcile.OutcomeInserted {
		t.Fatalf("corrupt tags must not fail the item, got %+v, %v", result, err)
	}
	if len(result.Warnings) != 1 || !errors.Is(result.Warnings[0], services.ErrTagContainer) {
		t.Fatalf("expected tag container warning, got %v", result.Warnings)
	}
}
