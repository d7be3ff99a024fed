package scanner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/unicode/norm"

	"mediadex/internal/classify"
	"mediadex/internal/logging"
	"mediadex/internal/metrics"
	"mediadex/internal/reconcile"
	"mediadex/internal/records"
	"mediadex/internal/scanner"
	"mediadex/internal/services"
	"mediadex/internal/testsupport"
	"mediadex/internal/tracks"
)

// nameProber fabricates tracks from the file name: *.mp3 is a song, *.mka
// carries two audio tracks, broken.* fails, anything else is a movie.
type nameProber struct{}

func (nameProber) Probe(_ context.Context, path string) ([]tracks.Raw, error) {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "broken"):
		return nil, errors.New("invalid data found when processing input")
	case strings.HasSuffix(base, ".mp3"):
		return testsupport.Tracks(path, 1, 0, 0), nil
	case strings.HasSuffix(base, ".mka"):
		return testsupport.Tracks(path, 2, 0, 0), nil
	default:
		return testsupport.Tracks(path, 1, 1, 0), nil
	}
}

func library(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(root, name), 16)
	}
	return root
}

func TestRunTalliesOutcomes(t *testing.T) {
	root := library(t, "music/song.mp3", "movies/Heat.mkv", "audiobooks/multi.mka", "broken.mkv", "notes.txt")
	store := testsupport.MemoryStore(t)
	recorder := metrics.New()
	s := scanner.New(nameProber{}, reconcile.New(store, logging.NewNop()), recorder, logging.NewNop())

	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Files != 4 {
		t.Fatalf("expected 4 media files, got %d", summary.Files)
	}
	if summary.Outcomes[reconcile.OutcomeInserted] != 2 ||
		summary.Outcomes[reconcile.OutcomeSkipped] != 1 ||
		summary.Outcomes[reconcile.OutcomeFailed] != 1 {
		t.Fatalf("unexpected outcomes %v", summary.Outcomes)
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("expected exit code 1 after a failure, got %d", summary.ExitCode())
	}
	if len(summary.Failures) != 1 || filepath.Base(summary.Failures[0].Path) != "broken.mkv" {
		t.Fatalf("unexpected failures %+v", summary.Failures)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}

	songs, err := store.Query(context.Background(), records.KindSong, root, "music/song.mp3")
	if err != nil || len(songs) != 1 {
		t.Fatalf("expected song keyed by root and relative path, got %d (%v)", len(songs), err)
	}

	second, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Outcomes[reconcile.OutcomeUnchanged] != 2 {
		t.Fatalf("expected unchanged on rescan, got %v", second.Outcomes)
	}
}

func TestRunCleanExitCode(t *testing.T) {
	root := library(t, "a.mp3")
	s := scanner.New(nameProber{}, reconcile.New(testsupport.MemoryStore(t), logging.NewNop()), nil, logging.NewNop())

	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ExitCode() != 0 {
		t.Fatalf("expected exit code 0, got %d (%v)", summary.ExitCode(), summary.Outcomes)
	}
}

func TestRunFileRootKeyedByParent(t *testing.T) {
	root := library(t, "music/song.mp3")
	file := filepath.Join(root, "music", "song.mp3")
	store := testsupport.MemoryStore(t)
	s := scanner.New(nameProber{}, reconcile.New(store, logging.NewNop()), nil, logging.NewNop())

	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{file}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Outcomes[reconcile.OutcomeInserted] != 1 || summary.ExitCode() != 0 {
		t.Fatalf("expected a clean insert, got %v %+v", summary.Outcomes, summary.Failures)
	}
	songs, err := store.Query(context.Background(), records.KindSong, filepath.Join(root, "music"), "song.mp3")
	if err != nil || len(songs) != 1 {
		t.Fatalf("expected song keyed by its parent directory, got %d (%v)", len(songs), err)
	}
}

// errIndexer returns err for every item without touching a store.
type errIndexer struct{ err error }

func (i errIndexer) Index(context.Context, *classify.Item) (reconcile.Result, error) {
	return reconcile.Result{}, i.err
}

func TestRunSeparatesWarningsFromFailures(t *testing.T) {
	root := library(t, "a.mp3")

	miss := &services.EnrichmentMissError{Reason: "no match", Queries: []string{"artist:x"}}
	summary, err := scanner.New(nameProber{}, errIndexer{err: miss}, nil, logging.NewNop()).
		Run(context.Background(), scanner.Options{Roots: []string{root}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Warnings != 1 || summary.Outcomes[reconcile.OutcomeSkipped] != 1 {
		t.Fatalf("expected enrichment miss as a warning, got %d warnings %v", summary.Warnings, summary.Outcomes)
	}
	if summary.ExitCode() != 0 || len(summary.Failures) != 0 {
		t.Fatalf("expected clean exit, got %d %+v", summary.ExitCode(), summary.Failures)
	}

	storage := services.Storage("save", errors.New("database is locked"))
	summary, err = scanner.New(nameProber{}, errIndexer{err: storage}, nil, logging.NewNop()).
		Run(context.Background(), scanner.Options{Roots: []string{root}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Outcomes[reconcile.OutcomeFailed] != 1 || summary.ExitCode() != 1 {
		t.Fatalf("expected storage error to fail the item, got %v", summary.Outcomes)
	}
	if len(summary.Failures) != 1 || !errors.Is(summary.Failures[0].Err, services.ErrStorageUnavailable) {
		t.Fatalf("unexpected failures %+v", summary.Failures)
	}
}

func TestRunWithWorkers(t *testing.T) {
	names := make([]string, 0, 40)
	for i := range 40 {
		names = append(names, fmt.Sprintf("movies/film-%02d.mkv", i))
	}
	root := library(t, names...)
	store := testsupport.MemoryStore(t)
	s := scanner.New(nameProber{}, reconcile.New(store, logging.NewNop()), nil, logging.NewNop())

	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}, Workers: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Outcomes[reconcile.OutcomeInserted] != 40 {
		t.Fatalf("expected 40 inserts, got %v", summary.Outcomes)
	}
	if n, _ := store.Count(context.Background(), records.KindMovie); n != 40 {
		t.Fatalf("expected 40 movie documents, got %d", n)
	}
}

func TestRunRecentWindow(t *testing.T) {
	root := library(t, "old.mp3", "new.mp3")
	testsupport.Age(t, filepath.Join(root, "old.mp3"), 48*time.Hour)
	s := scanner.New(nameProber{}, reconcile.New(testsupport.MemoryStore(t), logging.NewNop()), nil, logging.NewNop())

	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}, Recent: 24 * time.Hour})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Files != 1 {
		t.Fatalf("expected only the recent file, got %d", summary.Files)
	}
}

func TestRunDryRunWritesYAMLOnly(t *testing.T) {
	root := library(t, "song.mp3", "broken.mkv")
	store := testsupport.MemoryStore(t)
	s := scanner.New(nameProber{}, reconcile.New(store, logging.NewNop()), nil, logging.NewNop())

	var out bytes.Buffer
	summary, err := s.Run(context.Background(), scanner.Options{Roots: []string{root}, DryRun: &out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"dex_type: song", "track_type: General", "error: invalid data"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in dump:\n%s", want, text)
		}
	}
	if summary.Probed != 1 {
		t.Fatalf("expected 1 probed file, got %d", summary.Probed)
	}
	if n, _ := store.Count(context.Background(), records.KindSong); n != 0 {
		t.Fatalf("dry run must not index, found %d songs", n)
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "mediadex.lock")
	first, err := scanner.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := scanner.AcquireLock(path); !errors.Is(err, scanner.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := scanner.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = again.Release()
}

func TestFFprobeRetriesAlternateEncoding(t *testing.T) {
	dir := t.TempDir()
	composed := filepath.Join(dir, "Beyoncé.flac")
	testsupport.WriteFile(t, composed, 8)

	script := filepath.Join(dir, "fake-ffprobe")
	body := "#!/bin/sh\nfor last; do :; done\nprintf '{\"streams\":[{\"codec_type\":\"audio\",\"codec_name\":\"flac\"}],\"format\":{\"filename\":\"%s\"}}' \"$last\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	raws, err := scanner.FFprobe{Binary: script}.Probe(context.Background(), norm.NFD.String(composed))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected general and audio tracks, got %d", len(raws))
	}
	if got, _ := raws[0].String(tracks.KeyCompleteName); got != composed {
		t.Fatalf("expected probe of NFC path %q, got %q", composed, got)
	}
}
