package records_test

import (
	"encoding/json"
	"strings"
	"testing"

	"mediadex/internal/records"
	"mediadex/internal/tracks"
)

func ptr[T any](v T) *T { return &v }

func sampleMovie() *records.Record {
	rec := records.New(records.KindMovie)
	rec.Dirname = "/media/movies"
	rec.Filename = "Heat (1995)/Heat.mkv"
	rec.Size = ptr(int64(4_000_000_000))
	rec.Title = "Heat"
	rec.Year = 1995
	rec.Genre = []string{"Crime", "Drama"}
	rec.AudioStreams = []tracks.AudioStream{{Codec: "AC-3", Channels: ptr(int64(6)), Duration: ptr(10200.5)}}
	rec.VideoStreams = []tracks.VideoStream{{Codec: "AVC", Height: ptr(int64(1080)), Width: ptr(int64(1920)), Resolution: "1080x1920"}}
	rec.StreamCounts = tracks.StreamCounts{AudioStreamCount: 1, VideoStreamCount: 1}
	rec.Cast = []string{"Al Pacino", "Robert De Niro"}
	rec.Director = []string{"Michael Mann"}
	return rec
}

func TestPartitions(t *testing.T) {
	cases := map[records.Kind]string{
		records.KindSong:  "music",
		records.KindMovie: "movies",
		records.KindShow:  "series",
	}
	for kind, want := range cases {
		if kind.Partition() != want {
			t.Fatalf("%s: expected partition %q, got %q", kind, want, kind.Partition())
		}
		parsed, err := records.ParseKind(want)
		if err != nil || parsed != kind {
			t.Fatalf("ParseKind(%q) = %q, %v", want, parsed, err)
		}
	}
	if _, err := records.ParseKind("podcast"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestDocumentIsFlat(t *testing.T) {
	data, err := records.Marshal(sampleMovie())
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	for _, key := range []string{"kind", "dirname", "filename", "cast", "director", "stream_counts", "audio_streams"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("expected top-level key %q in %s", key, data)
		}
	}
	for _, key := range []string{"ScreenInfo", "artist", "writer", "text_streams", "id"} {
		if _, ok := doc[key]; ok {
			t.Fatalf("unexpected key %q in %s", key, data)
		}
	}
}

func TestRoundTripIsStructurallyEqual(t *testing.T) {
	song := records.New(records.KindSong)
	song.Dirname = "/media/music"
	song.Filename = "Artist/01 Track.flac"
	song.Title = "Track"
	song.Year = 2001
	song.Genre = []string{"Rock"}
	song.Artist = "Artist"
	song.TrackNumber = 1
	song.IDInfo = &records.IDInfo{AcoustIDID: "abc"}
	song.AudioStreams = []tracks.AudioStream{{Codec: "FLAC", SampleRate: ptr(int64(44100))}}
	song.StreamCounts = tracks.StreamCounts{AudioStreamCount: 1}

	for _, rec := range []*records.Record{sampleMovie(), song} {
		data, err := records.Marshal(rec)
		if err != nil {
			t.Fatalf("Marshal returned error: %v", err)
		}
		back, err := records.Unmarshal("doc-1", data)
		if err != nil {
			t.Fatalf("Unmarshal returned error: %v", err)
		}
		if back.ID != "doc-1" {
			t.Fatalf("expected id attached, got %q", back.ID)
		}
		if !records.Equal(rec, back) {
			t.Fatalf("round trip changed record:\n%+v\n%+v", rec, back)
		}
	}
}

func TestEqualIgnoresIDAndEmptyPayload(t *testing.T) {
	a := sampleMovie()
	b := sampleMovie()
	b.ID = "other"
	if !records.Equal(a, b) {
		t.Fatal("expected equal records when only ID differs")
	}

	bare := records.New(records.KindMovie)
	bare.Dirname, bare.Filename = "/m", "a.mkv"
	noPayload := &records.Record{Kind: records.KindMovie, Dirname: "/m", Filename: "a.mkv", Genre: []string{}}
	if !records.Equal(bare, noPayload) {
		t.Fatal("expected empty payload to equal absent payload")
	}

	b.AudioStreams[0].Channels = ptr(int64(2))
	if records.Equal(a, b) {
		t.Fatal("expected stream difference to be detected")
	}
}

func TestValidate(t *testing.T) {
	rec := sampleMovie()
	rec.Filename = ""
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for missing filename")
	}

	rec = sampleMovie()
	rec.Kind = "podcast"
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for invalid kind")
	}

	rec = sampleMovie()
	rec.SongInfo = &records.SongInfo{Artist: "x"}
	if err := rec.Validate(); err == nil || !strings.Contains(err.Error(), "song fields") {
		t.Fatalf("expected payload mismatch error, got %v", err)
	}
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	if _, err := records.Unmarshal("x", []byte(`{"kind":"podcast","dirname":"/a","filename":"b"}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
