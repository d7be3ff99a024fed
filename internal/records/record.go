package records

import (
	"fmt"
	"reflect"
	"strings"

	"mediadex/internal/tracks"
)

// Kind discriminates record variants.
type Kind string

const (
	KindSong  Kind = "song"
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Kinds lists every kind in purge order.
func Kinds() []Kind {
	return []Kind{KindMovie, KindShow, KindSong}
}

// ParseKind accepts a kind name or its partition name.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "song", "songs", "music":
		return KindSong, nil
	case "movie", "movies":
		return KindMovie, nil
	case "show", "shows", "series", "tv":
		return KindShow, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", value)
	}
}

// Partition returns the storage partition holding records of this kind.
func (k Kind) Partition() string {
	switch k {
	case KindSong:
		return "music"
	case KindMovie:
		return "movies"
	case KindShow:
		return "series"
	default:
		return ""
	}
}

func (k Kind) Valid() bool {
	return k.Partition() != ""
}

// Record is one indexed media file, unique by (Dirname, Filename) within its
// kind's partition. ID is the storage document identifier and is not part of
// the comparable content.
type Record struct {
	ID string `json:"-"`

	Kind         Kind                 `json:"kind"`
	Dirname      string               `json:"dirname"`
	Filename     string               `json:"filename"`
	Size         *int64               `json:"size,omitempty"`
	Title        string               `json:"title,omitempty"`
	Year         int                  `json:"year,omitempty"`
	Genre        []string             `json:"genre,omitempty"`
	AudioStreams []tracks.AudioStream `json:"audio_streams,omitempty"`
	VideoStreams []tracks.VideoStream `json:"video_streams,omitempty"`
	TextStreams  []tracks.TextStream  `json:"text_streams,omitempty"`
	StreamCounts tracks.StreamCounts  `json:"stream_counts"`

	*SongInfo
	*ScreenInfo
}

// SongInfo holds tag-derived song fields.
type SongInfo struct {
	Artist      string  `json:"artist,omitempty"`
	Album       string  `json:"album,omitempty"`
	AlbumArtist string  `json:"album_artist,omitempty"`
	Composer    string  `json:"composer,omitempty"`
	TrackNumber int     `json:"track_number,omitempty"`
	TrackTotal  int     `json:"track_total,omitempty"`
	DiscNumber  int     `json:"disc_number,omitempty"`
	Arranger    string  `json:"arranger,omitempty"`
	BPM         int     `json:"bpm,omitempty"`
	Compilation bool    `json:"compilation,omitempty"`
	Conductor   string  `json:"conductor,omitempty"`
	Mood        string  `json:"mood,omitempty"`
	Performer   string  `json:"performer,omitempty"`
	IDInfo      *IDInfo `json:"id_info,omitempty"`
}

// IDInfo carries acoustic fingerprint identifiers read from tags.
type IDInfo struct {
	MusicIPPUID         string `json:"musicip_puid,omitempty"`
	MusicIPFingerprint  string `json:"musicip_fingerprint,omitempty"`
	AcoustIDFingerprint string `json:"acoustid_fingerprint,omitempty"`
	AcoustIDID          string `json:"acoustid_id,omitempty"`
}

// ScreenInfo holds enrichment fields for movies and shows.
type ScreenInfo struct {
	Cast     []string `json:"cast,omitempty"`
	Director []string `json:"director,omitempty"`
	Writer   []string `json:"writer,omitempty"`
	Season   int      `json:"season,omitempty"`
	Episode  int      `json:"episode,omitempty"`
	TMDBID   int64    `json:"tmdb_id,omitempty"`
}

// New returns an empty record of kind k with the matching payload allocated.
func New(k Kind) *Record {
	rec := &Record{Kind: k}
	switch k {
	case KindSong:
		rec.SongInfo = &SongInfo{}
	case KindMovie, KindShow:
		rec.ScreenInfo = &ScreenInfo{}
	}
	return rec
}

// Path joins Dirname and Filename.
func (r *Record) Path() string {
	switch {
	case r.Dirname == "":
		return r.Filename
	case strings.HasSuffix(r.Dirname, "/"):
		return r.Dirname + r.Filename
	default:
		return r.Dirname + "/" + r.Filename
	}
}

// Validate checks the invariants storage relies on.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("record kind %q is not valid", r.Kind)
	}
	if strings.TrimSpace(r.Dirname) == "" || strings.TrimSpace(r.Filename) == "" {
		return fmt.Errorf("record %s requires dirname and filename", r.Kind)
	}
	if r.Kind == KindSong && r.ScreenInfo != nil && !r.ScreenInfo.empty() {
		return fmt.Errorf("song record %s carries screen fields", r.Path())
	}
	if r.Kind != KindSong && r.SongInfo != nil && !r.SongInfo.empty() {
		return fmt.Errorf("%s record %s carries song fields", r.Kind, r.Path())
	}
	return nil
}

// Equal reports whether a and b carry the same content. IDs are ignored and
// empty payloads or slices compare equal to absent ones.
func Equal(a, b *Record) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(a.normalized(), b.normalized())
}

func (r *Record) normalized() Record {
	out := *r
	out.ID = ""
	if len(out.Genre) == 0 {
		out.Genre = nil
	}
	if len(out.AudioStreams) == 0 {
		out.AudioStreams = nil
	}
	if len(out.VideoStreams) == 0 {
		out.VideoStreams = nil
	}
	if len(out.TextStreams) == 0 {
		out.TextStreams = nil
	}
	if out.SongInfo != nil {
		song := *out.SongInfo
		if song.IDInfo != nil && *song.IDInfo == (IDInfo{}) {
			song.IDInfo = nil
		}
		out.SongInfo = &song
		if song.empty() {
			out.SongInfo = nil
		}
	}
	if out.ScreenInfo != nil {
		screen := *out.ScreenInfo
		if len(screen.Cast) == 0 {
			screen.Cast = nil
		}
		if len(screen.Director) == 0 {
			screen.Director = nil
		}
		if len(screen.Writer) == 0 {
			screen.Writer = nil
		}
		out.ScreenInfo = &screen
		if screen.empty() {
			out.ScreenInfo = nil
		}
	}
	return out
}

func (s *SongInfo) empty() bool {
	return s.Artist == "" && s.Album == "" && s.AlbumArtist == "" && s.Composer == "" &&
		s.TrackNumber == 0 && s.TrackTotal == 0 && s.DiscNumber == 0 &&
		s.Arranger == "" && s.BPM == 0 && !s.Compilation && s.Conductor == "" &&
		s.Mood == "" && s.Performer == "" &&
		(s.IDInfo == nil || *s.IDInfo == IDInfo{})
}

func (s *ScreenInfo) empty() bool {
	return len(s.Cast) == 0 && len(s.Director) == 0 && len(s.Writer) == 0 &&
		s.Season == 0 && s.Episode == 0 && s.TMDBID == 0
}
