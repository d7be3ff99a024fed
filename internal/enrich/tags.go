package enrich

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"mediadex/internal/records"
	"mediadex/internal/services"
)

// ErrNoTag reports a file that carries no embedded tag block.
var ErrNoTag = errors.New("no embedded tags")

// Tags is the subset of embedded metadata copied onto song records.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Year        int
	Track       int
	TrackTotal  int
	Disc        int
	Arranger    string
	BPM         int
	Compilation bool
	Conductor   string
	Mood        string
	Performer   string
	IDs         records.IDInfo
}

// TagReader reads embedded song tags.
type TagReader interface {
	Read(path string) (*Tags, error)
}

// FileTagReader reads ID3, MP4, FLAC and Ogg tags from disk.
type FileTagReader struct{}

var _ TagReader = FileTagReader{}

// Read returns ErrNoTag when the file has no tags and a TagContainerError when
// a tag block is present but unreadable.
func (FileTagReader) Read(path string) (*Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTags(path, f)
}

// ReadTags decodes tags from r. path is only used in error messages.
func ReadTags(path string, r io.ReadSeeker) (*Tags, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, ErrNoTag
		}
		return nil, &services.TagContainerError{Path: path, Err: err}
	}

	track, trackTotal := m.Track()
	disc, _ := m.Disc()
	text := rawText(m.Raw())
	bpm, _ := strconv.Atoi(lookup(text, "bpm", "tbpm", "tmpo", "tempo"))
	compilation, _ := strconv.ParseBool(lookup(text, "compilation", "tcmp", "cpil"))
	return &Tags{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		AlbumArtist: strings.TrimSpace(m.AlbumArtist()),
		Composer:    strings.TrimSpace(m.Composer()),
		Genre:       strings.TrimSpace(m.Genre()),
		Year:        m.Year(),
		Track:       track,
		TrackTotal:  trackTotal,
		Disc:        disc,
		Arranger:    lookup(text, "arranger"),
		BPM:         bpm,
		Compilation: compilation,
		Conductor:   lookup(text, "conductor", "tpe3"),
		Mood:        lookup(text, "mood", "tmoo"),
		Performer:   lookup(text, "performer"),
		IDs:         identifiers(text),
	}, nil
}

// identifierAliases maps normalized tag names (Vorbis comment keys, ID3 TXXX
// descriptions, MP4 freeform names) onto IDInfo fields.
var identifierAliases = map[string]string{
	"musicip_puid":           "musicip_puid",
	"musicip_fingerprint":    "musicip_fingerprint",
	"musicmagic_fingerprint": "musicip_fingerprint",
	"acoustid_fingerprint":   "acoustid_fingerprint",
	"acoustid_id":            "acoustid_id",
}

func identifiers(text map[string]string) records.IDInfo {
	var ids records.IDInfo
	for name, value := range text {
		switch identifierAliases[name] {
		case "musicip_puid":
			ids.MusicIPPUID = value
		case "musicip_fingerprint":
			ids.MusicIPFingerprint = value
		case "acoustid_fingerprint":
			ids.AcoustIDFingerprint = value
		case "acoustid_id":
			ids.AcoustIDID = value
		}
	}
	return ids
}

// rawText flattens the raw tag frames into text keyed by normalized name.
// ID3 TXXX frames are keyed by their description.
func rawText(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		name, text := key, ""
		switch v := value.(type) {
		case *tag.Comm:
			name, text = v.Description, v.Text
		case string:
			text = v
		case []byte:
			text = string(v)
		case int:
			text = strconv.Itoa(v)
		default:
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			out[normalizeTagName(name)] = text
		}
	}
	return out
}

// lookup returns the first non-empty value among names.
func lookup(text map[string]string, names ...string) string {
	for _, name := range names {
		if value := text[name]; value != "" {
			return value
		}
	}
	return ""
}

func normalizeTagName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "com.apple.itunes:")
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}
