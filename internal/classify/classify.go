package classify

import (
	"path"
	"strings"

	"mediadex/internal/services"
	"mediadex/internal/tracks"
)

// DexType is the media category derived from track counts.
type DexType string

const (
	DexSong    DexType = "song"
	DexMovie   DexType = "movie"
	DexImage   DexType = "image"
	DexText    DexType = "text"
	DexEmpty   DexType = "empty"
	DexUnknown DexType = "unknown"
)

// Indexable reports whether items of this type are reconciled into the index.
func (d DexType) Indexable() bool {
	return d == DexSong || d == DexMovie
}

// Item is a classified probe result. Fields are read-only after Classify.
type Item struct {
	general  tracks.Raw
	audio    []tracks.Raw
	video    []tracks.Raw
	text     []tracks.Raw
	dexType  DexType
	dirname  string
	filename string
}

// Classify partitions raws by track type and derives the dex type. Exactly
// one General track is required.
func Classify(raws []tracks.Raw) (*Item, error) {
	item := &Item{}
	generals := 0
	for _, raw := range raws {
		switch raw.Type() {
		case tracks.TypeGeneral:
			generals++
			item.general = raw
		case tracks.TypeAudio:
			item.audio = append(item.audio, raw)
		case tracks.TypeVideo:
			item.video = append(item.video, raw)
		case tracks.TypeText:
			item.text = append(item.text, raw)
		}
	}
	if generals != 1 {
		return nil, &services.MalformedInputError{GeneralCount: generals}
	}
	item.dexType = Derive(len(item.audio), len(item.video), len(item.text))
	return item, nil
}

// Derive applies the fixed priority order; the first matching rule wins. A
// lone text track only counts as text when no audio track is present.
func Derive(audio, video, text int) DexType {
	switch {
	case video > 0 && audio > 0:
		return DexMovie
	case video > 0:
		return DexImage
	case audio == 1:
		return DexSong
	case text == 1 && audio == 0:
		return DexText
	case audio == 0 && video == 0 && text == 0:
		return DexEmpty
	default:
		return DexUnknown
	}
}

// At returns a copy of the item located at dirname/filename.
func (i *Item) At(dirname, filename string) *Item {
	clone := *i
	clone.dirname = dirname
	clone.filename = filename
	return &clone
}

// General returns the container-level track.
func (i *Item) General() tracks.Raw { return i.general }

// Audio returns the audio tracks in stream order.
func (i *Item) Audio() []tracks.Raw { return i.audio }

// Video returns the video tracks in stream order.
func (i *Item) Video() []tracks.Raw { return i.video }

// Text returns the text (subtitle) tracks in stream order.
func (i *Item) Text() []tracks.Raw { return i.text }

// DexType returns the category derived by Classify.
func (i *Item) DexType() DexType { return i.dexType }

// Dirname returns the index directory set by At; empty before At is called.
func (i *Item) Dirname() string { return i.dirname }

// Filename returns the path below Dirname set by At.
func (i *Item) Filename() string { return i.filename }

// Path joins dirname and filename.
func (i *Item) Path() string { return joinPath(i.dirname, i.filename) }

// CompleteName returns the probe's full path for the file.
func (i *Item) CompleteName() string {
	value, _ := i.general.String(tracks.KeyCompleteName)
	return value
}

// Size returns the container size reported by the General track.
func (i *Item) Size() (int64, bool) {
	size, ok, err := i.general.Int(tracks.KeyFileSize)
	if err != nil || !ok {
		return 0, false
	}
	return size, true
}

// Counts returns the number of tracks per stream kind.
func (i *Item) Counts() tracks.StreamCounts {
	return tracks.StreamCounts{
		AudioStreamCount: len(i.audio),
		VideoStreamCount: len(i.video),
		TextStreamCount:  len(i.text),
	}
}

// SplitPath derives the index key for a file found under root: dirname is
// root without its trailing separator and filename is the remainder of
// completeName with any leading separator removed.
func SplitPath(root, completeName string) (dirname, filename string) {
	dirname = strings.TrimRight(root, "/")
	if dirname == "" && strings.HasPrefix(root, "/") {
		dirname = "/"
	}
	filename = strings.TrimLeft(strings.Replace(completeName, root, "", 1), "/")
	if filename == "" && dirname != "" && dirname != "/" {
		// root named the file itself.
		return path.Dir(dirname), path.Base(dirname)
	}
	return dirname, filename
}

func joinPath(dirname, filename string) string {
	switch {
	case dirname == "":
		return filename
	case filename == "":
		return dirname
	case strings.HasSuffix(dirname, "/"):
		return dirname + filename
	default:
		return dirname + "/" + filename
	}
}
