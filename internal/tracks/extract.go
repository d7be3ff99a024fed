package tracks

import (
	"iter"
	"strconv"

	"mediadex/internal/services"
)

// Extractor turns raw track groups into normalized stream sequences. Issues,
// when set, receives every recoverable field error.
type Extractor struct {
	Issues func(error)
}

func (e Extractor) report(stream, field string, raw Raw, err error) {
	if e.Issues == nil {
		return
	}
	value, _ := raw.String(field)
	e.Issues(&services.FieldExtractionError{Stream: stream, Field: field, Value: value, Err: err})
}

type base struct {
	codec, profile, language, mimeType string
	duration                           *float64
}

func (e Extractor) base(stream string, raw Raw) base {
	var b base
	if value, ok, err := raw.Float(KeyDuration); err != nil {
		e.report(stream, KeyDuration, raw, err)
	} else if ok {
		b.duration = &value
	}
	b.codec, _ = raw.String(KeyFormat)
	b.profile, _ = raw.String(KeyFormatProfile)
	b.language, _ = raw.String(KeyLanguage)
	b.mimeType, _ = raw.String(KeyInternetMediaType)
	return b
}

func (e Extractor) integer(stream, key string, raw Raw) *int64 {
	value, ok, err := raw.Int(key)
	if err != nil {
		e.report(stream, key, raw, err)
		return nil
	}
	if !ok {
		return nil
	}
	return &value
}

// AudioStream extracts a single audio track.
func (e Extractor) AudioStream(raw Raw) AudioStream {
	b := e.base("audio", raw)
	return AudioStream{
		Codec:        b.codec,
		CodecProfile: b.profile,
		Duration:     b.duration,
		Language:     b.language,
		MimeType:     b.mimeType,
		Channels:     e.integer("audio", KeyChannels, raw),
		BitRate:      e.integer("audio", KeyBitRate, raw),
		SampleRate:   e.integer("audio", KeySamplingRate, raw),
	}
}

// VideoStream extracts a single video track.
func (e Extractor) VideoStream(raw Raw) VideoStream {
	b := e.base("video", raw)
	stream := VideoStream{
		Codec:        b.codec,
		CodecProfile: b.profile,
		Duration:     b.duration,
		Language:     b.language,
		MimeType:     b.mimeType,
		BitRate:      e.integer("video", KeyBitRate, raw),
		BitDepth:     e.integer("video", KeyBitDepth, raw),
		Height:       e.integer("video", KeyHeight, raw),
		Width:        e.integer("video", KeyWidth, raw),
	}
	if stream.Height != nil && stream.Width != nil {
		stream.Resolution = strconv.FormatInt(*stream.Height, 10) + "x" + strconv.FormatInt(*stream.Width, 10)
	}
	return stream
}

// TextStream extracts a single text track.
func (e Extractor) TextStream(raw Raw) TextStream {
	b := e.base("text", raw)
	stream := TextStream{
		Codec:        b.codec,
		CodecProfile: b.profile,
		Duration:     b.duration,
		Language:     b.language,
		MimeType:     b.mimeType,
	}
	stream.Charset, _ = raw.String(KeyEncoding)
	return stream
}

// Audio lazily extracts each track in order.
func (e Extractor) Audio(raws []Raw) iter.Seq[AudioStream] {
	return sequence(raws, e.AudioStream)
}

// Video lazily extracts each track in order.
func (e Extractor) Video(raws []Raw) iter.Seq[VideoStream] {
	return sequence(raws, e.VideoStream)
}

// Text lazily extracts each track in order.
func (e Extractor) Text(raws []Raw) iter.Seq[TextStream] {
	return sequence(raws, e.TextStream)
}

func sequence[T any](raws []Raw, extract func(Raw) T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, raw := range raws {
			if !yield(extract(raw)) {
				return
			}
		}
	}
}

// Collect drains seq into a slice. It returns nil for an empty sequence.
func Collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for item := range seq {
		out = append(out, item)
	}
	return out
}
