package ffprobe

import (
	"path/filepath"
	"strconv"
	"strings"

	"mediadex/internal/language"
	"mediadex/internal/tracks"
)

// codecInfo maps ffprobe codec names to MediaInfo format names and MIME types.
type codecInfo struct {
	format string
	mime   string
}

var codecs = map[string]codecInfo{
	"aac":               {"AAC", "audio/mp4"},
	"ac3":               {"AC-3", "audio/ac3"},
	"eac3":              {"E-AC-3", "audio/eac3"},
	"dts":               {"DTS", "audio/vnd.dts"},
	"truehd":            {"MLP FBA", "audio/vnd.dolby.mlp"},
	"flac":              {"FLAC", "audio/flac"},
	"alac":              {"ALAC", "audio/mp4"},
	"mp3":               {"MPEG Audio", "audio/mpeg"},
	"mp2":               {"MPEG Audio", "audio/mpeg"},
	"opus":              {"Opus", "audio/opus"},
	"vorbis":            {"Vorbis", "audio/vorbis"},
	"wmav2":             {"WMA", "audio/x-ms-wma"},
	"h264":              {"AVC", "video/H264"},
	"hevc":              {"HEVC", "video/H265"},
	"av1":               {"AV1", "video/AV1"},
	"vp8":               {"VP8", "video/VP8"},
	"vp9":               {"VP9", "video/VP9"},
	"mpeg2video":        {"MPEG Video", "video/MPV"},
	"mpeg4":             {"MPEG-4 Visual", "video/MP4V-ES"},
	"mjpeg":             {"JPEG", "image/jpeg"},
	"png":               {"PNG", "image/png"},
	"subrip":            {"UTF-8", "text/plain"},
	"ass":               {"ASS", "text/x-ass"},
	"ssa":               {"SSA", "text/x-ssa"},
	"webvtt":            {"WebVTT", "text/vtt"},
	"mov_text":          {"Timed Text", "text/plain"},
	"hdmv_pgs_subtitle": {"PGS", ""},
	"dvd_subtitle":      {"VobSub", ""},
}

// Tracks converts the result into track descriptors keyed by MediaInfo field
// names: one General track followed by one track per audio, video and
// subtitle stream. Attached pictures and data streams are skipped.
func (r Result) Tracks() []tracks.Raw {
	out := make([]tracks.Raw, 0, len(r.Streams)+1)
	out = append(out, r.general())
	for _, stream := range r.Streams {
		var kind tracks.Type
		switch strings.ToLower(stream.CodecType) {
		case "audio":
			kind = tracks.TypeAudio
		case "video":
			if stream.AttachedPicture() {
				continue
			}
			kind = tracks.TypeVideo
		case "subtitle":
			kind = tracks.TypeText
		default:
			continue
		}
		out = append(out, stream.track(kind))
	}
	return out
}

func (r Result) general() tracks.Raw {
	raw := tracks.Raw{tracks.KeyTrackType: string(tracks.TypeGeneral)}
	if name := r.Format.Filename; name != "" {
		raw[tracks.KeyCompleteName] = name
		base := filepath.Base(name)
		raw[tracks.KeyFileName] = strings.TrimSuffix(base, filepath.Ext(base))
		raw[tracks.KeyFolderName] = filepath.Dir(name)
	}
	setString(raw, tracks.KeyFileSize, r.Format.Size)
	setString(raw, tracks.KeyDuration, r.Format.Duration)
	setString(raw, tracks.KeyBitRate, r.Format.BitRate)
	if names := strings.Split(r.Format.FormatName, ","); names[0] != "" {
		raw[tracks.KeyFormat] = names[0]
	}
	setString(raw, tracks.KeyTitle, tag(r.Format.Tags, "title"))
	setString(raw, tracks.KeyMovieName, tag(r.Format.Tags, "movie_name"))
	return raw
}

func (s Stream) track(kind tracks.Type) tracks.Raw {
	raw := tracks.Raw{tracks.KeyTrackType: string(kind)}
	info, known := codecs[strings.ToLower(s.CodecName)]
	switch {
	case known:
		raw[tracks.KeyFormat] = info.format
		setString(raw, tracks.KeyInternetMediaType, info.mime)
	case strings.HasPrefix(s.CodecName, "pcm_"):
		raw[tracks.KeyFormat] = "PCM"
	default:
		setString(raw, tracks.KeyFormat, s.CodecName)
	}
	setString(raw, tracks.KeyFormatProfile, s.Profile)
	setString(raw, tracks.KeyDuration, firstNonEmpty(s.Duration, seconds(tag(s.Tags, "duration"))))
	setString(raw, tracks.KeyLanguage, language.FromTags(s.Tags))
	setString(raw, tracks.KeyTitle, tag(s.Tags, "title"))

	switch kind {
	case tracks.TypeAudio:
		setString(raw, tracks.KeyBitRate, s.BitRate)
		setString(raw, tracks.KeySamplingRate, s.SampleRate)
		if s.Channels > 0 {
			raw[tracks.KeyChannels] = strconv.Itoa(s.Channels)
		}
	case tracks.TypeVideo:
		setString(raw, tracks.KeyBitRate, s.BitRate)
		if s.Height > 0 {
			raw[tracks.KeyHeight] = strconv.Itoa(s.Height)
		}
		if s.Width > 0 {
			raw[tracks.KeyWidth] = strconv.Itoa(s.Width)
		}
		if depth := s.bitDepth(); depth != "" {
			raw[tracks.KeyBitDepth] = depth
		}
	case tracks.TypeText:
		if strings.EqualFold(s.CodecName, "subrip") {
			raw[tracks.KeyEncoding] = "UTF-8"
		}
	}
	return raw
}

func (s Stream) bitDepth() string {
	if v := strings.TrimSpace(s.BitsPerRawSample); v != "" {
		return v
	}
	switch {
	case s.PixFmt == "":
		return ""
	case strings.Contains(s.PixFmt, "12le"), strings.Contains(s.PixFmt, "12be"):
		return "12"
	case strings.Contains(s.PixFmt, "10le"), strings.Contains(s.PixFmt, "10be"):
		return "10"
	default:
		return "8"
	}
}

func tag(tags map[string]string, key string) string {
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func setString(raw tracks.Raw, key, value string) {
	if value = strings.TrimSpace(value); value != "" && value != "N/A" {
		raw[key] = value
	}
}

// seconds converts a Matroska "HH:MM:SS.nnnnnnnnn" duration tag into decimal
// seconds. Values that are not sexagesimal are returned unchanged.
func seconds(value string) string {
	if !strings.Contains(value, ":") {
		return value
	}
	var total float64
	for _, part := range strings.Split(value, ":") {
		n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || n < 0 {
			return value
		}
		total = total*60 + n
	}
	return strconv.FormatFloat(total, 'f', -1, 64)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
