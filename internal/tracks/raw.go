package tracks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type discriminates raw track descriptors.
type Type string

const (
	TypeGeneral Type = "General"
	TypeAudio   Type = "Audio"
	TypeVideo   Type = "Video"
	TypeText    Type = "Text"
)

// MediaInfo field names consumed by the classifier and extractor.
const (
	KeyTrackType         = "track_type"
	KeyCompleteName      = "complete_name"
	KeyFileName          = "file_name"
	KeyFolderName        = "folder_name"
	KeyFileSize          = "file_size"
	KeyMovieName         = "movie_name"
	KeyTitle             = "title"
	KeyDuration          = "duration"
	KeyFormat            = "format"
	KeyFormatProfile     = "format_profile"
	KeyLanguage          = "language"
	KeyInternetMediaType = "internet_media_type"
	KeyChannels          = "channel_s"
	KeyBitRate           = "bit_rate"
	KeySamplingRate      = "sampling_rate"
	KeyBitDepth          = "bit_depth"
	KeyHeight            = "height"
	KeyWidth             = "width"
	KeyEncoding          = "encoding"
)

// Raw is one track descriptor as supplied by the probe. Values are scalars:
// strings, numbers, or booleans.
type Raw map[string]any

// Type returns the track_type discriminator.
func (r Raw) Type() Type {
	value, _ := r.String(KeyTrackType)
	return Type(value)
}

// String returns the value for key rendered as a string.
func (r Raw) String(key string) (string, bool) {
	value, ok := r[key]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprint(v), true
	}
}

// Float parses the value for key as a float. ok is false when the key is
// absent; err is non-nil when present but not numeric.
func (r Raw) Float(key string) (value float64, ok bool, err error) {
	raw, present := r[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	}
	text, _ := r.String(key)
	parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, true, fmt.Errorf("non-finite value %q", text)
	}
	return parsed, true, nil
}

// Int parses the value for key as an integer. Floats with a fractional part
// are rejected.
func (r Raw) Int(key string) (value int64, ok bool, err error) {
	raw, present := r[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, true, fmt.Errorf("not an integer: %v", v)
		}
		return int64(v), true, nil
	}
	text, _ := r.String(key)
	parsed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, true, err
	}
	return parsed, true, nil
}
