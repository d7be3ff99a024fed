package tracks

// AudioStream is the normalized form of an Audio track.
type AudioStream struct {
	Codec        string   `json:"codec,omitempty"`
	CodecProfile string   `json:"codec_profile,omitempty"`
	Channels     *int64   `json:"channels,omitempty"`
	BitRate      *int64   `json:"bit_rate,omitempty"`
	SampleRate   *int64   `json:"sample_rate,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Language     string   `json:"language,omitempty"`
	MimeType     string   `json:"mime_type,omitempty"`
}

// VideoStream is the normalized form of a Video track. Resolution is only set
// when both Height and Width parsed.
type VideoStream struct {
	Codec        string   `json:"codec,omitempty"`
	CodecProfile string   `json:"codec_profile,omitempty"`
	BitRate      *int64   `json:"bit_rate,omitempty"`
	BitDepth     *int64   `json:"bit_depth,omitempty"`
	Height       *int64   `json:"height,omitempty"`
	Width        *int64   `json:"width,omitempty"`
	Resolution   string   `json:"resolution,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Language     string   `json:"language,omitempty"`
	MimeType     string   `json:"mime_type,omitempty"`
}

// TextStream is the normalized form of a Text track.
type TextStream struct {
	Codec        string   `json:"codec,omitempty"`
	CodecProfile string   `json:"codec_profile,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Language     string   `json:"language,omitempty"`
	MimeType     string   `json:"mime_type,omitempty"`
	Charset      string   `json:"charset,omitempty"`
}

// StreamCounts summarizes how many streams of each kind a record carries.
type StreamCounts struct {
	AudioStreamCount int `json:"audio_stream_count"`
	VideoStreamCount int `json:"video_stream_count"`
	TextStreamCount  int `json:"text_stream_count"`
}

// Count builds StreamCounts from already collected stream slices.
func Count(audio []AudioStream, video []VideoStream, text []TextStream) StreamCounts {
	return StreamCounts{
		AudioStreamCount: len(audio),
		VideoStreamCount: len(video),
		TextStreamCount:  len(text),
	}
}
