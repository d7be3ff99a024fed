package testsupport

import (
	"testing"

	"mediadex/internal/classify"
	"mediadex/internal/tracks"
)

// Tracks builds a raw track bag with one General track for completeName and
// the requested number of audio, video and text tracks.
func Tracks(completeName string, audio, video, text int) []tracks.Raw {
	raws := []tracks.Raw{{
		tracks.KeyTrackType:    string(tracks.TypeGeneral),
		tracks.KeyCompleteName: completeName,
		tracks.KeyFileSize:     "1024",
	}}
	for range audio {
		raws = append(raws, tracks.Raw{
			tracks.KeyTrackType:    string(tracks.TypeAudio),
			tracks.KeyFormat:       "AAC",
			tracks.KeyDuration:     "215.3",
			tracks.KeyChannels:     "2",
			tracks.KeySamplingRate: "44100",
		})
	}
	for range video {
		raws = append(raws, tracks.Raw{
			tracks.KeyTrackType: string(tracks.TypeVideo),
			tracks.KeyFormat:    "AVC",
			tracks.KeyHeight:    "1080",
			tracks.KeyWidth:     "1920",
		})
	}
	for range text {
		raws = append(raws, tracks.Raw{
			tracks.KeyTrackType: string(tracks.TypeText),
			tracks.KeyFormat:    "UTF-8",
			tracks.KeyLanguage:  "en",
		})
	}
	return raws
}

// Item classifies raws and places the result at (dirname, filename).
func Item(t testing.TB, raws []tracks.Raw, dirname, filename string) *classify.Item {
	t.Helper()

	item, err := classify.Classify(raws)
	if err != nil {
		t.Fatalf("classify.Classify: %v", err)
	}
	return item.At(dirname, filename)
}
