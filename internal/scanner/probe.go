package scanner

import (
	"context"
	"errors"
	"fmt"

	"mediadex/internal/fileutil"
	"mediadex/internal/media/ffprobe"
	"mediadex/internal/tracks"
)

// Prober turns a file into raw track descriptors.
type Prober interface {
	Probe(ctx context.Context, path string) ([]tracks.Raw, error)
}

// FFprobe probes files with the ffprobe binary. When ffprobe cannot find the
// path, alternate Unicode and legacy 8-bit spellings are tried in turn.
type FFprobe struct {
	Binary string
}

var _ Prober = FFprobe{}

// Probe inspects path.
func (p FFprobe) Probe(ctx context.Context, path string) ([]tracks.Raw, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err == nil {
		return result.Tracks(), nil
	}
	if !errors.Is(err, ffprobe.ErrNotFound) {
		return nil, err
	}
	for _, alt := range fileutil.AlternatePaths(path) {
		result, altErr := ffprobe.Inspect(ctx, p.Binary, alt)
		if altErr == nil {
			return result.Tracks(), nil
		}
		if !errors.Is(altErr, ffprobe.ErrNotFound) {
			return nil, fmt.Errorf("probe alternate encoding of %s: %w", path, altErr)
		}
	}
	return nil, err
}
