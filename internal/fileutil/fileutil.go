package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Filesystem is the existence check consumed by the purge scanner.
type Filesystem interface {
	Exists(path string) (bool, error)
}

// OSFilesystem answers existence checks against the local disk.
type OSFilesystem struct{}

var _ Filesystem = OSFilesystem{}

// Exists reports whether path exists. Permission and I/O errors are returned
// rather than treated as absence so callers never delete on a transient fault.
func (OSFilesystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// mediaExtensions lists container extensions worth probing.
var mediaExtensions = map[string]struct{}{
	".aac": {}, ".aiff": {}, ".alac": {}, ".ape": {}, ".flac": {}, ".m4a": {},
	".mka": {}, ".mp3": {}, ".ogg": {}, ".opus": {}, ".wav": {}, ".wma": {},
	".avi": {}, ".m2ts": {}, ".m4v": {}, ".mkv": {}, ".mov": {}, ".mp4": {},
	".mpg": {}, ".mpeg": {}, ".ts": {}, ".webm": {}, ".wmv": {},
	".ass": {}, ".srt": {}, ".ssa": {}, ".sub": {}, ".vtt": {},
}

// IsMediaFile reports whether path has a known audio, video or subtitle
// extension.
func IsMediaFile(path string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ModifiedWithin reports whether info was modified inside window before now.
// A non-positive window accepts everything.
func ModifiedWithin(info fs.FileInfo, window time.Duration, now time.Time) bool {
	if window <= 0 || info == nil {
		return true
	}
	return !info.ModTime().Before(now.Add(-window))
}

// AlternatePaths returns re-encoded spellings of path to try when a probe
// reports it missing: Unicode NFC and NFD forms, the Latin-1 byte form of a
// UTF-8 path, and the UTF-8 reading of a path stored in Windows-1252 or
// Latin-1. The original path is never included.
func AlternatePaths(path string) []string {
	candidates := []string{norm.NFC.String(path), norm.NFD.String(path)}
	if utf8.ValidString(path) {
		if encoded, err := charmap.ISO8859_1.NewEncoder().String(path); err == nil {
			candidates = append(candidates, encoded)
		}
	} else {
		for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
			if decoded, err := cm.NewDecoder().String(path); err == nil {
				candidates = append(candidates, decoded)
			}
		}
	}

	out := make([]string, 0, len(candidates))
	seen := map[string]struct{}{path: {}}
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
