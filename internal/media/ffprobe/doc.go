// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, size, bitrate, tags)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Result.Tracks: converts the result into MediaInfo-keyed track
//     descriptors consumed by the classifier
//
// Inspect reports a missing input file with ErrNotFound so callers can retry
// with an alternate path encoding.
package ffprobe
