// Package tracks models the per-stream descriptors reported by a media probe
// and the normalized stream records derived from them.
//
// Key types:
//   - Raw: one untyped track descriptor keyed by MediaInfo field names
//   - AudioStream, VideoStream, TextStream: normalized stream records
//   - StreamCounts: per-kind stream totals stored on every record
//
// Extraction is lazy: Audio, Video and Text return iter.Seq values that are
// consumed once and collected with Collect before counting. Numeric fields
// that fail to parse are omitted and reported through the Issues callback.
package tracks
