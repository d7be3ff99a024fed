// Package scanner drives a batch index run: it walks the library roots,
// probes each media file, classifies the result and hands the item to the
// reconciler, tallying one outcome per file.
//
// Work is spread over a fixed number of workers. Files are assigned to a
// worker by an FNV hash of their path so a given path is only ever handled by
// one worker within a run. A process-wide advisory lock on the index directory
// keeps concurrent runs from writing the same index.
//
// No single file failure stops a run; Summary.ExitCode reports whether any
// item-level failure occurred.
package scanner
