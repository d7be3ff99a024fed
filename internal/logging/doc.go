// Package logging assembles structured slog loggers and formatting helpers used
// across mediadex.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so reconcilers and the batch driver tag
// log lines with run IDs, media paths, and record kinds. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Diagnostic implements the verbosity rule shared by every recoverable
// failure: full error detail at error level when the logger is enabled for
// info, a single-line warning otherwise.
package logging
