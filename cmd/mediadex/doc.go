// Package main hosts the mediadex CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration and logging once, then
// hands off to the internal packages: index walks library roots through the
// scanner and reconciler, purge drops entries whose files are gone, search and
// stats read the index back, and config scaffolds or validates the TOML file.
//
// Keep this package lean: new behavior belongs in internal/ first and is only
// surfaced here through commands or flags.
package main
