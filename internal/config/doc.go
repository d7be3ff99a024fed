// Package config loads, normalizes, and validates mediadex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and MEDIADEX_INDEX_DIR. The Config type centralizes the library
// roots, storage backend, and enrichment credentials so the CLI resolves them
// in one pass.
package config
