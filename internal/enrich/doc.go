// Package enrich supplies the metadata collaborators used while reconciling
// records: a screen metadata Lookup (implemented over TMDB with rate limiting
// and a circuit breaker), an embedded tag reader for songs, and helpers that
// derive lookup queries and episode markers from file names.
package enrich
