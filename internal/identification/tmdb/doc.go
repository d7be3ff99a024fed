// Package tmdb provides the minimal TMDB API client used during screen
// enrichment.
//
// It authenticates requests and exposes multi search plus movie and TV detail
// retrieval with credits appended. Responses are strongly typed so the enrich
// package can map them onto records. Options allow tests to supply custom HTTP
// clients without modifying production code.
package tmdb
