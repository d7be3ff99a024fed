// Package reconcile decides what happens to the index entry for one
// classified media file.
//
// A Reconciler builds a fresh record from the item's streams, enriches it
// (embedded tags for songs, TMDB lookups for movies and shows), compares it
// with whatever the store holds for the same (dirname, filename) and then
// inserts, updates, or leaves the entry alone. More than one stored entry for
// a path is reported as a conflict and left for the purge pass to clean up.
//
// Field and enrichment problems are collected as warnings on the Result and
// never abort the item; storage failures and duplicates do.
package reconcile
