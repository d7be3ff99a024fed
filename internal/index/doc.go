// Package index persists media records and answers the exact-path queries the
// reconciler and purge scanner depend on.
//
// Two backends implement Store: a bleve search index (one index per
// partition, keyword-mapped dirname and filename, a term facet over filename)
// and a SQLite document table. Open selects one from configuration and wraps
// it so every call is bounded by the storage timeout and every failure is
// reported as services.StorageUnavailableError.
package index
