// Package services defines shared utilities consumed by the classifier,
// reconcilers, purge scanner and batch driver.
//
// Key responsibilities:
//   - Context helpers that stamp scan run IDs and media paths for logging.
//   - The error taxonomy: sentinel markers plus typed errors that tell call
//     sites whether a failure skips a field, aborts an item, or only warrants a
//     log line.
//
// Classify failures with errors.Is against the exported markers or with
// ItemFatal; never inspect error strings.
package services
