// Package records defines the persisted media document: a tagged union of
// song, movie and show variants that share a common set of fields and carry
// kind-specific data in an embedded payload.
//
// The JSON encoding of Record is the index document schema. Payload fields are
// flattened into the top-level object so stored documents keep a single flat
// shape per partition.
package records
