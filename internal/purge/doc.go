// Package purge removes index entries whose backing files have disappeared.
//
// A Purger lists the distinct file names stored in a partition (bounded by a
// configurable cap so very large catalogs are processed incrementally), checks
// every stored (dirname, filename) pair against the filesystem and deletes the
// entries whose file is gone.
package purge
