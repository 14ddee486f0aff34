// Package reconcile rebuilds missing photoHistory records from blob store
// contents.
//
// A historical mobile client bug uploaded photo files without always writing
// the matching record, so the two stores drifted apart. The Backfiller diffs
// one subject's blobs against a snapshot index of that subject's known
// storage paths and creates records for the orphaned files, marking each with
// backfillSource="storage" so later tooling can tell synthesized records from
// client-written ones.
//
// The diff is deliberately idempotent: the skip check recognizes existing
// records by explicit storagePath and by token-stripped signed URL, so
// re-running after a partial failure creates nothing twice. Backfill never
// deletes anything; its only blob-side write is stamping a download token
// into custom metadata, and only when configuration allows minting.
package reconcile
