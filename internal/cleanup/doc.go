// Package cleanup deletes redundant backfilled records left behind by the
// buggy capture client.
//
// The client sometimes uploaded the same rejected photo several times, so a
// single physical photo can be represented by several backfilled records.
// Lacking a shared key, candidate duplicates are grouped by the underlying
// blob's byte size. Within a duplicate group the rules are: if a non-backfilled
// record of matching size exists, every backfilled copy goes (the original is
// the authoritative one); otherwise the most recently created backfilled
// record stays and the rest go.
//
// Two invariants are enforced regardless of how grouping behaves:
//
//   - records without backfillSource="storage" are never deleted
//   - records that are not rejected are never deleted
//
// Execute re-reads each candidate's own fields against both conditions
// immediately before deleting, so a grouping bug can at worst delete nothing
// extra. Planning is split from execution so the pre-cleanup backup can
// archive the exact delete set a live run would act on.
package cleanup
