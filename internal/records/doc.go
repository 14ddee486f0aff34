// Package records models photoHistory documents and wraps their Firestore
// collection.
//
// A Record is one reviewed photo event. Records written by the mobile capture
// client carry no backfillSource; records synthesized by the reconciler carry
// backfillSource="storage". That distinction is the load-bearing safety
// property of the whole tool: cleanup may only ever delete backfilled,
// rejected records, so parsing of those two fields must stay conservative
// (absent or oddly-typed values read as "original" and "not rejected").
//
// All writes go through capped batches (BatchCap operations per Firestore
// write batch) committed sequentially. A failed commit leaves earlier batches
// applied; callers rely on the diff-based skip checks to make re-runs
// converge instead of rolling back.
package records
