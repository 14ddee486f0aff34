// Package profiles produces the set of subjects a maintenance run processes.
//
// Three interchangeable sources exist: listing subject folders straight from
// the blob store, a collection-group scan over every profiles sub-collection,
// and the preferred user traversal, which walks users (optionally bounded by
// creation date) and enumerates each user's profiles. All sources return a
// deduplicated set; caps truncate in stable order so sampled runs are
// reproducible.
//
// User documents accumulated field-name drift across client versions, so
// per-field candidate keys are declared in an explicit lookup table instead
// of ad hoc string probing; fallback order within a table entry is
// significant.
package profiles
