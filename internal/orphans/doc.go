// Package orphans audits which blob files lack a photoHistory record.
//
// The buggy client created several storage files per rejected photo while
// writing at most one record, so orphaned files cluster around a shared
// capture timestamp. The analyzer classifies every image blob as valid
// (some record references it) or orphaned, and groups orphans by inferred
// capture time to surface those duplicate clusters. It is a pure read;
// fixing the drift is backfill's job.
package orphans
