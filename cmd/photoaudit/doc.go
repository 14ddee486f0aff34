// Command photoaudit reconciles study photo files in Cloud Storage with
// their photoHistory records in Firestore: backfilling missing records,
// cleaning up duplicate backfilled ones, auditing orphans, archiving
// documents before deletion, and comparing per-subject counts.
package main
