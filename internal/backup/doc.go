// Package backup archives photoHistory documents before cleanup deletes them.
//
// Every cleanup run that intends to delete records first writes the full
// document payloads into a local SQLite archive, keyed by a run id, and can
// additionally export a JSON snapshot for ad-hoc inspection. Deletion in the
// record store is irreversible, so the archive is the only way back.
package backup
