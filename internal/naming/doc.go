// Package naming parses and builds the identifiers shared by the blob store
// and the photo record store.
//
// Blob keys follow photoHistory/<subjectID>/<filename>, where the filename
// embeds a capture timestamp (13-digit epoch milliseconds or 10-digit epoch
// seconds) and an optional _rejected marker before the image extension. A
// later client build prefixes the subject id, so the timestamp is located by
// scanning for the first digit run of a recognized width rather than anchoring
// at the start of the name.
//
// Signed download URLs take the form
// https://<host>/v0/b/<bucket>/o/<encoded-path>?alt=media[&token=<token>].
// DecodeStoragePath and BuildDownloadURL are exact inverses for any path, a
// property the backfill skip-check depends on.
package naming
