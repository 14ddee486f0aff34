// Package blobs wraps the storage bucket holding captured photo files.
//
// The reconciliation tools only ever read blobs and, at most, stamp a
// download token into an object's custom metadata. Nothing in this repository
// creates or deletes bucket objects; drift repair happens entirely on the
// record side.
package blobs
