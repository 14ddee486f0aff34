package reconcile

import (
	"strings"

	"photoaudit/internal/naming"
	"photoaudit/internal/records"
)

// PathIndex is a membership set over every storage path a subject's records
// reference, in both representations a record can carry: the explicit
// storagePath field and the path embedded in the signed imageUrl. URL entries
// are additionally indexed token-stripped under a url: prefix so token
// rotation cannot produce a false miss. False extra entries are harmless;
// the index is only ever used for skip checks.
type PathIndex struct {
	entries map[string]struct{}
	records int
}

// BuildPathIndex snapshots the lookup set for one subject's records.
func BuildPathIndex(recs []records.Record) *PathIndex {
	idx := &PathIndex{
		entries: make(map[string]struct{}, len(recs)*2),
		records: len(recs),
	}
	for _, rec := range recs {
		if path := strings.TrimSpace(rec.StoragePath); path != "" {
			idx.entries[path] = struct{}{}
		}
		if rec.ImageURL == "" {
			continue
		}
		if path, ok := naming.DecodeStoragePath(rec.ImageURL); ok {
			idx.entries[path] = struct{}{}
		}
		idx.entries["url:"+naming.StripToken(rec.ImageURL)] = struct{}{}
	}
	return idx
}

// ContainsPath reports whether a raw storage path is already referenced.
func (x *PathIndex) ContainsPath(path string) bool {
	_, ok := x.entries[path]
	return ok
}

// ContainsURL reports whether a signed URL (token-stripped) is already
// referenced.
func (x *PathIndex) ContainsURL(signedURL string) bool {
	_, ok := x.entries["url:"+naming.StripToken(signedURL)]
	return ok
}

// Records returns the number of records the index was built from.
func (x *PathIndex) Records() int {
	return x.records
}
