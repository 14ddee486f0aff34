package records

import (
	"strings"
	"time"

	"photoaudit/internal/naming"
)

// Collection is the Firestore collection holding photo history documents.
const Collection = "photoHistory"

// SourceStorage marks records synthesized by the backfill reconciler rather
// than the mobile capture client.
const SourceStorage = "storage"

// Record is one photoHistory document.
type Record struct {
	ID               string
	ProfileID        string
	Date             time.Time
	CapturedAt       time.Time
	ImageURL         string
	StoragePath      string
	Rejected         bool
	Summary          string
	Message          string
	InferenceMessage string
	BackfillSource   string
	CreateTime       time.Time

	// Data holds the raw document fields for archival use. Nil for records
	// constructed in code rather than read from the store.
	Data map[string]any
}

// Backfilled reports whether the record was created by the reconciler.
func (r Record) Backfilled() bool {
	return r.BackfillSource == SourceStorage
}

// ResolvePath returns the blob key the record points at: the explicit
// storagePath when present, otherwise the path decoded from the signed
// imageUrl. Empty when neither yields one.
func (r Record) ResolvePath() string {
	if strings.TrimSpace(r.StoragePath) != "" {
		return strings.TrimSpace(r.StoragePath)
	}
	if path, ok := naming.DecodeStoragePath(r.ImageURL); ok {
		return path
	}
	return ""
}

// HasRejectedText reports whether all three outcome text fields are populated.
func (r Record) HasRejectedText() bool {
	return strings.TrimSpace(r.Summary) != "" &&
		strings.TrimSpace(r.Message) != "" &&
		strings.TrimSpace(r.InferenceMessage) != ""
}

// NewRecord describes a document to be created by backfill.
type NewRecord struct {
	ProfileID        string
	Date             time.Time
	ImageURL         string
	StoragePath      string
	Rejected         bool
	Summary          string
	Message          string
	InferenceMessage string
}

// Patch describes a merge update adding default rejected outcome text to an
// already-backfilled document.
type Patch struct {
	ID               string
	Summary          string
	Message          string
	InferenceMessage string
}

// User is a raw users document plus identity, left untyped because field
// names drifted across client versions; internal/profiles resolves them.
type User struct {
	ID        string
	CreatedAt time.Time
	Data      map[string]any
}
