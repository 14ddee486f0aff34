package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"photoaudit/internal/cleanup"
	"photoaudit/internal/records"
)

func testCandidates() []cleanup.Candidate {
	return []cleanup.Candidate{
		{
			Record: records.Record{
				ID:        "doc-1",
				ProfileID: "P1",
				Data: map[string]any{
					"id":       "doc-1",
					"rejected": true,
					"summary":  "Rejected",
				},
			},
			Path:      "photoHistory/P1/1700000000000_rejected.jpg",
			Size:      500,
			SizeKnown: true,
		},
		{
			Record: records.Record{ID: "doc-2", ProfileID: "P1", ImageURL: "https://example.org/x"},
			Path:   "photoHistory/P1/1700000001000_rejected.jpg",
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "backup.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	run := NewRun("P1", false)
	if run.Mode != "live" || run.ID == "" {
		t.Fatalf("run = %+v", run)
	}
	if err := store.Archive(context.Background(), run, testCandidates()); err != nil {
		t.Fatalf("archive: %v", err)
	}

	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].ProfileID != "P1" {
		t.Fatalf("runs = %+v", runs)
	}

	docs, err := store.Documents(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}
	if docs[0].DocID != "doc-1" || !docs[0].SizeKnown || docs[0].BlobSize != 500 {
		t.Errorf("first document = %+v", docs[0])
	}
	if docs[0].Payload["summary"] != "Rejected" {
		t.Errorf("payload = %+v", docs[0].Payload)
	}
	// The second candidate had no raw data; its typed fields are preserved.
	if docs[1].Payload["imageUrl"] != "https://example.org/x" {
		t.Errorf("fallback payload = %+v", docs[1].Payload)
	}
}

func TestOpenExistingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	run := NewRun("P1", true)
	if run.Mode != "dry-run" {
		t.Fatalf("mode = %q", run.Mode)
	}
	if err := store.Archive(context.Background(), run, testCandidates()); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.Runs(context.Background())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs after reopen = %d, want 1", len(runs))
	}
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	run := NewRun("P1", false)

	path, err := WriteSnapshot(dir, run, testCandidates())
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.RunID != run.ID || snap.ProfileID != "P1" || len(snap.Documents) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Documents[0].Payload["summary"] != "Rejected" {
		t.Errorf("payload = %+v", snap.Documents[0].Payload)
	}
}
