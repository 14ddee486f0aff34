package orphans

import (
	"context"
	"testing"

	"photoaudit/internal/blobs"
	"photoaudit/internal/naming"
	"photoaudit/internal/records"
	"photoaudit/internal/testsupport"
)

func TestAnalyzeProfileClassifiesAndGroups(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		// Referenced by explicit storagePath: valid.
		blobs.Object{Key: "photoHistory/P1/1700000000000.jpg"},
		// Referenced only through a tokened url: valid.
		blobs.Object{Key: "photoHistory/P1/1700000000500.jpg"},
		// Two orphans sharing the same embedded timestamp: a duplicate group.
		blobs.Object{Key: "photoHistory/P1/1700000001000_rejected.jpg"},
		blobs.Object{Key: "photoHistory/P1/P1_1700000001000_rejected.jpg"},
		// Orphan without an inferable capture time.
		blobs.Object{Key: "photoHistory/P1/scan.jpg"},
		// Not an image; ignored entirely.
		blobs.Object{Key: "photoHistory/P1/readme.txt"},
	)
	recordStore := testsupport.NewFakeRecordStore(
		records.Record{ID: "r1", ProfileID: "P1", StoragePath: "photoHistory/P1/1700000000000.jpg"},
		records.Record{ID: "r2", ProfileID: "P1", ImageURL: naming.BuildDownloadURL("b", "photoHistory/P1/1700000000500.jpg", "tok")},
	)
	a := &Analyzer{Blobs: blobStore, Records: recordStore, Bucket: "b", Root: naming.KeyRoot}

	got, err := a.AnalyzeProfile(context.Background(), "P1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.TotalFiles != 5 {
		t.Errorf("total files = %d, want 5", got.TotalFiles)
	}
	if got.Valid != 2 {
		t.Errorf("valid = %d, want 2", got.Valid)
	}
	if len(got.Orphans) != 3 {
		t.Fatalf("orphans = %d, want 3", len(got.Orphans))
	}
	if len(got.Duplicates) != 1 {
		t.Fatalf("duplicate groups = %d, want 1", len(got.Duplicates))
	}
	group := got.Duplicates[0]
	if group.CapturedAt.UnixMilli() != 1700000001000 || len(group.Files) != 2 {
		t.Errorf("group = %+v", group)
	}
}

func TestAnalyzeProfileNoOrphans(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/1700000000000.jpg"},
	)
	recordStore := testsupport.NewFakeRecordStore(
		records.Record{ID: "r1", ProfileID: "P1", StoragePath: "photoHistory/P1/1700000000000.jpg"},
	)
	a := &Analyzer{Blobs: blobStore, Records: recordStore, Bucket: "b", Root: naming.KeyRoot}

	got, err := a.AnalyzeProfile(context.Background(), "P1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(got.Orphans) != 0 || got.Valid != 1 {
		t.Errorf("orphans/valid = %d/%d, want 0/1", len(got.Orphans), got.Valid)
	}
}
