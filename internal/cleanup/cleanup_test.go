package cleanup

import (
	"context"
	"testing"
	"time"

	"photoaudit/internal/blobs"
	"photoaudit/internal/records"
	"photoaudit/internal/testsupport"
)

func at(hour int) time.Time {
	return time.Date(2026, 1, 15, hour, 0, 0, 0, time.UTC)
}

func backfilledRejected(id, profileID, path string, created time.Time) records.Record {
	return records.Record{
		ID:             id,
		ProfileID:      profileID,
		StoragePath:    path,
		Rejected:       true,
		BackfillSource: records.SourceStorage,
		CreateTime:     created,
	}
}

func newEngine(blobStore *testsupport.FakeBlobStore, recordStore *testsupport.FakeRecordStore) *Engine {
	return &Engine{Blobs: blobStore, Records: recordStore}
}

func TestCleanupKeepsNewestWhenNoOriginalMatches(t *testing.T) {
	// Sizes 500/500/700 at t1<t2<t3 plus one original of a different size.
	// Only the t1 record goes.
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P2/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P2/b.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P2/c.jpg", Size: 700},
		blobs.Object{Key: "photoHistory/P2/orig.jpg", Size: 900},
	)
	recordStore := testsupport.NewFakeRecordStore(
		backfilledRejected("t1", "P2", "photoHistory/P2/a.jpg", at(1)),
		backfilledRejected("t2", "P2", "photoHistory/P2/b.jpg", at(2)),
		backfilledRejected("t3", "P2", "photoHistory/P2/c.jpg", at(3)),
		records.Record{
			ID: "orig", ProfileID: "P2",
			StoragePath: "photoHistory/P2/orig.jpg", Rejected: true,
		},
	)
	engine := newEngine(blobStore, recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P2", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", res.Deleted)
	}
	if _, ok := recordStore.Get("t1"); ok {
		t.Error("t1 survived, expected deletion")
	}
	for _, id := range []string{"t2", "t3", "orig"} {
		if _, ok := recordStore.Get(id); !ok {
			t.Errorf("%s was deleted, expected survival", id)
		}
	}
	if res.DuplicateGroups != 1 || res.Groups != 2 {
		t.Errorf("groups/dupGroups = %d/%d, want 2/1", res.Groups, res.DuplicateGroups)
	}
}

func TestCleanupDeletesAllWhenOriginalMatchesSize(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/b.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/c.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/orig.jpg", Size: 500},
	)
	recordStore := testsupport.NewFakeRecordStore(
		backfilledRejected("b1", "P1", "photoHistory/P1/a.jpg", at(1)),
		backfilledRejected("b2", "P1", "photoHistory/P1/b.jpg", at(2)),
		backfilledRejected("b3", "P1", "photoHistory/P1/c.jpg", at(3)),
		records.Record{
			ID: "orig", ProfileID: "P1",
			StoragePath: "photoHistory/P1/orig.jpg", Rejected: true,
		},
	)
	engine := newEngine(blobStore, recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 3 {
		t.Fatalf("deleted = %d, want 3", res.Deleted)
	}
	if _, ok := recordStore.Get("orig"); !ok {
		t.Fatal("original record was deleted")
	}
	if res.RejectedAfter != 1 {
		t.Errorf("rejectedAfter = %d, want 1 (the original)", res.RejectedAfter)
	}
}

func TestCleanupSafetyGateExcludesMiscategorizedRecord(t *testing.T) {
	// Force a candidate that fails the final re-check by planting a
	// non-backfilled record directly into a plan's candidate list.
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/b.jpg", Size: 500},
	)
	recordStore := testsupport.NewFakeRecordStore(
		backfilledRejected("b1", "P1", "photoHistory/P1/a.jpg", at(1)),
		backfilledRejected("b2", "P1", "photoHistory/P1/b.jpg", at(2)),
		records.Record{ID: "orig", ProfileID: "P1", Rejected: true},
	)
	engine := newEngine(blobStore, recordStore)

	plan, err := engine.Plan(context.Background(), "P1")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan.Candidates = append(plan.Candidates,
		Candidate{Record: records.Record{ID: "orig", ProfileID: "P1", Rejected: true}},
		Candidate{Record: records.Record{ID: "good", ProfileID: "P1", BackfillSource: records.SourceStorage}},
	)

	res, err := engine.Execute(context.Background(), plan, false)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.SafetyExcluded != 2 {
		t.Errorf("safetyExcluded = %d, want 2", res.SafetyExcluded)
	}
	if res.Intended != 3 || res.Deleted != 1 {
		t.Errorf("intended/deleted = %d/%d, want 3/1", res.Intended, res.Deleted)
	}
	if _, ok := recordStore.Get("orig"); !ok {
		t.Error("original record was deleted despite safety gate")
	}
}

func TestCleanupNeverTouchesNormalOrOriginalRecords(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/b.jpg", Size: 500},
	)
	recordStore := testsupport.NewFakeRecordStore(
		records.Record{ID: "normal", ProfileID: "P1", StoragePath: "photoHistory/P1/n.jpg"},
		records.Record{ID: "origRejected", ProfileID: "P1", Rejected: true},
		backfilledRejected("b1", "P1", "photoHistory/P1/a.jpg", at(1)),
		backfilledRejected("b2", "P1", "photoHistory/P1/b.jpg", at(2)),
	)
	engine := newEngine(blobStore, recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	for _, id := range []string{"normal", "origRejected"} {
		if _, ok := recordStore.Get(id); !ok {
			t.Errorf("%s was deleted", id)
		}
	}
	if res.NormalCount != 1 || res.Originals != 1 {
		t.Errorf("normal/originals = %d/%d, want 1/1", res.NormalCount, res.Originals)
	}
	if res.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", res.Deleted)
	}
}

func TestCleanupNoBackfilledReturnsEarly(t *testing.T) {
	recordStore := testsupport.NewFakeRecordStore(
		records.Record{ID: "normal", ProfileID: "P1"},
		records.Record{ID: "orig", ProfileID: "P1", Rejected: true},
	)
	engine := newEngine(testsupport.NewFakeBlobStore(), recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 0 || res.Groups != 0 {
		t.Errorf("deleted/groups = %d/%d, want 0/0", res.Deleted, res.Groups)
	}
	if res.Kept != 1 || res.RejectedAfter != 1 {
		t.Errorf("kept/rejectedAfter = %d/%d, want 1/1", res.Kept, res.RejectedAfter)
	}
}

func TestCleanupUnknownSizeGroupKeepsNewest(t *testing.T) {
	// Blobs are gone, so every size lookup fails and both records land in
	// the unknown group; the newer one survives.
	recordStore := testsupport.NewFakeRecordStore(
		backfilledRejected("b1", "P1", "photoHistory/P1/gone1.jpg", at(1)),
		backfilledRejected("b2", "P1", "photoHistory/P1/gone2.jpg", at(2)),
	)
	engine := newEngine(testsupport.NewFakeBlobStore(), recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1", res.Deleted)
	}
	if _, ok := recordStore.Get("b2"); !ok {
		t.Error("newest record b2 was deleted")
	}
	if _, ok := recordStore.Get("b1"); ok {
		t.Error("b1 survived, expected deletion")
	}
}

func TestCleanupDryRunDeletesNothing(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/b.jpg", Size: 500},
	)
	recordStore := testsupport.NewFakeRecordStore(
		backfilledRejected("b1", "P1", "photoHistory/P1/a.jpg", at(1)),
		backfilledRejected("b2", "P1", "photoHistory/P1/b.jpg", at(2)),
	)
	engine := newEngine(blobStore, recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", true)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 1 || res.Intended != 1 {
		t.Errorf("dry-run deleted/intended = %d/%d, want 1/1", res.Deleted, res.Intended)
	}
	if len(recordStore.Deleted) != 0 {
		t.Errorf("store deletions = %v, want none", recordStore.Deleted)
	}
}

func TestCleanupResolvesPathFromImageURL(t *testing.T) {
	blobStore := testsupport.NewFakeBlobStore(
		blobs.Object{Key: "photoHistory/P1/a.jpg", Size: 500},
		blobs.Object{Key: "photoHistory/P1/b.jpg", Size: 500},
	)
	recordStore := testsupport.NewFakeRecordStore(
		records.Record{
			ID: "b1", ProfileID: "P1", Rejected: true,
			BackfillSource: records.SourceStorage,
			ImageURL:       "https://firebasestorage.googleapis.com/v0/b/b/o/photoHistory%2FP1%2Fa.jpg?alt=media&token=t",
			CreateTime:     at(1),
		},
		backfilledRejected("b2", "P1", "photoHistory/P1/b.jpg", at(2)),
	)
	engine := newEngine(blobStore, recordStore)

	res, err := engine.CleanupProfile(context.Background(), "P1", false)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("deleted = %d, want 1 (same size via decoded url)", res.Deleted)
	}
	if _, ok := recordStore.Get("b1"); ok {
		t.Error("older b1 survived, expected deletion")
	}
}
