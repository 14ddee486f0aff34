// Package testsupport provides in-memory stand-ins for the blob and record
// stores so reconciliation logic can be exercised without network clients.
package testsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"photoaudit/internal/blobs"
	"photoaudit/internal/records"
)

// FakeBlobStore holds objects in memory and answers the listing, sizing, and
// token operations the reconciliation packages consume.
type FakeBlobStore struct {
	mu      sync.Mutex
	Objects map[string]blobs.Object

	// TokenErr simulates a per-object token mint/read failure.
	TokenErr map[string]error

	MetadataWrites int
	mintSeq        int
}

// NewFakeBlobStore builds a store from the given objects.
func NewFakeBlobStore(objects ...blobs.Object) *FakeBlobStore {
	f := &FakeBlobStore{Objects: make(map[string]blobs.Object, len(objects))}
	for _, obj := range objects {
		f.Objects[obj.Key] = obj
	}
	return f
}

// Put inserts or replaces an object.
func (f *FakeBlobStore) Put(obj blobs.Object) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[obj.Key] = obj
}

// List returns objects under prefix in key order.
func (f *FakeBlobStore) List(_ context.Context, prefix string, limit int) ([]blobs.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []blobs.Object
	for key, obj := range f.Objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SubjectPrefixes derives the subject folders present under root.
func (f *FakeBlobStore) SubjectPrefixes(_ context.Context, root string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	seen := map[string]struct{}{}
	var subjects []string
	for key := range f.Objects {
		if !strings.HasPrefix(key, root) {
			continue
		}
		rest := strings.TrimPrefix(key, root)
		subject, _, found := strings.Cut(rest, "/")
		if !found || subject == "" {
			continue
		}
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Size returns the byte size of one object.
func (f *FakeBlobStore) Size(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.Objects[key]
	if !ok {
		return 0, fmt.Errorf("object %s not found", key)
	}
	return obj.Size, nil
}

// DownloadToken mirrors the real client: existing metadata token wins, a new
// deterministic token is minted when allowed.
func (f *FakeBlobStore) DownloadToken(_ context.Context, key string, mint bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.TokenErr[key]; err != nil {
		return "", err
	}
	obj, ok := f.Objects[key]
	if !ok {
		return "", fmt.Errorf("object %s not found", key)
	}
	if token := blobs.ExistingToken(obj.Metadata); token != "" {
		return token, nil
	}
	if !mint {
		return "", nil
	}

	f.mintSeq++
	token := fmt.Sprintf("minted-%04d", f.mintSeq)
	metadata := make(map[string]string, len(obj.Metadata)+1)
	for k, v := range obj.Metadata {
		metadata[k] = v
	}
	metadata["firebaseStorageDownloadTokens"] = token
	obj.Metadata = metadata
	f.Objects[key] = obj
	f.MetadataWrites++
	return token, nil
}

// FakeRecordStore holds photoHistory documents in memory.
type FakeRecordStore struct {
	mu      sync.Mutex
	Records []records.Record

	// CreateErr fails the first create batch when set.
	CreateErr error

	Deleted []string

	idSeq int
	clock time.Time
}

// NewFakeRecordStore seeds the store with existing records.
func NewFakeRecordStore(recs ...records.Record) *FakeRecordStore {
	return &FakeRecordStore{
		Records: append([]records.Record(nil), recs...),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ForProfile returns all records for a subject.
func (f *FakeRecordStore) ForProfile(_ context.Context, profileID string) ([]records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []records.Record
	for _, rec := range f.Records {
		if rec.ProfileID == profileID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RejectedForProfile returns a subject's rejected records.
func (f *FakeRecordStore) RejectedForProfile(ctx context.Context, profileID string) ([]records.Record, error) {
	all, err := f.ForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	var out []records.Record
	for _, rec := range all {
		if rec.Rejected {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Create materializes new backfilled records with assigned ids and strictly
// increasing create times.
func (f *FakeRecordStore) Create(_ context.Context, newRecords []records.NewRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		err := f.CreateErr
		f.CreateErr = nil
		return 0, err
	}

	for _, nr := range newRecords {
		f.idSeq++
		f.clock = f.clock.Add(time.Second)
		f.Records = append(f.Records, records.Record{
			ID:               fmt.Sprintf("doc-%04d", f.idSeq),
			ProfileID:        nr.ProfileID,
			Date:             nr.Date,
			CapturedAt:       nr.Date,
			ImageURL:         nr.ImageURL,
			StoragePath:      nr.StoragePath,
			Rejected:         nr.Rejected,
			Summary:          nr.Summary,
			Message:          nr.Message,
			InferenceMessage: nr.InferenceMessage,
			BackfillSource:   records.SourceStorage,
			CreateTime:       f.clock,
		})
	}
	return len(newRecords), nil
}

// PatchRejectedText applies merge patches by document id.
func (f *FakeRecordStore) PatchRejectedText(_ context.Context, patches []records.Patch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	patched := 0
	for _, p := range patches {
		for i := range f.Records {
			if f.Records[i].ID != p.ID {
				continue
			}
			f.Records[i].Summary = p.Summary
			f.Records[i].Message = p.Message
			f.Records[i].InferenceMessage = p.InferenceMessage
			patched++
		}
	}
	return patched, nil
}

// Delete removes documents by id and remembers what was deleted.
func (f *FakeRecordStore) Delete(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := f.Records[:0]
	deleted := 0
	for _, rec := range f.Records {
		if _, ok := drop[rec.ID]; ok {
			deleted++
			f.Deleted = append(f.Deleted, rec.ID)
			continue
		}
		kept = append(kept, rec)
	}
	f.Records = kept
	return deleted, nil
}

// Get returns a record by id.
func (f *FakeRecordStore) Get(id string) (records.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return records.Record{}, false
}
