package orphans

import (
	"context"
	"fmt"
	"sort"
	"time"

	"photoaudit/internal/blobs"
	"photoaudit/internal/naming"
	"photoaudit/internal/reconcile"
	"photoaudit/internal/records"
)

// BlobLister is the blob store surface the audit consumes.
type BlobLister interface {
	List(ctx context.Context, prefix string, limit int) ([]blobs.Object, error)
}

// RecordSource is the record store surface the audit consumes.
type RecordSource interface {
	ForProfile(ctx context.Context, profileID string) ([]records.Record, error)
}

// File is one classified blob.
type File struct {
	StoragePath string
	CapturedAt  time.Time
	HasCapture  bool
	Rejected    bool
}

// Group is a set of orphaned files sharing an inferred capture instant,
// the signature of the duplicate-upload bug.
type Group struct {
	CapturedAt time.Time
	Files      []string
}

// Analysis summarizes one subject.
type Analysis struct {
	ProfileID  string
	TotalFiles int
	Valid      int
	Orphans    []File
	Duplicates []Group
}

// Analyzer classifies blobs against the record store.
type Analyzer struct {
	Blobs   BlobLister
	Records RecordSource
	Bucket  string
	Root    string
}

// AnalyzeProfile audits one subject from single snapshot reads of both stores.
func (a *Analyzer) AnalyzeProfile(ctx context.Context, profileID string) (Analysis, error) {
	analysis := Analysis{ProfileID: profileID}

	prefix := naming.SubjectPrefix(a.Root, profileID)
	objects, err := a.Blobs.List(ctx, prefix, 0)
	if err != nil {
		return analysis, fmt.Errorf("list blobs under %s: %w", prefix, err)
	}

	recs, err := a.Records.ForProfile(ctx, profileID)
	if err != nil {
		return analysis, fmt.Errorf("load records for %s: %w", profileID, err)
	}
	index := reconcile.BuildPathIndex(recs)

	byCapture := make(map[int64][]string)
	for _, obj := range objects {
		if !naming.IsImageName(obj.Key) {
			continue
		}
		analysis.TotalFiles++

		bareURL := naming.BuildDownloadURL(a.Bucket, obj.Key, "")
		if index.ContainsPath(obj.Key) || index.ContainsURL(bareURL) {
			analysis.Valid++
			continue
		}

		captured, hasCapture := naming.InferCaptureTime(obj.Key)
		analysis.Orphans = append(analysis.Orphans, File{
			StoragePath: obj.Key,
			CapturedAt:  captured,
			HasCapture:  hasCapture,
			Rejected:    naming.IsRejectedName(obj.Key),
		})
		if hasCapture {
			ms := captured.UnixMilli()
			byCapture[ms] = append(byCapture[ms], obj.Key)
		}
	}

	var instants []int64
	for ms, files := range byCapture {
		if len(files) > 1 {
			instants = append(instants, ms)
		}
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i] < instants[j] })
	for _, ms := range instants {
		files := byCapture[ms]
		sort.Strings(files)
		analysis.Duplicates = append(analysis.Duplicates, Group{
			CapturedAt: time.UnixMilli(ms).UTC(),
			Files:      files,
		})
	}

	return analysis, nil
}
