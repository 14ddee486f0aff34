// Package counts compares per-subject photo tallies between the record store
// and the blob store. Differences point at drift the backfill and cleanup
// tools exist to repair; backfilled records are tallied separately so the
// comparison reflects what the capture client actually wrote.
package counts

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"photoaudit/internal/blobs"
	"photoaudit/internal/naming"
	"photoaudit/internal/records"
)

// BlobLister is the blob store surface counting consumes.
type BlobLister interface {
	List(ctx context.Context, prefix string, limit int) ([]blobs.Object, error)
}

// RecordSource is the record store surface counting consumes.
type RecordSource interface {
	ForProfile(ctx context.Context, profileID string) ([]records.Record, error)
}

// RecordCounts tallies one subject's documents. Backfilled documents are
// excluded from Rejected/Correct/Total.
type RecordCounts struct {
	Rejected   int
	Correct    int
	Backfilled int
	Total      int
}

// BlobCounts tallies one subject's image files by naming convention.
type BlobCounts struct {
	Rejected int
	Correct  int
	Total    int
}

// Comparison is one subject's side-by-side tally.
type Comparison struct {
	ProfileID string
	Records   RecordCounts
	Blobs     BlobCounts
}

// DiffRejected returns blob-store rejected minus record-store rejected.
func (c Comparison) DiffRejected() int { return c.Blobs.Rejected - c.Records.Rejected }

// DiffCorrect returns blob-store correct minus record-store correct.
func (c Comparison) DiffCorrect() int { return c.Blobs.Correct - c.Records.Correct }

// DiffTotal returns blob-store total minus record-store total.
func (c Comparison) DiffTotal() int { return c.Blobs.Total - c.Records.Total }

// Counter tallies both stores.
type Counter struct {
	Blobs   BlobLister
	Records RecordSource
	Root    string
}

// CompareProfile fetches both sides concurrently and returns the tally.
func (c *Counter) CompareProfile(ctx context.Context, profileID string) (Comparison, error) {
	cmp := Comparison{ProfileID: profileID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := c.Records.ForProfile(ctx, profileID)
		if err != nil {
			return fmt.Errorf("load records for %s: %w", profileID, err)
		}
		for _, rec := range recs {
			if rec.Backfilled() {
				cmp.Records.Backfilled++
				continue
			}
			if rec.Rejected {
				cmp.Records.Rejected++
			} else {
				cmp.Records.Correct++
			}
		}
		cmp.Records.Total = cmp.Records.Rejected + cmp.Records.Correct
		return nil
	})
	g.Go(func() error {
		prefix := naming.SubjectPrefix(c.Root, profileID)
		objects, err := c.Blobs.List(ctx, prefix, 0)
		if err != nil {
			return fmt.Errorf("list blobs under %s: %w", prefix, err)
		}
		for _, obj := range objects {
			if !naming.IsImageName(obj.Key) {
				continue
			}
			if naming.IsRejectedName(obj.Key) {
				cmp.Blobs.Rejected++
			} else {
				cmp.Blobs.Correct++
			}
		}
		cmp.Blobs.Total = cmp.Blobs.Rejected + cmp.Blobs.Correct
		return nil
	})
	if err := g.Wait(); err != nil {
		return Comparison{ProfileID: profileID}, err
	}
	return cmp, nil
}
