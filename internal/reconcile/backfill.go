package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"photoaudit/internal/blobs"
	"photoaudit/internal/naming"
	"photoaudit/internal/records"
)

// sampleKeys caps how many missing blob keys a dry run enumerates for audit.
const sampleKeys = 10

// BlobSource is the blob store surface backfill consumes.
type BlobSource interface {
	List(ctx context.Context, prefix string, limit int) ([]blobs.Object, error)
	DownloadToken(ctx context.Context, key string, mint bool) (string, error)
}

// RecordSource is the record store surface backfill consumes.
type RecordSource interface {
	ForProfile(ctx context.Context, profileID string) ([]records.Record, error)
	Create(ctx context.Context, newRecords []records.NewRecord) (int, error)
	PatchRejectedText(ctx context.Context, patches []records.Patch) (int, error)
}

// Options tunes one backfill invocation.
type Options struct {
	DryRun       bool
	OnlyRejected bool
	Since        *time.Time
	SetToken     bool
	LimitFiles   int

	RejectedSummary string
	RejectedMessage string

	// PatchExisting runs the rejected-text patch pass over records this
	// backfill previously created; ForceRejectedText overwrites text that is
	// already present.
	PatchExisting     bool
	ForceRejectedText bool
}

// Stats reports what one subject's backfill found and did.
type Stats struct {
	ProfileID       string
	ExistingRecords int
	ImageFiles      int
	Missing         int
	Created         int
	Skipped         int
	PatchCandidates int
	Patched         int
	SampleMissing   []string
}

// Backfiller diffs blob contents against existing records for one subject at
// a time and creates the missing records.
type Backfiller struct {
	Blobs   BlobSource
	Records RecordSource
	Bucket  string
	Root    string
	Logger  *slog.Logger

	// Now supplies the capture-time fallback of last resort; tests pin it.
	Now func() time.Time
}

// BackfillProfile reconciles one subject. The existing-record index is
// snapshotted once up front; blobs uploaded mid-run are picked up by the next
// invocation.
func (b *Backfiller) BackfillProfile(ctx context.Context, profileID string, opts Options) (Stats, error) {
	stats := Stats{ProfileID: profileID}
	log := b.logger().With("profile", profileID)

	existing, err := b.Records.ForProfile(ctx, profileID)
	if err != nil {
		return stats, fmt.Errorf("load records for %s: %w", profileID, err)
	}
	index := BuildPathIndex(existing)
	stats.ExistingRecords = index.Records()

	if opts.PatchExisting {
		candidates, patched, err := b.patchRejectedText(ctx, existing, opts)
		if err != nil {
			return stats, err
		}
		stats.PatchCandidates = candidates
		stats.Patched = patched
	}

	prefix := naming.SubjectPrefix(b.Root, profileID)
	objects, err := b.Blobs.List(ctx, prefix, opts.LimitFiles)
	if err != nil {
		return stats, fmt.Errorf("list blobs under %s: %w", prefix, err)
	}

	var missing []blobs.Object
	for _, obj := range objects {
		if !naming.IsImageName(obj.Key) {
			continue
		}
		if !strings.Contains(obj.Key, "/"+profileID+"/") {
			continue
		}
		stats.ImageFiles++

		if index.ContainsPath(obj.Key) {
			continue
		}
		bareURL := naming.BuildDownloadURL(b.Bucket, obj.Key, "")
		if index.ContainsURL(bareURL) {
			continue
		}
		if opts.OnlyRejected && !naming.IsRejectedName(obj.Key) {
			continue
		}
		if opts.Since != nil {
			// Files whose name yields no capture time fail open.
			if inferred, ok := naming.InferCaptureTime(obj.Key); ok && inferred.Before(*opts.Since) {
				continue
			}
		}
		missing = append(missing, obj)
	}

	stats.Missing = len(missing)
	stats.Skipped = stats.ImageFiles - len(missing)

	for i, obj := range missing {
		if i >= sampleKeys {
			break
		}
		stats.SampleMissing = append(stats.SampleMissing, obj.Key)
	}

	if len(missing) == 0 || opts.DryRun {
		log.Info("backfill diff complete",
			"existing", stats.ExistingRecords,
			"images", stats.ImageFiles,
			"missing", stats.Missing,
			"dry_run", opts.DryRun)
		return stats, nil
	}

	newRecords := make([]records.NewRecord, 0, len(missing))
	for _, obj := range missing {
		rejected := naming.IsRejectedName(obj.Key)

		captured, ok := naming.InferCaptureTime(obj.Key)
		if !ok {
			captured = obj.Created
			if captured.IsZero() {
				captured = b.now()
			}
		}

		token, err := b.Blobs.DownloadToken(ctx, obj.Key, opts.SetToken)
		if err != nil {
			log.Warn("download token unavailable, writing tokenless url",
				"key", obj.Key, "error", err)
			token = ""
		}

		nr := records.NewRecord{
			ProfileID:   profileID,
			Date:        captured,
			ImageURL:    naming.BuildDownloadURL(b.Bucket, obj.Key, token),
			StoragePath: obj.Key,
			Rejected:    rejected,
		}
		if rejected {
			nr.Summary = opts.RejectedSummary
			nr.Message = opts.RejectedSummary
			nr.InferenceMessage = messageOrSummary(opts)
		}
		newRecords = append(newRecords, nr)
	}

	created, err := b.Records.Create(ctx, newRecords)
	stats.Created = created
	if err != nil {
		return stats, fmt.Errorf("create records for %s: %w", profileID, err)
	}

	log.Info("backfill complete",
		"existing", stats.ExistingRecords,
		"images", stats.ImageFiles,
		"missing", stats.Missing,
		"created", stats.Created)
	return stats, nil
}

func (b *Backfiller) patchRejectedText(ctx context.Context, existing []records.Record, opts Options) (int, int, error) {
	var patches []records.Patch
	for _, rec := range existing {
		if !rec.Backfilled() || !rec.Rejected {
			continue
		}
		if !opts.ForceRejectedText && rec.HasRejectedText() {
			continue
		}
		patches = append(patches, records.Patch{
			ID:               rec.ID,
			Summary:          opts.RejectedSummary,
			Message:          opts.RejectedSummary,
			InferenceMessage: messageOrSummary(opts),
		})
	}
	if len(patches) == 0 || opts.DryRun {
		return len(patches), 0, nil
	}
	patched, err := b.Records.PatchRejectedText(ctx, patches)
	if err != nil {
		return len(patches), patched, fmt.Errorf("patch rejected text: %w", err)
	}
	return len(patches), patched, nil
}

func messageOrSummary(opts Options) string {
	if opts.RejectedMessage != "" {
		return opts.RejectedMessage
	}
	return opts.RejectedSummary
}

func (b *Backfiller) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Backfiller) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}
