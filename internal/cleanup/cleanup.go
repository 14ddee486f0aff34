package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"photoaudit/internal/records"
)

// unknownSizeKey groups records whose blob size could not be determined.
const unknownSizeKey = "unknown"

// BlobSizer is the blob store surface cleanup consumes.
type BlobSizer interface {
	Size(ctx context.Context, key string) (int64, error)
}

// RecordSource is the record store surface cleanup consumes.
type RecordSource interface {
	ForProfile(ctx context.Context, profileID string) ([]records.Record, error)
	Delete(ctx context.Context, ids []string) (int, error)
}

// Candidate is one record scheduled for deletion, annotated with its resolved
// blob key and byte size.
type Candidate struct {
	Record    records.Record
	Path      string
	Size      int64
	SizeKnown bool
}

// Plan is the outcome of the grouping pass for one subject: counts for
// reporting plus the intended delete set. Nothing has been mutated yet.
type Plan struct {
	ProfileID string

	NormalCount     int
	RejectedBefore  int
	Originals       int
	BackfilledTotal int
	Groups          int
	DuplicateGroups int
	KeptBackfilled  int

	Candidates []Candidate
}

// Result reports one subject's executed (or dry-run) cleanup.
type Result struct {
	ProfileID string

	Kept            int
	Deleted         int
	Groups          int
	DuplicateGroups int
	Originals       int
	BackfilledTotal int

	NormalCount    int
	RejectedBefore int
	RejectedAfter  int

	Intended       int
	SafetyExcluded int
}

// Engine groups a subject's backfilled rejected records and deletes the
// redundant ones.
type Engine struct {
	Blobs   BlobSizer
	Records RecordSource
	Logger  *slog.Logger
}

type sized struct {
	record records.Record
	path   string
	size   int64
	known  bool
}

// Plan computes the delete set for one subject from a single snapshot read.
func (e *Engine) Plan(ctx context.Context, profileID string) (*Plan, error) {
	all, err := e.Records.ForProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load records for %s: %w", profileID, err)
	}

	plan := &Plan{ProfileID: profileID}

	var rejected []records.Record
	for _, rec := range all {
		if rec.Rejected {
			rejected = append(rejected, rec)
		} else {
			plan.NormalCount++
		}
	}
	plan.RejectedBefore = len(rejected)

	var originals, backfilled []records.Record
	for _, rec := range rejected {
		if rec.Backfilled() {
			backfilled = append(backfilled, rec)
		} else {
			originals = append(originals, rec)
		}
	}
	plan.Originals = len(originals)
	plan.BackfilledTotal = len(backfilled)

	if len(backfilled) == 0 {
		return plan, nil
	}

	groups := make(map[string][]sized)
	var keys []string
	for _, rec := range backfilled {
		entry := e.measure(ctx, rec)
		key := unknownSizeKey
		if entry.known {
			key = strconv.FormatInt(entry.size, 10)
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], entry)
	}
	sort.Strings(keys)
	plan.Groups = len(groups)

	var originalSizes map[int64]struct{}
	for _, key := range keys {
		if len(groups[key]) > 1 {
			originalSizes = e.originalSizes(ctx, originals)
			break
		}
	}

	for _, key := range keys {
		group := groups[key]
		if len(group) <= 1 {
			plan.KeptBackfilled += len(group)
			continue
		}
		plan.DuplicateGroups++

		hasOriginal := false
		if key != unknownSizeKey {
			groupSize, _ := strconv.ParseInt(key, 10, 64)
			_, hasOriginal = originalSizes[groupSize]
		}

		if hasOriginal {
			// The original is the authoritative copy; every backfilled
			// duplicate is redundant.
			for _, entry := range group {
				plan.Candidates = append(plan.Candidates, toCandidate(entry))
			}
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].record.CreateTime.After(group[j].record.CreateTime)
		})
		plan.KeptBackfilled++
		for _, entry := range group[1:] {
			plan.Candidates = append(plan.Candidates, toCandidate(entry))
		}
	}

	return plan, nil
}

// Execute applies a plan. The safety gate re-checks every candidate's own
// fields; anything that is not simultaneously rejected and backfilled is
// logged and dropped from the delete set. In dry-run mode counts are computed
// but nothing is deleted.
func (e *Engine) Execute(ctx context.Context, plan *Plan, dryRun bool) (Result, error) {
	res := Result{
		ProfileID:       plan.ProfileID,
		Groups:          plan.Groups,
		DuplicateGroups: plan.DuplicateGroups,
		Originals:       plan.Originals,
		BackfilledTotal: plan.BackfilledTotal,
		NormalCount:     plan.NormalCount,
		RejectedBefore:  plan.RejectedBefore,
		Intended:        len(plan.Candidates),
	}

	safe := make([]string, 0, len(plan.Candidates))
	for _, cand := range plan.Candidates {
		rec := cand.Record
		if rec.Rejected && rec.Backfilled() {
			safe = append(safe, rec.ID)
			continue
		}
		res.SafetyExcluded++
		e.logger().Warn("refusing to delete record that is not rejected+backfilled",
			"profile", plan.ProfileID,
			"doc", rec.ID,
			"rejected", rec.Rejected,
			"backfill_source", rec.BackfillSource)
	}

	res.Deleted = len(safe)
	if !dryRun && len(safe) > 0 {
		deleted, err := e.Records.Delete(ctx, safe)
		res.Deleted = deleted
		if err != nil {
			return res, fmt.Errorf("delete records for %s: %w", plan.ProfileID, err)
		}
	}

	res.Kept = plan.KeptBackfilled + plan.Originals
	res.RejectedAfter = res.Kept
	return res, nil
}

// CleanupProfile plans and executes in one call.
func (e *Engine) CleanupProfile(ctx context.Context, profileID string, dryRun bool) (Result, error) {
	plan, err := e.Plan(ctx, profileID)
	if err != nil {
		return Result{ProfileID: profileID}, err
	}
	return e.Execute(ctx, plan, dryRun)
}

func (e *Engine) measure(ctx context.Context, rec records.Record) sized {
	entry := sized{record: rec, path: rec.ResolvePath()}
	if entry.path == "" {
		return entry
	}
	size, err := e.Blobs.Size(ctx, entry.path)
	if err != nil {
		// Unreadable blobs group under the unknown key rather than failing
		// the subject.
		e.logger().Warn("blob size unavailable", "key", entry.path, "error", err)
		return entry
	}
	entry.size = size
	entry.known = true
	return entry
}

func (e *Engine) originalSizes(ctx context.Context, originals []records.Record) map[int64]struct{} {
	sizes := make(map[int64]struct{}, len(originals))
	for _, rec := range originals {
		path := rec.ResolvePath()
		if path == "" {
			continue
		}
		size, err := e.Blobs.Size(ctx, path)
		if err != nil {
			continue
		}
		sizes[size] = struct{}{}
	}
	return sizes
}

func toCandidate(entry sized) Candidate {
	return Candidate{
		Record:    entry.record,
		Path:      entry.path,
		Size:      entry.size,
		SizeKnown: entry.known,
	}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
