package report

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"photoaudit/internal/cleanup"
	"photoaudit/internal/counts"
	"photoaudit/internal/orphans"
	"photoaudit/internal/profiles"
	"photoaudit/internal/reconcile"
)

// BackfillRow joins one subject's backfill stats with its study metadata.
type BackfillRow struct {
	Profile profiles.Profile
	Stats   reconcile.Stats
}

// CleanupRow joins one subject's cleanup result with its study metadata.
type CleanupRow struct {
	Profile profiles.Profile
	Result  cleanup.Result
}

// Writer renders summaries to a terminal or log sink.
type Writer struct {
	Out io.Writer
}

func (w *Writer) printer() *message.Printer {
	return message.NewPrinter(language.English)
}

func (w *Writer) styled() bool {
	return isTerminal(w.Out)
}

// Backfill prints the per-subject backfill table and run totals.
func (w *Writer) Backfill(rows []BackfillRow, dryRun bool) {
	headers := []string{"Subject", "REDCap", "Records", "Files", "Missing", "Created", "Skipped", "Patched"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	var totalMissing, totalCreated, totalPatched int
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		s := row.Stats
		totalMissing += s.Missing
		totalCreated += s.Created
		totalPatched += s.Patched
		body = append(body, []string{
			s.ProfileID,
			row.Profile.RedcapCode,
			strconv.Itoa(s.ExistingRecords),
			strconv.Itoa(s.ImageFiles),
			strconv.Itoa(s.Missing),
			strconv.Itoa(s.Created),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Patched),
		})
	}
	fmt.Fprintln(w.Out, renderTable(headers, body, aligns, w.styled()))

	p := w.printer()
	verb := "created"
	if dryRun {
		verb = "would create"
	}
	p.Fprintf(w.Out, "%d subjects, %d missing records, %s %d, patched %d\n",
		len(rows), totalMissing, verb, totalCreated, totalPatched)
}

// Cleanup prints the per-subject cleanup table and run totals.
func (w *Writer) Cleanup(rows []CleanupRow, dryRun bool) {
	headers := []string{"Subject", "Normal", "Rejected", "Backfilled", "Groups", "Dups", "Kept", "Deleted", "Excluded"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	var totalBackfilled, totalDeleted, totalExcluded int
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		r := row.Result
		totalBackfilled += r.BackfilledTotal
		totalDeleted += r.Deleted
		totalExcluded += r.SafetyExcluded
		body = append(body, []string{
			r.ProfileID,
			strconv.Itoa(r.NormalCount),
			strconv.Itoa(r.RejectedBefore),
			strconv.Itoa(r.BackfilledTotal),
			strconv.Itoa(r.Groups),
			strconv.Itoa(r.DuplicateGroups),
			strconv.Itoa(r.Kept),
			strconv.Itoa(r.Deleted),
			strconv.Itoa(r.SafetyExcluded),
		})
	}
	fmt.Fprintln(w.Out, renderTable(headers, body, aligns, w.styled()))

	p := w.printer()
	verb := "deleted"
	if dryRun {
		verb = "would delete"
	}
	p.Fprintf(w.Out, "%d subjects, %d backfilled records, %s %d (%s reduction), safety-excluded %d\n",
		len(rows), totalBackfilled, verb, totalDeleted, ReductionPercent(totalDeleted, totalBackfilled), totalExcluded)
}

// Orphans prints the per-subject audit table with duplicate-cluster counts.
func (w *Writer) Orphans(analyses []orphans.Analysis) {
	headers := []string{"Subject", "Files", "Valid", "Orphans", "Dup groups"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight}

	var totalOrphans int
	body := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		totalOrphans += len(a.Orphans)
		body = append(body, []string{
			a.ProfileID,
			strconv.Itoa(a.TotalFiles),
			strconv.Itoa(a.Valid),
			strconv.Itoa(len(a.Orphans)),
			strconv.Itoa(len(a.Duplicates)),
		})
	}
	fmt.Fprintln(w.Out, renderTable(headers, body, aligns, w.styled()))

	w.printer().Fprintf(w.Out, "%d subjects, %d orphaned files\n", len(analyses), totalOrphans)
}

// Counts prints the record-versus-blob comparison table.
func (w *Writer) Counts(cmps []counts.Comparison) {
	headers := []string{"Subject", "Rec rejected", "Rec correct", "Backfilled", "Blob rejected", "Blob correct", "Diff"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	var drift int
	body := make([][]string, 0, len(cmps))
	for _, c := range cmps {
		if c.DiffTotal() != 0 {
			drift++
		}
		body = append(body, []string{
			c.ProfileID,
			strconv.Itoa(c.Records.Rejected),
			strconv.Itoa(c.Records.Correct),
			strconv.Itoa(c.Records.Backfilled),
			strconv.Itoa(c.Blobs.Rejected),
			strconv.Itoa(c.Blobs.Correct),
			fmt.Sprintf("%+d", c.DiffTotal()),
		})
	}
	fmt.Fprintln(w.Out, renderTable(headers, body, aligns, w.styled()))

	w.printer().Fprintf(w.Out, "%d subjects, %d with record/blob drift\n", len(cmps), drift)
}

// Subjects prints the user/profile listing.
func (w *Writer) Subjects(subjects []profiles.Profile) {
	headers := []string{"User", "Profile", "REDCap", "Email", "Created"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}

	body := make([][]string, 0, len(subjects))
	for _, s := range subjects {
		created := ""
		if !s.UserCreatedAt.IsZero() {
			created = s.UserCreatedAt.UTC().Format("2006-01-02")
		}
		body = append(body, []string{s.UserID, s.ProfileID, s.RedcapCode, s.Email, created})
	}
	fmt.Fprintln(w.Out, renderTable(headers, body, aligns, w.styled()))

	w.printer().Fprintf(w.Out, "%d user/profile pairs\n", len(subjects))
}

// ReductionPercent formats deleted-over-total as a whole percentage. A zero
// denominator reads as no reduction.
func ReductionPercent(deleted, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(deleted)/float64(total)*100)
}
