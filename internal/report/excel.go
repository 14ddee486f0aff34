package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"photoaudit/internal/profiles"
)

const (
	profilesSheet = "Profiles"
	summarySheet  = "Summary"
)

// WriteProfilesWorkbook exports the enumerated subjects as a workbook with a
// detail sheet (one row per user/profile pair) and a summary sheet carrying
// the date window used.
func WriteProfilesWorkbook(path string, subjects []profiles.Profile, since, until *time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), profilesSheet)

	headers := []string{"User ID", "Profile ID", "REDCap", "Email", "User Created"}
	if err := writeRow(f, profilesSheet, 1, headers); err != nil {
		return err
	}
	users := map[string]struct{}{}
	for i, p := range subjects {
		if p.UserID != "" {
			users[p.UserID] = struct{}{}
		}
		created := ""
		if !p.UserCreatedAt.IsZero() {
			created = p.UserCreatedAt.UTC().Format("2006-01-02")
		}
		row := []string{p.UserID, p.ProfileID, p.RedcapCode, p.Email, created}
		if err := writeRow(f, profilesSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	summary := [][]string{
		{"Metric", "Value"},
		{"Total users", fmt.Sprintf("%d", len(users))},
		{"Total user/profile pairs", fmt.Sprintf("%d", len(subjects))},
		{"Since", formatBound(since)},
		{"Until", formatBound(until)},
	}
	for i, row := range summary {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteCleanupWorkbook exports per-subject cleanup results with a summary
// sheet carrying run totals and the reduction percentage.
func WriteCleanupWorkbook(path string, rows []CleanupRow, dryRun bool) error {
	const detailSheet = "Cleanup"

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), detailSheet)

	headers := []string{"Profile ID", "REDCap", "Normal", "Rejected before", "Backfilled", "Duplicate groups", "Kept", "Deleted", "Safety excluded"}
	if err := writeRow(f, detailSheet, 1, headers); err != nil {
		return err
	}
	var totalBackfilled, totalDeleted int
	for i, row := range rows {
		r := row.Result
		totalBackfilled += r.BackfilledTotal
		totalDeleted += r.Deleted
		cells := []string{
			r.ProfileID,
			row.Profile.RedcapCode,
			fmt.Sprintf("%d", r.NormalCount),
			fmt.Sprintf("%d", r.RejectedBefore),
			fmt.Sprintf("%d", r.BackfilledTotal),
			fmt.Sprintf("%d", r.DuplicateGroups),
			fmt.Sprintf("%d", r.Kept),
			fmt.Sprintf("%d", r.Deleted),
			fmt.Sprintf("%d", r.SafetyExcluded),
		}
		if err := writeRow(f, detailSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	mode := "live"
	if dryRun {
		mode = "dry-run"
	}
	summary := [][]string{
		{"Metric", "Value"},
		{"Mode", mode},
		{"Subjects", fmt.Sprintf("%d", len(rows))},
		{"Backfilled records", fmt.Sprintf("%d", totalBackfilled)},
		{"Deleted", fmt.Sprintf("%d", totalDeleted)},
		{"Reduction", ReductionPercent(totalDeleted, totalBackfilled)},
	}
	for i, row := range summary {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	for col, value := range cells {
		name, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, name, value); err != nil {
			return fmt.Errorf("set cell %s!%s: %w", sheet, name, err)
		}
	}
	return nil
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "all"
	}
	return t.UTC().Format("2006-01-02")
}
