package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"photoaudit/internal/backup"
	"photoaudit/internal/cleanup"
	"photoaudit/internal/profiles"
	"photoaudit/internal/report"
	"photoaudit/internal/runlock"
	"photoaudit/internal/worker"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		sf        subjectFlags
		dryRun    bool
		workers   int
		excelPath string
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete duplicate backfilled rejected records",
		Long: `Groups each subject's backfilled rejected records by blob size. When an
original rejected record shares a group's size, every backfilled duplicate in
the group is deleted; otherwise the newest one is kept. Documents are archived
locally before any live delete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = cfg.Run.Workers
			}

			if !dryRun {
				lock, err := runlock.Acquire(cfg.Run.LockDir)
				if err != nil {
					return err
				}
				defer lock.Release()
			}

			cl, err := ctx.openClients(cmd.Context(), sf.bucket)
			if err != nil {
				return err
			}
			defer cl.Close()

			subjects, err := sf.subjects(cmd.Context(), cfg, cl)
			if err != nil {
				return err
			}

			var archive *backup.Store
			if !dryRun {
				archive, err = backup.Open(filepath.Join(cfg.Output.BackupDir, "backup.db"))
				if err != nil {
					return err
				}
				defer archive.Close()
			}

			engine := &cleanup.Engine{Blobs: cl.Blobs, Records: cl.Records, Logger: logger}

			var mu sync.Mutex
			rows := make([]report.CleanupRow, 0, len(subjects))
			err = worker.ForEachProfile(cmd.Context(), subjects, workers, func(runCtx context.Context, subject profiles.Profile) error {
				plan, err := engine.Plan(runCtx, subject.ProfileID)
				if err != nil {
					return err
				}

				if archive != nil && len(plan.Candidates) > 0 {
					run := backup.NewRun(subject.ProfileID, dryRun)
					mu.Lock()
					err = archive.Archive(runCtx, run, plan.Candidates)
					mu.Unlock()
					if err != nil {
						return fmt.Errorf("archive before delete: %w", err)
					}
					if snapshots {
						if _, err := backup.WriteSnapshot(cfg.Output.BackupDir, run, plan.Candidates); err != nil {
							return err
						}
					}
					logger.Info("archived documents before delete",
						"profile", subject.ProfileID,
						"run", run.ID,
						"documents", len(plan.Candidates))
				}

				result, err := engine.Execute(runCtx, plan, dryRun)
				if err != nil {
					return err
				}
				mu.Lock()
				rows = append(rows, report.CleanupRow{Profile: subject, Result: result})
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			w := &report.Writer{Out: os.Stdout}
			w.Cleanup(rows, dryRun)

			if excelPath != "" {
				if err := report.WriteCleanupWorkbook(excelPath, rows, dryRun); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "workbook written to %s\n", excelPath)
			}
			return nil
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without writing")
	flags.IntVar(&workers, "workers", 0, "Concurrent subjects (default from config)")
	flags.StringVar(&excelPath, "excel", "", "Also write per-subject results to this .xlsx file")
	flags.BoolVar(&snapshots, "json-snapshots", false, "Also write a JSON snapshot per archived run")

	return cmd
}
