package main

import (
	"context"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"photoaudit/internal/profiles"
	"photoaudit/internal/reconcile"
	"photoaudit/internal/report"
	"photoaudit/internal/runlock"
	"photoaudit/internal/worker"
)

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var (
		sf              subjectFlags
		dryRun          bool
		onlyRejected    bool
		setToken        bool
		patchExisting   bool
		forceText       bool
		rejectedSummary string
		rejectedMessage string
		limitFiles      int
		workers         int
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Create missing photoHistory records from storage files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("set-token") {
				setToken = cfg.Photos.SetToken
			}
			if !cmd.Flags().Changed("rejected-summary") {
				rejectedSummary = cfg.Photos.RejectedSummary
			}
			if !cmd.Flags().Changed("rejected-message") {
				rejectedMessage = cfg.Photos.RejectedMessage
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

			since, err := parseSince(sf.since)
			if err != nil {
				return err
			}

			backfiller := &reconcile.Backfiller{
				Blobs:   cl.Blobs,
				Records: cl.Records,
				Bucket:  cl.Blobs.BucketName(),
				Root:    sf.resolvePrefix(cfg),
				Logger:  logger,
			}
			opts := reconcile.Options{
				DryRun:            dryRun,
				OnlyRejected:      onlyRejected,
				Since:             since,
				SetToken:          setToken,
				LimitFiles:        limitFiles,
				RejectedSummary:   rejectedSummary,
				RejectedMessage:   rejectedMessage,
				PatchExisting:     patchExisting,
				ForceRejectedText: forceText,
			}

			var mu sync.Mutex
			rows := make([]report.BackfillRow, 0, len(subjects))
			err = worker.ForEachProfile(cmd.Context(), subjects, workers, func(runCtx context.Context, subject profiles.Profile) error {
				stats, err := backfiller.BackfillProfile(runCtx, subject.ProfileID, opts)
				if err != nil {
					return err
				}
				mu.Lock()
				rows = append(rows, report.BackfillRow{Profile: subject, Stats: stats})
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			w := &report.Writer{Out: os.Stdout}
			w.Backfill(rows, dryRun)
			return nil
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "Report what would be created without writing")
	flags.BoolVar(&onlyRejected, "only-rejected", false, "Only consider *_rejected.* files")
	flags.BoolVar(&setToken, "set-token", true, "Mint download tokens for files without one")
	flags.BoolVar(&patchExisting, "update-existing-backfilled-rejected", false, "Patch summary/message on already backfilled rejected records that lack it")
	flags.BoolVar(&forceText, "force-rejected-text", false, "Overwrite rejected text even when present (with --update-existing-backfilled-rejected)")
	flags.StringVar(&rejectedSummary, "rejected-summary", "", "Summary for records created from rejected files")
	flags.StringVar(&rejectedMessage, "rejected-message", "", "Message for records created from rejected files")
	flags.IntVar(&limitFiles, "limit-files", 0, "Cap files considered per subject (0 = no limit)")
	flags.IntVar(&workers, "workers", 0, "Concurrent subjects (default from config)")

	return cmd
}
