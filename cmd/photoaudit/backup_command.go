package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"photoaudit/internal/backup"
	"photoaudit/internal/cleanup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive cleanup candidates without deleting anything",
	}

	cmd.AddCommand(newBackupRunCommand(ctx))
	cmd.AddCommand(newBackupListCommand(ctx))
	cmd.AddCommand(newBackupShowCommand(ctx))
	return cmd
}

func newBackupRunCommand(ctx *commandContext) *cobra.Command {
	var (
		sf        subjectFlags
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the cleanup plan and archive its documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
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

			archive, err := backup.Open(filepath.Join(cfg.Output.BackupDir, "backup.db"))
			if err != nil {
				return err
			}
			defer archive.Close()

			engine := &cleanup.Engine{Blobs: cl.Blobs, Records: cl.Records, Logger: logger}

			archived := 0
			for _, subject := range subjects {
				plan, err := engine.Plan(cmd.Context(), subject.ProfileID)
				if err != nil {
					return err
				}
				if len(plan.Candidates) == 0 {
					continue
				}

				run := backup.NewRun(subject.ProfileID, true)
				if err := archive.Archive(cmd.Context(), run, plan.Candidates); err != nil {
					return err
				}
				if snapshots {
					path, err := backup.WriteSnapshot(cfg.Output.BackupDir, run, plan.Candidates)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stdout, "snapshot written to %s\n", path)
				}
				archived += len(plan.Candidates)
				logger.Info("archived cleanup candidates",
					"profile", subject.ProfileID,
					"run", run.ID,
					"documents", len(plan.Candidates))
			}

			fmt.Fprintf(os.Stdout, "archived %d documents to %s\n", archived, archive.Path())
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().BoolVar(&snapshots, "json-snapshots", false, "Also write a JSON snapshot per archived run")
	return cmd
}

func newBackupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			archive, err := backup.Open(filepath.Join(cfg.Output.BackupDir, "backup.db"))
			if err != nil {
				return err
			}
			defer archive.Close()

			runs, err := archive.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stdout, "no archived runs")
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(os.Stdout, "%s  %s  %-7s  %s\n",
					run.CreatedAt.UTC().Format(time.RFC3339), run.ID, run.Mode, run.ProfileID)
			}
			return nil
		},
	}
}

func newBackupShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the documents archived under a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			archive, err := backup.Open(filepath.Join(cfg.Output.BackupDir, "backup.db"))
			if err != nil {
				return err
			}
			defer archive.Close()

			docs, err := archive.Documents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("no documents archived under run %s", args[0])
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		},
	}
}
