package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"photoaudit/internal/orphans"
	"photoaudit/internal/profiles"
	"photoaudit/internal/report"
	"photoaudit/internal/worker"
)

func newOrphansCommand(ctx *commandContext) *cobra.Command {
	var (
		sf         subjectFlags
		workers    int
		jsonOutput bool
		showFiles  bool
	)

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List storage files that no photoHistory record references",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if workers < 1 {
				workers = cfg.Run.Workers
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

			analyzer := &orphans.Analyzer{
				Blobs:   cl.Blobs,
				Records: cl.Records,
				Bucket:  cl.Blobs.BucketName(),
				Root:    sf.resolvePrefix(cfg),
			}

			var mu sync.Mutex
			analyses := make([]orphans.Analysis, 0, len(subjects))
			err = worker.ForEachProfile(cmd.Context(), subjects, workers, func(runCtx context.Context, subject profiles.Profile) error {
				analysis, err := analyzer.AnalyzeProfile(runCtx, subject.ProfileID)
				if err != nil {
					return err
				}
				mu.Lock()
				analyses = append(analyses, analysis)
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(analyses)
			}

			w := &report.Writer{Out: os.Stdout}
			w.Orphans(analyses)

			if showFiles {
				for _, analysis := range analyses {
					for _, file := range analysis.Orphans {
						marker := " "
						if file.Rejected {
							marker = "R"
						}
						fmt.Fprintf(os.Stdout, "%s %s\n", marker, file.StoragePath)
					}
				}
			}
			return nil
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.IntVar(&workers, "workers", 0, "Concurrent subjects (default from config)")
	flags.BoolVar(&jsonOutput, "json", false, "Emit the full analysis as JSON")
	flags.BoolVar(&showFiles, "files", false, "Also list each orphaned file path")

	return cmd
}
