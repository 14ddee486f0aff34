package main

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"photoaudit/internal/counts"
	"photoaudit/internal/profiles"
	"photoaudit/internal/report"
	"photoaudit/internal/worker"
)

func newCountCommand(ctx *commandContext) *cobra.Command {
	var (
		sf        subjectFlags
		workers   int
		driftOnly bool
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Compare per-subject photo counts between Firestore and Storage",
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

			counter := &counts.Counter{
				Blobs:   cl.Blobs,
				Records: cl.Records,
				Root:    sf.resolvePrefix(cfg),
			}

			var mu sync.Mutex
			var cmps []counts.Comparison
			err = worker.ForEachProfile(cmd.Context(), subjects, workers, func(runCtx context.Context, subject profiles.Profile) error {
				cmp, err := counter.CompareProfile(runCtx, subject.ProfileID)
				if err != nil {
					return err
				}
				if driftOnly && cmp.DiffTotal() == 0 && cmp.DiffRejected() == 0 {
					return nil
				}
				mu.Lock()
				cmps = append(cmps, cmp)
				mu.Unlock()
				return nil
			})
			if err != nil {
				return err
			}

			sort.Slice(cmps, func(i, j int) bool { return cmps[i].ProfileID < cmps[j].ProfileID })

			w := &report.Writer{Out: os.Stdout}
			w.Counts(cmps)
			return nil
		},
	}

	sf.register(cmd)
	flags := cmd.Flags()
	flags.IntVar(&workers, "workers", 0, "Concurrent subjects (default from config)")
	flags.BoolVar(&driftOnly, "drift-only", false, "Only show subjects whose counts differ")

	return cmd
}
