// Package worker fans subject processing out over a bounded pool.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"photoaudit/internal/profiles"
)

// ForEachProfile runs fn for every subject with at most workers in flight.
// Workers below one run sequentially. The first error cancels the remaining
// subjects and is returned.
func ForEachProfile(ctx context.Context, subjects []profiles.Profile, workers int, fn func(ctx context.Context, p profiles.Profile) error) error {
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, subject := range subjects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, subject)
		})
	}
	return g.Wait()
}
