package storefront

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GenerateFiles runs independent generators concurrently, at most limit at
// a time, and returns the written paths in input order. Each generator
// keeps its own session. The first failure cancels the runs still pending.
func GenerateFiles(ctx context.Context, gens []*Generator, limit int) ([]string, error) {
	paths := make([]string, len(gens))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, gen := range gens {
		g.Go(func() error {
			path, err := gen.GenerateDescriptorFile(gctx)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
