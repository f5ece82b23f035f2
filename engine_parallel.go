package orphan

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/orphan/internal/collector"
)

// collectParallel collects roots on a bounded worker pool. Each root gets
// its own Collector, so workers share no mutable state; results are
// returned in root order for the serial merge that follows.
func (e *Engine) collectParallel(ctx context.Context, roots []Root) ([]*collector.Result, error) {
	numWorkers := e.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, len(roots)))

	results := make([]*collector.Result, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, root := range roots {
		g.Go(func() error {
			res, err := e.collect(gctx, root)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
