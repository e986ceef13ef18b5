// Package parallel fans work out over a bounded errgroup in fixed-size
// contiguous shards and merges the results back in input order.
package parallel

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// DefaultShardSize is the number of contiguous items handed to one worker.
const DefaultShardSize = 1000

// Options configures a parallel map.
type Options struct {
	Workers   int // 0 = DefaultWorkers()
	ShardSize int // 0 = DefaultShardSize
}

// DefaultWorkers returns the number of available cores minus one, at least 1.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
	if o.ShardSize <= 0 {
		o.ShardSize = DefaultShardSize
	}
	return o
}

// Map applies fn to every item. fn reports whether its output is kept.
// Outputs are concatenated in shard order, so the result preserves input
// order regardless of worker completion order. The first error cancels the
// remaining shards and is returned with no partial output.
func Map[T, U any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, item T) (U, bool, error)) ([]U, error) {
	opts = opts.withDefaults()
	if len(items) == 0 {
		return nil, nil
	}

	numShards := (len(items) + opts.ShardSize - 1) / opts.ShardSize
	shards := make([][]U, numShards)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for s := range numShards {
		lo := s * opts.ShardSize
		hi := min(lo+opts.ShardSize, len(items))
		g.Go(func() error {
			out := make([]U, 0, hi-lo)
			for i := lo; i < hi; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				u, keep, err := fn(gCtx, items[i])
				if err != nil {
					return eris.Wrapf(err, "parallel: item %d", i)
				}
				if keep {
					out = append(out, u)
				}
			}
			shards[s] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, sh := range shards {
		total += len(sh)
	}
	result := make([]U, 0, total)
	for _, sh := range shards {
		result = append(result, sh...)
	}
	return result, nil
}

// Filter keeps the items for which keep returns true, preserving order.
func Filter[T any](ctx context.Context, items []T, opts Options, keep func(T) bool) ([]T, error) {
	return Map(ctx, items, opts, func(_ context.Context, item T) (T, bool, error) {
		return item, keep(item), nil
	})
}
