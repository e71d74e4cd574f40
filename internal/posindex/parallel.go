package posindex

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/snptk/snptk/internal/dbsnp"
)

// shardItem is a shard tagged with its position in the caller's order.
type shardItem struct {
	Seq   int
	Shard dbsnp.Shard
}

// shardResult holds the private partial index built from one shard.
type shardResult[T any] struct {
	Seq     int
	Partial T
}

// scanShards scans shards with a pool of workers. Each worker builds a
// private partial result per shard with no shared state; merge is then
// called on a single goroutine in shard order, regardless of completion
// order. The first scan error cancels the remaining workers.
// If workers is 0, runtime.NumCPU() is used.
func scanShards[T any](
	ctx context.Context,
	shards []dbsnp.Shard,
	workers int,
	scan func(context.Context, dbsnp.Shard) (T, error),
	merge func(T),
) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(shards) {
		workers = len(shards)
	}
	if workers == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	items := make(chan shardItem)
	results := make(chan shardResult[T], workers)

	g.Go(func() error {
		defer close(items)
		for i, s := range shards {
			select {
			case items <- shardItem{Seq: i, Shard: s}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			defer wg.Done()
			for item := range items {
				partial, err := scan(gctx, item.Shard)
				if err != nil {
					return fmt.Errorf("shard %s: %w", item.Shard.Path, err)
				}
				select {
				case results <- shardResult[T]{Seq: item.Seq, Partial: partial}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	orderedCollect(results, merge)

	return g.Wait()
}

// orderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func orderedCollect[T any](results <-chan shardResult[T], fn func(T)) {
	pending := make(map[int]T)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r.Partial

		for {
			p, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			fn(p)
		}
	}
}
