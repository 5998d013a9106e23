package cache

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wizardbeard/tpg/internal/backend"
	"github.com/wizardbeard/tpg/internal/model"
)

// WarmupPool prepopulates a Cache by evaluating many programs over a
// batch of inputs concurrently, ahead of the harness's sequential
// evaluation phase (spec §5). Only an LRU-backed Cache is guaranteed
// safe here — its inner per-program map is built for concurrent
// readers/writers; PerInput and Off caches are accepted but the
// concurrency contract is the caller's responsibility.
type WarmupPool struct {
	Backend backend.ProgramBackend
	Cache   Cache

	// Workers bounds concurrent (program, input) evaluations. Zero or
	// negative means unbounded (errgroup.SetLimit(-1)).
	Workers int
}

// Run partitions work by (program × batch-item): each worker decodes
// its own private Executable per program (spec §5's "clone the program
// or the decoded state per thread") so no hidden scratch state is
// shared across goroutines, evaluates, and writes the resulting bid
// into the pool's Cache keyed by Backend.Hash(input). Order of
// completion is irrelevant; a cache write for an already-present key is
// idempotent. The first evaluation error cancels the remaining work via
// ctx.
func (w *WarmupPool) Run(ctx context.Context, programs []*model.Program, inputs [][]float64) error {
	group, ctx := errgroup.WithContext(ctx)
	limit := w.Workers
	if limit <= 0 {
		limit = -1
	}
	group.SetLimit(limit)

	for _, program := range programs {
		program := program
		for _, input := range inputs {
			input := input
			group.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				key := w.Backend.Hash(input)
				if _, hit := w.Cache.Get(program.ID, key); hit {
					return nil
				}

				exec, err := w.Backend.Decode(ctx, program.Genome)
				if err != nil {
					return err
				}
				defer exec.Reset()

				bid, err := w.Backend.Evaluate(ctx, exec, input)
				if err != nil {
					return err
				}
				w.Cache.Set(program.ID, key, bid)
				return nil
			})
		}
	}
	return group.Wait()
}
