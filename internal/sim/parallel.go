package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Factory builds an independent simulator for one ensemble member.
type Factory func(seed uint64) (*Simulator, error)

// Ensemble runs the same configuration over consecutive seeds in parallel.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
}

func NewEnsemble(factory Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Seed returns the seed of member i.
func (e *Ensemble) Seed(i int) uint64 { return e.seedStart + uint64(i) }

// Run returns one result per member, in seed order. Members that failed to
// build or run leave a nil or partial entry and contribute to the joined
// error.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := range e.numRuns {
		wg.Add(1)
		go func() {
			defer wg.Done()

			seed := e.Seed(i)
			s, err := e.factory(seed)
			if err != nil {
				errs[i] = fmt.Errorf("seed %d: %w", seed, err)
				return
			}
			res, err := s.Run(ctx, cfg)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("seed %d: %w", seed, err)
			}
		}()
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
