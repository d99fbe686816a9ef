package runner

import (
	"cmp"
	"context"
	"slices"

	"github.com/sourcegraph/conc/pool"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/config"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/metrics"
)

// Sweep runs cfg once per seed in cfg.SweepSeeds, at most cfg.SweepConcurrency
// at a time. Runs share no state other than recorder. Results are ordered by
// seed. The first failure cancels the remaining runs.
func Sweep(ctx context.Context, cfg *config.Config, observations []float64, recorder *metrics.Recorder) ([]*Result, error) {
	seeds := cfg.SweepSeeds
	if len(seeds) == 0 {
		seeds = []uint64{cfg.Seed}
	}
	log.FromContext(ctx).V(logging.VERBOSE).Info("Starting sweep", "seeds", len(seeds), "concurrency", cfg.SweepConcurrency)

	p := pool.NewWithResults[*Result]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(max(cfg.SweepConcurrency, 1))
	for _, seed := range seeds {
		runCfg := cfg.WithSeed(seed)
		p.Go(func(ctx context.Context) (*Result, error) {
			return Run(ctx, &runCfg, observations, recorder)
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(results, func(a, b *Result) int {
		return cmp.Compare(a.Seed, b.Seed)
	})
	return results, nil
}
