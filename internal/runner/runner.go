// Package runner wires a configuration and a data set to the inference engine
// selected by the configured variant.
package runner

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/config"
	"github.com/smthzch/BayesianComputation/internal/engines/amortized"
	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/engines/mcmc"
	"github.com/smthzch/BayesianComputation/internal/engines/meanfield"
	"github.com/smthzch/BayesianComputation/internal/engines/mixture"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/metrics"
	"github.com/smthzch/BayesianComputation/internal/model"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
)

// Result is the outcome of one run.
type Result struct {
	Variant    string                 `yaml:"variant"`
	Seed       uint64                 `yaml:"seed"`
	Final      []trajectory.Parameter `yaml:"final"`
	Trajectory []trajectory.Entry     `yaml:"trajectory"`
}

// Run executes cfg.Variant on observations. recorder may be nil.
func Run(ctx context.Context, cfg *config.Config, observations []float64, recorder *metrics.Recorder) (*Result, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("no observations")
	}
	logger := log.FromContext(ctx).WithValues("variant", cfg.Variant, "seed", cfg.Seed)
	ctx = log.IntoContext(ctx, logger)
	logger.V(logging.DEBUG).Info("Starting run", "observations", len(observations))

	sampler := rng.New(cfg.Seed)
	var (
		final   []trajectory.Parameter
		history *trajectory.Log
		err     error
	)
	switch cfg.Variant {
	case config.VariantMixture:
		final, history, err = runMixture(ctx, cfg, observations, sampler, recorder)
	case config.VariantAmortized:
		final, history, err = runAmortized(ctx, cfg, observations, sampler, recorder)
	case config.VariantMeanfieldNormal:
		final, history, err = runMeanfield(ctx, cfg, observations, meanfield.Normal, sampler, recorder)
	case config.VariantMeanfieldExponential:
		final, history, err = runMeanfield(ctx, cfg, observations, meanfield.Exponential, sampler, recorder)
	case config.VariantGridNormal:
		final, history, err = runGrid(cfg, observations, meanfield.Normal, sampler)
	case config.VariantGridExponential:
		final, history, err = runGrid(cfg, observations, meanfield.Exponential, sampler)
	case config.VariantMCMC:
		final, history, err = runMCMC(ctx, cfg, observations, sampler, recorder)
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
	if err != nil {
		return nil, fmt.Errorf("%s run with seed %d failed: %w", cfg.Variant, cfg.Seed, err)
	}

	return &Result{
		Variant:    cfg.Variant,
		Seed:       cfg.Seed,
		Final:      final,
		Trajectory: history.Entries(),
	}, nil
}

func mixturePriors(cfg *config.Config) mixture.Priors {
	return mixture.Priors{
		PriorMu:    cfg.PriorMu,
		PriorSigma: cfg.PriorSigma,
		Sigma:      cfg.Sigma,
		ClassPrior: cfg.ClassPrior,
	}
}

func mixtureOptions(cfg *config.Config) mixture.Options {
	return mixture.Options{
		H:             cfg.H,
		StepSize:      cfg.StepSize,
		MuStepSize:    cfg.MuStepSize,
		SigmaStepSize: cfg.SigmaStepSize,
	}
}

// descend runs the coordinate driver and returns the final parameters.
func descend[S any](ctx context.Context, cfg *config.Config, m coordinate.Model[S], init S, recorder *metrics.Recorder) ([]trajectory.Parameter, *trajectory.Log, error) {
	order, err := coordinate.ParseOrder(cfg.UpdateOrder)
	if err != nil {
		return nil, nil, err
	}
	if len(order) == 0 {
		order = nil
	}
	opts := coordinate.Options{Iterations: cfg.Iterations, Order: order}
	if recorder != nil {
		opts.Recorder = recorder
	}
	driver, err := coordinate.NewDriver(m, opts)
	if err != nil {
		return nil, nil, err
	}
	final, history, err := driver.Run(ctx, init)
	if err != nil {
		return nil, nil, err
	}
	return m.Parameters(final), history, nil
}

func runMixture(ctx context.Context, cfg *config.Config, obs []float64, sampler *rng.Sampler, recorder *metrics.Recorder) ([]trajectory.Parameter, *trajectory.Log, error) {
	priors := mixturePriors(cfg)
	est, err := mixture.NewEstimator(obs, priors, cfg.Draws, sampler)
	if err != nil {
		return nil, nil, err
	}
	m, err := mixture.NewModel(est, mixtureOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	return descend(ctx, cfg, m, mixture.RandomState(len(obs), priors, sampler), recorder)
}

func runAmortized(ctx context.Context, cfg *config.Config, obs []float64, sampler *rng.Sampler, recorder *metrics.Recorder) ([]trajectory.Parameter, *trajectory.Log, error) {
	priors := mixturePriors(cfg)
	est, err := amortized.NewEstimator(obs, priors, cfg.Draws, sampler)
	if err != nil {
		return nil, nil, err
	}
	m, err := amortized.NewModel(est, mixtureOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	return descend(ctx, cfg, m, amortized.RandomState(priors, sampler), recorder)
}

func normalMean(cfg *config.Config, obs []float64) model.NormalMean {
	return model.NormalMean{Observations: obs, PriorMu: cfg.PriorMu, PriorSigma: cfg.PriorSigma, Sigma: cfg.Sigma}
}

func runMeanfield(ctx context.Context, cfg *config.Config, obs []float64, family meanfield.Family, sampler *rng.Sampler, recorder *metrics.Recorder) ([]trajectory.Parameter, *trajectory.Log, error) {
	est, err := meanfield.NewEstimator(normalMean(cfg, obs), cfg.Draws, sampler)
	if err != nil {
		return nil, nil, err
	}
	m, err := meanfield.NewModel(est, family, meanfield.Options{
		H:            cfg.H,
		LocationStep: cfg.MuStepSize,
		SpreadStep:   cfg.SigmaStepSize,
	})
	if err != nil {
		return nil, nil, err
	}
	// Start at the sample mean with the scale of the sample-mean estimator.
	init := meanfield.Params{
		Family:   family,
		Location: stat.Mean(obs, nil),
		LogScale: math.Log(cfg.Sigma) - 0.5*math.Log(float64(len(obs))),
	}
	return descend(ctx, cfg, m, init, recorder)
}

// runGrid searches locations within one noise scale of the sample mean and
// scales from 1% of the noise scale up to the larger of the noise scale and
// twice the absolute sample mean.
func runGrid(cfg *config.Config, obs []float64, family meanfield.Family, sampler *rng.Sampler) ([]trajectory.Parameter, *trajectory.Log, error) {
	est, err := meanfield.NewEstimator(normalMean(cfg, obs), cfg.Draws, sampler)
	if err != nil {
		return nil, nil, err
	}
	mean := stat.Mean(obs, nil)
	n := cfg.GridPoints
	grid := meanfield.Grid{
		Locations: floats.Span(make([]float64, n), mean-cfg.Sigma, mean+cfg.Sigma),
		LogScales: floats.Span(make([]float64, n), 0.01*cfg.Sigma, math.Max(cfg.Sigma, 2*math.Abs(mean))),
	}
	for i, s := range grid.LogScales {
		grid.LogScales[i] = math.Log(s)
	}

	result, err := meanfield.GridSearch(est, family, grid)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := result.Surface.Dims()
	history := trajectory.NewLog(rows * cols)
	for i := range rows {
		for j := range cols {
			p := meanfield.Params{Family: family, Location: grid.Locations[i], LogScale: grid.LogScales[j]}
			if family == meanfield.Exponential {
				p.Location = 0
			}
			history.Append(trajectory.Entry{
				Iteration:  i*cols + j,
				Loss:       result.Surface.At(i, j),
				Parameters: gridParameters(p),
			})
		}
	}
	return gridParameters(result.Best), history, nil
}

func gridParameters(p meanfield.Params) []trajectory.Parameter {
	return []trajectory.Parameter{
		{Name: "location", Value: p.Location},
		{Name: "scale", Value: p.Scale()},
		{Name: "mean", Value: p.Mean()},
	}
}

func runMCMC(ctx context.Context, cfg *config.Config, obs []float64, sampler *rng.Sampler, recorder *metrics.Recorder) ([]trajectory.Parameter, *trajectory.Log, error) {
	s := &mcmc.Sampler{
		Model:         normalMean(cfg, obs),
		ProposalScale: cfg.ProposalScale,
		Iterations:    cfg.Iterations,
		BurnIn:        cfg.BurnIn,
		Rand:          sampler,
	}
	chain, err := s.Run(ctx, cfg.PriorMu)
	if err != nil {
		return nil, nil, err
	}
	history := chain.Trajectory()
	for _, e := range history.Entries() {
		recorder.ObserveIteration(mcmc.Name, e.Loss)
	}
	recorder.ObserveAcceptance(mcmc.Name, chain.AcceptanceRate())
	return []trajectory.Parameter{
		{Name: "mean", Value: chain.Mean()},
		{Name: "stddev", Value: chain.StdDev()},
		{Name: "acceptance_rate", Value: chain.AcceptanceRate()},
	}, history, nil
}
