package config

import (
	"fmt"
	"math"
	"slices"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
)

// Validate performs validation on the loaded configuration.
// It returns an error if any setting is missing or invalid, so that no run
// starts with an invalid configuration.
func Validate(cfg *Config) error {
	if !slices.Contains(Variants, cfg.Variant) {
		return fmt.Errorf("unknown variant %q, expected one of %v", cfg.Variant, Variants)
	}

	if cfg.Draws < 1 {
		return fmt.Errorf("draws must be at least 1, got %d", cfg.Draws)
	}
	if cfg.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", cfg.Iterations)
	}
	if cfg.H <= 0 {
		return fmt.Errorf("h must be positive, got %v", cfg.H)
	}
	for name, step := range map[string]float64{
		"step size":       cfg.StepSize,
		"mu step size":    cfg.MuStepSize,
		"sigma step size": cfg.SigmaStepSize,
	} {
		if step <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, step)
		}
	}
	if _, err := coordinate.ParseOrder(cfg.UpdateOrder); err != nil {
		return fmt.Errorf("invalid update order: %w", err)
	}

	if cfg.PriorSigma <= 0 {
		return fmt.Errorf("prior sigma must be positive, got %v", cfg.PriorSigma)
	}
	if cfg.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", cfg.Sigma)
	}
	// Only two-component mixtures are supported.
	if cfg.NumComponents != 2 {
		return fmt.Errorf("num components must be 2, got %d", cfg.NumComponents)
	}
	if cfg.ClassPrior[0] <= 0 || cfg.ClassPrior[1] <= 0 || math.Abs(cfg.ClassPrior[0]+cfg.ClassPrior[1]-1) > 1e-9 {
		return fmt.Errorf("class prior must be positive and sum to 1, got %v", cfg.ClassPrior)
	}

	if cfg.Variant == VariantMCMC {
		if cfg.Iterations < 1 {
			return fmt.Errorf("mcmc needs at least 1 iteration")
		}
		if cfg.ProposalScale <= 0 {
			return fmt.Errorf("proposal scale must be positive, got %v", cfg.ProposalScale)
		}
		if cfg.BurnIn < 0 || cfg.BurnIn >= cfg.Iterations {
			return fmt.Errorf("burn-in must lie in [0, %d), got %d", cfg.Iterations, cfg.BurnIn)
		}
	}
	if cfg.GridPoints < 2 {
		return fmt.Errorf("grid points must be at least 2, got %d", cfg.GridPoints)
	}

	if cfg.SweepConcurrency < 1 {
		return fmt.Errorf("sweep concurrency must be at least 1, got %d", cfg.SweepConcurrency)
	}
	return nil
}
