// Package mcmc samples the posterior of a normal mean with random-walk
// Metropolis-Hastings.
package mcmc

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/model"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
)

// Name identifies the sampler in logs and metrics.
const Name = "mcmc"

// Sampler proposes mu' = mu + N(0, ProposalScale) and accepts with
// probability min(1, p(mu' | x) / p(mu | x)).
type Sampler struct {
	Model         model.NormalMean
	ProposalScale float64
	Iterations    int
	// BurnIn leading samples are excluded from the chain summaries.
	BurnIn int
	Rand   *rng.Sampler
}

// Validate checks the sampler can run.
func (s *Sampler) Validate() error {
	if err := s.Model.Validate(); err != nil {
		return err
	}
	if s.ProposalScale <= 0 {
		return fmt.Errorf("proposal scale must be positive, got %v", s.ProposalScale)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", s.Iterations)
	}
	if s.BurnIn < 0 || s.BurnIn >= s.Iterations {
		return fmt.Errorf("burn-in must lie in [0, %d), got %d", s.Iterations, s.BurnIn)
	}
	if s.Rand == nil {
		return fmt.Errorf("random source is required")
	}
	return nil
}

// Run draws Iterations samples starting at init. It stops early only when ctx
// is cancelled, returning the samples drawn so far.
func (s *Sampler) Run(ctx context.Context, init float64) (*Chain, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithValues("variant", Name)

	chain := &Chain{Samples: make([]float64, 0, s.Iterations), BurnIn: s.BurnIn}
	current := init
	logPost := s.Model.LogJoint(current)
	for i := range s.Iterations {
		select {
		case <-ctx.Done():
			return chain, ctx.Err()
		default:
		}

		proposal := s.Rand.Normal(current, s.ProposalScale)
		proposalLogPost := s.Model.LogJoint(proposal)
		if a := math.Exp(proposalLogPost - logPost); a >= 1 || s.Rand.Uniform() < a {
			current, logPost = proposal, proposalLogPost
			chain.Accepted++
		}
		chain.Samples = append(chain.Samples, current)
		chain.LogPosterior = append(chain.LogPosterior, logPost)
		logger.V(logging.TRACE).Info("Drew sample", "iteration", i, "mu", current, "logPosterior", logPost)
	}

	logger.V(logging.VERBOSE).Info("Finished sampling", "acceptanceRate", chain.AcceptanceRate(), "mean", chain.Mean())
	return chain, nil
}

// Chain is the output of one sampler run.
type Chain struct {
	// Samples holds every draw including burn-in.
	Samples []float64
	// LogPosterior is the unnormalized log posterior of each sample.
	LogPosterior []float64
	BurnIn       int
	Accepted     int
}

// Kept returns the samples after burn-in.
func (c *Chain) Kept() []float64 {
	if c.BurnIn >= len(c.Samples) {
		return nil
	}
	return c.Samples[c.BurnIn:]
}

// AcceptanceRate is the fraction of proposals accepted over the whole run.
func (c *Chain) AcceptanceRate() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	return float64(c.Accepted) / float64(len(c.Samples))
}

// Mean is the posterior mean estimate.
func (c *Chain) Mean() float64 {
	return stat.Mean(c.Kept(), nil)
}

// StdDev is the posterior standard deviation estimate.
func (c *Chain) StdDev() float64 {
	return stat.StdDev(c.Kept(), nil)
}

// Trajectory records each draw with its negated log posterior as the loss.
func (c *Chain) Trajectory() *trajectory.Log {
	history := trajectory.NewLog(len(c.Samples))
	for i, mu := range c.Samples {
		history.Append(trajectory.Entry{
			Iteration:  i,
			Loss:       -c.LogPosterior[i],
			Parameters: []trajectory.Parameter{{Name: "mu", Value: mu}},
		})
	}
	return history
}
