package meanfield

import (
	"fmt"

	"github.com/smthzch/BayesianComputation/internal/model"
	"github.com/smthzch/BayesianComputation/internal/rng"
)

// Estimator computes Monte Carlo estimates of the negated ELBO
//
//	E_q[log q(mu) - log p(x | mu) - log p(mu)].
type Estimator struct {
	Model   model.NormalMean
	Draws   int
	Sampler *rng.Sampler
}

// NewEstimator validates its inputs and creates an Estimator.
func NewEstimator(m model.NormalMean, draws int, sampler *rng.Sampler) (*Estimator, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if draws < 1 {
		return nil, fmt.Errorf("draws must be at least 1, got %d", draws)
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is required")
	}
	return &Estimator{Model: m, Draws: draws, Sampler: sampler}, nil
}

// Loss returns the estimate at p using fresh draws.
func (e *Estimator) Loss(p Params) float64 {
	var total float64
	for range e.Draws {
		mu := p.sample(e.Sampler)
		total += p.logProb(mu) - e.Model.LogJoint(mu)
	}
	return total / float64(e.Draws)
}
