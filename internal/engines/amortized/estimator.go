package amortized

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/smthzch/BayesianComputation/internal/engines/mixture"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

// Estimator computes Monte Carlo estimates of the amortized negated ELBO.
// Priors.Sigma is not used by the loss: the decoder supplies the likelihood
// scale of each component.
type Estimator struct {
	Observations []float64
	Priors       mixture.Priors
	Draws        int
	Sampler      *rng.Sampler
}

// NewEstimator validates its inputs and creates an Estimator.
func NewEstimator(observations []float64, priors mixture.Priors, draws int, sampler *rng.Sampler) (*Estimator, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("no observations")
	}
	if draws < 1 {
		return nil, fmt.Errorf("draws must be at least 1, got %d", draws)
	}
	if sampler == nil {
		return nil, fmt.Errorf("sampler is required")
	}
	if err := priors.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{Observations: observations, Priors: priors, Draws: draws, Sampler: sampler}, nil
}

// Loss estimates
//
//	E_q[log q(z | x) - log p(x | z) - log p(z)] - log p(mu)
//
// where q(z | x) is the encoder output and the decoder supplies the
// likelihood of each class. Each repetition draws one class per observation in
// index order.
func (e *Estimator) Loss(s State) float64 {
	var likelihoods [mixture.NumComponents]distuv.Normal
	for k := range likelihoods {
		mu, sigma := s.Decode(k)
		likelihoods[k] = distuv.Normal{Mu: mu, Sigma: sigma}
	}
	prior := distuv.Normal{Mu: e.Priors.PriorMu, Sigma: e.Priors.PriorSigma}
	responsibilities := make([]transform.Pair, len(e.Observations))
	for i, x := range e.Observations {
		responsibilities[i] = s.Encode(x)
	}

	var total float64
	for range e.Draws {
		var logQ, logP float64
		for i, x := range e.Observations {
			resp := responsibilities[i]
			z := mixture.SampleClass(resp, e.Sampler.Uniform())
			logQ += math.Log(resp[z])
			logP += likelihoods[z].LogProb(x) + math.Log(e.Priors.ClassPrior[z])
		}
		for k := range likelihoods {
			logP += prior.LogProb(likelihoods[k].Mu)
		}
		total += logQ - logP
	}
	return total / float64(e.Draws)
}
