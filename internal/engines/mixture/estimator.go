package mixture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

// NumComponents is the number of mixture components.
const NumComponents = 2

// Priors are the fixed model constants of the two-component mixture:
// x_i | z_i, mu ~ N(mu[z_i], Sigma), z_i ~ Categorical(ClassPrior),
// mu[k] ~ N(PriorMu, PriorSigma).
type Priors struct {
	PriorMu    float64
	PriorSigma float64
	Sigma      float64
	ClassPrior transform.Pair
}

// Validate checks scales are positive and the class prior lies on the simplex.
func (p Priors) Validate() error {
	if p.PriorSigma <= 0 {
		return fmt.Errorf("prior sigma must be positive, got %v", p.PriorSigma)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", p.Sigma)
	}
	if p.ClassPrior[0] <= 0 || p.ClassPrior[1] <= 0 || math.Abs(p.ClassPrior[0]+p.ClassPrior[1]-1) > 1e-9 {
		return fmt.Errorf("class prior must be positive and sum to 1, got %v", p.ClassPrior)
	}
	return nil
}

// Estimator computes Monte Carlo estimates of the negated ELBO.
type Estimator struct {
	Observations []float64
	Priors       Priors
	// Draws is the number of Monte Carlo repetitions per estimate.
	Draws   int
	Sampler *rng.Sampler
}

// NewEstimator validates its inputs and creates an Estimator.
func NewEstimator(observations []float64, priors Priors, draws int, sampler *rng.Sampler) (*Estimator, error) {
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
	return &Estimator{
		Observations: observations,
		Priors:       priors,
		Draws:        draws,
		Sampler:      sampler,
	}, nil
}

// Loss estimates
//
//	E_q[log q(z, mu) - log p(x | z, mu) - log p(z) - log p(mu)]
//
// over the full dataset. Each repetition first draws one mean per component
// from q(mu), then one class per observation in index order.
func (e *Estimator) Loss(s State) float64 {
	var total float64
	for range e.Draws {
		mu, logQ, logP := e.drawMeans(s)
		for i, x := range e.Observations {
			q, p := e.observationTerms(x, s.Responsibilities[i], mu)
			logQ += q
			logP += p
		}
		total += logQ - logP
	}
	return total / float64(e.Draws)
}

// PointLoss estimates the loss restricted to observation i:
//
//	E_q[log q(z_i) - log p(x_i | z_i, mu) - log p(z_i)]
func (e *Estimator) PointLoss(i int, s State) float64 {
	return e.pointLossAt(e.Observations[i], s.Responsibilities[i], s)
}

func (e *Estimator) pointLossAt(x float64, resp transform.Pair, s State) float64 {
	var total float64
	for range e.Draws {
		mu, _, _ := e.drawMeans(s)
		q, p := e.observationTerms(x, resp, mu)
		total += q - p
	}
	return total / float64(e.Draws)
}

// drawMeans samples one mean per component from q(mu) and returns the draws
// with their variational and prior log densities.
func (e *Estimator) drawMeans(s State) (mu [NumComponents]float64, logQ, logP float64) {
	prior := distuv.Normal{Mu: e.Priors.PriorMu, Sigma: e.Priors.PriorSigma}
	for k := range mu {
		q := distuv.Normal{Mu: s.Means[k], Sigma: transform.Exp(s.LogScales[k])}
		mu[k] = e.Sampler.Normal(q.Mu, q.Sigma)
		logQ += q.LogProb(mu[k])
		logP += prior.LogProb(mu[k])
	}
	return mu, logQ, logP
}

// observationTerms samples z for one observation and returns log q(z) and
// log p(x | z, mu) + log p(z).
func (e *Estimator) observationTerms(x float64, resp transform.Pair, mu [NumComponents]float64) (logQ, logP float64) {
	z := SampleClass(resp, e.Sampler.Uniform())
	lik := distuv.Normal{Mu: mu[z], Sigma: e.Priors.Sigma}
	return math.Log(resp[z]), lik.LogProb(x) + math.Log(e.Priors.ClassPrior[z])
}

// SampleClass picks class 0 when u falls below its probability, class 1
// otherwise. u is a uniform draw on [0, 1).
func SampleClass(resp transform.Pair, u float64) int {
	if u < resp[0] {
		return 0
	}
	return 1
}
