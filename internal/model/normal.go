// Package model holds the generative models the inference engines target.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalMean is the model x_i ~ N(mu, Sigma) with prior mu ~ N(PriorMu, PriorSigma)
// and Sigma known.
type NormalMean struct {
	Observations []float64
	PriorMu      float64
	PriorSigma   float64
	Sigma        float64
}

// Validate checks that the scales are positive and data is present.
func (m NormalMean) Validate() error {
	if len(m.Observations) == 0 {
		return fmt.Errorf("no observations")
	}
	if m.PriorSigma <= 0 {
		return fmt.Errorf("prior sigma must be positive, got %v", m.PriorSigma)
	}
	if m.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", m.Sigma)
	}
	return nil
}

// LogLikelihood returns sum_i log N(x_i | mu, Sigma).
func (m NormalMean) LogLikelihood(mu float64) float64 {
	d := distuv.Normal{Mu: mu, Sigma: m.Sigma}
	var ll float64
	for _, x := range m.Observations {
		ll += d.LogProb(x)
	}
	return ll
}

// LogPrior returns log N(mu | PriorMu, PriorSigma).
func (m NormalMean) LogPrior(mu float64) float64 {
	return distuv.Normal{Mu: m.PriorMu, Sigma: m.PriorSigma}.LogProb(mu)
}

// LogJoint returns the unnormalized log posterior of mu.
func (m NormalMean) LogJoint(mu float64) float64 {
	return m.LogLikelihood(mu) + m.LogPrior(mu)
}
