// Package meanfield fits a single-parameter variational approximation to the
// posterior of a normal mean, either by exhaustive grid search or by
// finite-difference coordinate descent.
package meanfield

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

// Family is an approximating distribution for q(mu).
type Family string

const (
	// Normal is q(mu) = N(Location, exp(LogScale)).
	Normal Family = "normal"
	// Exponential is q(mu) = Exponential(rate = exp(-LogScale)); its mean is
	// exp(LogScale) and Location is unused.
	Exponential Family = "exponential"
)

// ParseFamily converts a family name, ignoring case and surrounding space.
func ParseFamily(name string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(name))); f {
	case Normal, Exponential:
		return f, nil
	default:
		return "", fmt.Errorf("unknown approximating family %q", name)
	}
}

// Params are the variational parameters of a Family.
type Params struct {
	Family   Family
	Location float64
	// LogScale is the log of the scale parameter, kept unconstrained.
	LogScale float64
}

// Scale returns the scale in its natural domain.
func (p Params) Scale() float64 {
	return transform.Exp(p.LogScale)
}

// Mean returns the mean of the approximating distribution.
func (p Params) Mean() float64 {
	if p.Family == Exponential {
		return p.Scale()
	}
	return p.Location
}

func (p Params) sample(s *rng.Sampler) float64 {
	if p.Family == Exponential {
		return s.Exponential(1 / p.Scale())
	}
	return s.Normal(p.Location, p.Scale())
}

func (p Params) logProb(mu float64) float64 {
	if p.Family == Exponential {
		return distuv.Exponential{Rate: 1 / p.Scale()}.LogProb(mu)
	}
	return distuv.Normal{Mu: p.Location, Sigma: p.Scale()}.LogProb(mu)
}
