package utils

import (
	"math"

	"github.com/smthzch/BayesianComputation/internal/rng"
)

// NormalData draws n observations from N(mu, sigma).
func NormalData(seed uint64, n int, mu, sigma float64) []float64 {
	s := rng.New(seed)
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Normal(mu, sigma)
	}
	return out
}

// ClusterData draws perComponent observations around each center with the
// given spread. Observations are grouped by center; labels[i] is the index of
// the center observation i was drawn around.
func ClusterData(seed uint64, perComponent int, centers []float64, spread float64) (observations []float64, labels []int) {
	s := rng.New(seed)
	observations = make([]float64, 0, perComponent*len(centers))
	labels = make([]int, 0, perComponent*len(centers))
	for k, c := range centers {
		for range perComponent {
			observations = append(observations, s.Normal(c, spread))
			labels = append(labels, k)
		}
	}
	return observations, labels
}

// ConjugatePosterior returns the closed-form posterior mean and scale of mu for
// x_i ~ N(mu, sigma) with prior mu ~ N(priorMu, priorSigma).
func ConjugatePosterior(observations []float64, priorMu, priorSigma, sigma float64) (mean, scale float64) {
	var sum float64
	for _, x := range observations {
		sum += x
	}
	precision := 1/(priorSigma*priorSigma) + float64(len(observations))/(sigma*sigma)
	mean = (priorMu/(priorSigma*priorSigma) + sum/(sigma*sigma)) / precision
	return mean, math.Sqrt(1 / precision)
}
