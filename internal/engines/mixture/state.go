package mixture

import (
	"fmt"
	"math"

	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

// initialMeanSpread is the scale of the perturbation applied to the prior
// mean when drawing starting component means.
const initialMeanSpread = 1.0

// State is the variational state of the non-amortized mixture:
// q(z_i) = Categorical(Responsibilities[i]) and
// q(mu_k) = N(Means[k], exp(LogScales[k])).
type State struct {
	Responsibilities []transform.Pair
	Means            [NumComponents]float64
	// LogScales are kept in the unconstrained domain.
	LogScales [NumComponents]float64
}

// NewState creates a state with uniform responsibilities for n observations.
func NewState(n int, means, logScales [NumComponents]float64) State {
	resp := make([]transform.Pair, n)
	for i := range resp {
		resp[i] = transform.Pair{0.5, 0.5}
	}
	return State{Responsibilities: resp, Means: means, LogScales: logScales}
}

// RandomState creates a state whose means are drawn around the prior mean.
// Scales start at Sigma/sqrt(n) and responsibilities are uniform.
func RandomState(n int, priors Priors, sampler *rng.Sampler) State {
	var means, logScales [NumComponents]float64
	for k := range means {
		means[k] = sampler.Normal(priors.PriorMu, initialMeanSpread)
		logScales[k] = math.Log(priors.Sigma) - 0.5*math.Log(float64(max(n, 1)))
	}
	return NewState(n, means, logScales)
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.Responsibilities = append([]transform.Pair(nil), s.Responsibilities...)
	return out
}

// Scales returns the variational scales in their natural domain.
func (s State) Scales() [NumComponents]float64 {
	var out [NumComponents]float64
	for k, l := range s.LogScales {
		out[k] = transform.Exp(l)
	}
	return out
}

// Assignment returns the most probable class of each observation.
func (s State) Assignment() []int {
	out := make([]int, len(s.Responsibilities))
	for i, r := range s.Responsibilities {
		if r[1] > r[0] {
			out[i] = 1
		}
	}
	return out
}

func (s State) String() string {
	return fmt.Sprintf("{means=%.3f, scales=%.3f, n=%d}", s.Means, s.Scales(), len(s.Responsibilities))
}
