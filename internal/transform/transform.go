// Package transform maps optimized parameters between their natural domain and
// the unconstrained domain in which gradient steps are taken.
package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxLogit bounds responsibility logits so that neither class probability
// rounds to exactly 0 or 1.
const MaxLogit = 30.0

// Pair is a point on the 2-simplex: the responsibilities of the two classes.
type Pair [2]float64

// Log maps a strictly positive scale to the unconstrained domain.
func Log(s float64) float64 {
	return math.Log(s)
}

// Exp maps an unconstrained value back to a positive scale.
func Exp(u float64) float64 {
	return math.Exp(u)
}

// Logit returns log(p[0]/p[1]).
func Logit(p Pair) float64 {
	return math.Log(p[0] / p[1])
}

// InvLogit maps a log-odds value back to a responsibility pair summing to 1.
// The smaller probability is computed directly so that Logit(InvLogit(u)) == u
// holds to rounding on both sides of zero.
func InvLogit(u float64) Pair {
	if u >= 0 {
		e := math.Exp(-u)
		return Pair{1 / (1 + e), e / (1 + e)}
	}
	e := math.Exp(u)
	return Pair{e / (1 + e), 1 / (1 + e)}
}

// ClampLogit bounds u to [-MaxLogit, MaxLogit].
func ClampLogit(u float64) float64 {
	return math.Max(-MaxLogit, math.Min(MaxLogit, u))
}

// StepLogit applies one descent step of the given size in logit domain and
// maps the result back. The result always sums to 1; a NaN gradient leaves p
// unchanged.
func StepLogit(p Pair, gradient, step float64) Pair {
	if math.IsNaN(gradient) {
		return p
	}
	u := ClampLogit(Logit(p) - step*gradient)
	if math.IsNaN(u) {
		return p
	}
	return InvLogit(u)
}

// Softmax normalizes logits into probabilities.
func Softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxLogit := floats.Max(logits)
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
