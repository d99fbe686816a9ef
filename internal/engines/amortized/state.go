// Package amortized implements the encoder/decoder variant of the two-component
// mixture. Per-observation responsibilities are replaced by a linear encoder
// shared across observations, and the component parameters by a linear decoder
// of the class indicator.
package amortized

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/smthzch/BayesianComputation/internal/engines/mixture"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

const (
	// initialEncoderSpread is the scale of the starting encoder weights.
	initialEncoderSpread = 0.1
	// initialMeanSpread is the scale of the starting decoder means around the prior mean.
	initialMeanSpread = 1.0
)

// State holds the two weight matrices optimized in place of per-point
// responsibilities.
//
// Encoder is 1x2: the logits of observation x are [x] * Encoder.
// Decoder is 2x2: row k holds the mean and log-scale of component k.
type State struct {
	Encoder *mat.Dense
	Decoder *mat.Dense
}

// NewState creates a state from explicit weights. decoder[k] is {mean, log-scale}.
func NewState(encoder [2]float64, decoder [mixture.NumComponents][2]float64) State {
	return State{
		Encoder: mat.NewDense(1, 2, encoder[:]),
		Decoder: mat.NewDense(mixture.NumComponents, 2, []float64{
			decoder[0][0], decoder[0][1],
			decoder[1][0], decoder[1][1],
		}),
	}
}

// RandomState draws small encoder weights and decoder means around the prior
// mean. Decoder scales start at the model noise scale.
func RandomState(priors mixture.Priors, sampler *rng.Sampler) State {
	var encoder [2]float64
	for j := range encoder {
		encoder[j] = sampler.Normal(0, initialEncoderSpread)
	}
	var decoder [mixture.NumComponents][2]float64
	for k := range decoder {
		decoder[k] = [2]float64{sampler.Normal(priors.PriorMu, initialMeanSpread), math.Log(priors.Sigma)}
	}
	return NewState(encoder, decoder)
}

// Clone deep-copies both matrices.
func (s State) Clone() State {
	return State{Encoder: mat.DenseCopyOf(s.Encoder), Decoder: mat.DenseCopyOf(s.Decoder)}
}

// Encode returns the responsibility pair softmax([x] * Encoder).
func (s State) Encode(x float64) transform.Pair {
	var logits mat.Dense
	logits.Mul(mat.NewDense(1, 1, []float64{x}), s.Encoder)
	p := transform.Softmax(logits.RawRowView(0))
	return transform.Pair{p[0], p[1]}
}

// Decode returns the likelihood mean and scale of component k, computed as
// onehot(k) * Decoder with the second output exponentiated.
func (s State) Decode(k int) (mu, sigma float64) {
	onehot := mat.NewDense(1, mixture.NumComponents, nil)
	onehot.Set(0, k, 1)
	var out mat.Dense
	out.Mul(onehot, s.Decoder)
	return out.At(0, 0), transform.Exp(out.At(0, 1))
}

// LipschitzBound returns L such that for all x1, x2
//
//	|Encode(x1)[0] - Encode(x2)[0]| <= L * |x1 - x2|.
//
// The class-0 output is sigmoid(x * (W00 - W01)), whose slope never exceeds a
// quarter of the weight difference.
func LipschitzBound(s State) float64 {
	return math.Abs(s.Encoder.At(0, 0)-s.Encoder.At(0, 1)) / 4
}

func (s State) String() string {
	mu0, sigma0 := s.Decode(0)
	mu1, sigma1 := s.Decode(1)
	return fmt.Sprintf("{encoder=[%.3f %.3f], means=[%.3f %.3f], scales=[%.3f %.3f]}",
		s.Encoder.At(0, 0), s.Encoder.At(0, 1), mu0, mu1, sigma0, sigma1)
}
