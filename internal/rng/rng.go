// Package rng holds the single random stream a run draws from.
//
// Every Monte Carlo draw and every random initial value in a run is taken from
// one Sampler, so a run is reproducible given its seed and the order in which
// components consume draws.
package rng

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// seedMix decorrelates the second PCG word from the first.
const seedMix = 0x9e3779b97f4a7c15

// Sampler draws scalars from one underlying source.
type Sampler struct {
	src rand.Source
	r   *rand.Rand
}

// New creates a sampler seeded with seed.
func New(seed uint64) *Sampler {
	return FromSource(rand.NewPCG(seed, seed^seedMix))
}

// FromSource creates a sampler over an arbitrary source, e.g. a FixedSource in tests.
func FromSource(src rand.Source) *Sampler {
	return &Sampler{src: src, r: rand.New(src)}
}

// Uniform returns a value in [0, 1).
func (s *Sampler) Uniform() float64 {
	return s.r.Float64()
}

// Normal returns a draw from N(mu, sigma).
func (s *Sampler) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

// Exponential returns a draw from an exponential distribution with the given rate.
func (s *Sampler) Exponential(rate float64) float64 {
	return distuv.Exponential{Rate: rate, Src: s.src}.Rand()
}

// FixedSource replays a fixed sequence of words, wrapping around at the end.
type FixedSource struct {
	values []uint64
	next   int
}

// NewFixedSource creates a source replaying values. An empty sequence yields zeros.
func NewFixedSource(values ...uint64) *FixedSource {
	return &FixedSource{values: append([]uint64(nil), values...)}
}

// Uint64 implements rand.Source.
func (f *FixedSource) Uint64() uint64 {
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.next]
	f.next = (f.next + 1) % len(f.values)
	return v
}
