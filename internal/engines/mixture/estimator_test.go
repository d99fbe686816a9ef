package mixture

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

var defaultPriors = Priors{
	PriorMu:    0,
	PriorSigma: 10,
	Sigma:      1,
	ClassPrior: transform.Pair{0.5, 0.5},
}

// expectedPointLoss is the exact expectation PointLoss estimates.
func expectedPointLoss(x float64, resp transform.Pair, s State, p Priors) float64 {
	scales := s.Scales()
	var total float64
	for z := range NumComponents {
		d := x - s.Means[z]
		negLogLik := 0.5*math.Log(2*math.Pi*p.Sigma*p.Sigma) + (d*d+scales[z]*scales[z])/(2*p.Sigma*p.Sigma)
		total += resp[z] * (math.Log(resp[z]) - math.Log(p.ClassPrior[z]) + negLogLik)
	}
	return total
}

var _ = Describe("Estimator", func() {

	Describe("NewEstimator", func() {
		It("should reject invalid inputs", func() {
			s := rng.New(1)
			_, err := NewEstimator(nil, defaultPriors, 1, s)
			Expect(err).To(HaveOccurred())

			_, err = NewEstimator([]float64{1}, defaultPriors, 0, s)
			Expect(err).To(HaveOccurred())

			_, err = NewEstimator([]float64{1}, defaultPriors, 1, nil)
			Expect(err).To(HaveOccurred())

			bad := defaultPriors
			bad.ClassPrior = transform.Pair{0.7, 0.7}
			_, err = NewEstimator([]float64{1}, bad, 1, s)
			Expect(err).To(HaveOccurred())

			bad = defaultPriors
			bad.Sigma = 0
			_, err = NewEstimator([]float64{1}, bad, 1, s)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SampleClass", func() {
		It("should compare the uniform draw against the class-0 probability", func() {
			Expect(SampleClass(transform.Pair{0.3, 0.7}, 0.29)).To(Equal(0))
			Expect(SampleClass(transform.Pair{0.3, 0.7}, 0.3)).To(Equal(1))
			Expect(SampleClass(transform.Pair{0.3, 0.7}, 0.99)).To(Equal(1))
		})
	})

	Describe("PointLoss", func() {
		It("should approach its exact expectation with many draws", func() {
			obs := []float64{0.8}
			est, err := NewEstimator(obs, defaultPriors, 20000, rng.New(3))
			Expect(err).NotTo(HaveOccurred())

			state := NewState(1, [2]float64{-1, 1}, [2]float64{math.Log(0.2), math.Log(0.3)})
			state.Responsibilities[0] = transform.Pair{0.2, 0.8}

			want := expectedPointLoss(0.8, state.Responsibilities[0], state, defaultPriors)
			Expect(est.PointLoss(0, state)).To(BeNumerically("~", want, 0.05))
		})
	})

	Describe("Loss", func() {
		It("should be reproducible for a fixed seed", func() {
			obs := []float64{-1.1, -0.9, 1.0, 1.2}
			state := NewState(len(obs), [2]float64{-1, 1}, [2]float64{})

			a, err := NewEstimator(obs, defaultPriors, 10, rng.New(11))
			Expect(err).NotTo(HaveOccurred())
			b, err := NewEstimator(obs, defaultPriors, 10, rng.New(11))
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Loss(state)).To(Equal(b.Loss(state)))
		})

		It("should be lower when the means sit on the data", func() {
			obs := []float64{-1.1, -0.9, -1.0, 1.0, 1.2, 0.9}
			est, err := NewEstimator(obs, defaultPriors, 2000, rng.New(5))
			Expect(err).NotTo(HaveOccurred())

			good := NewState(len(obs), [2]float64{-1, 1}, [2]float64{math.Log(0.3), math.Log(0.3)})
			for i := range obs[:3] {
				good.Responsibilities[i] = transform.Pair{0.9, 0.1}
				good.Responsibilities[i+3] = transform.Pair{0.1, 0.9}
			}
			bad := NewState(len(obs), [2]float64{4, 5}, [2]float64{math.Log(0.3), math.Log(0.3)})

			Expect(est.Loss(good)).To(BeNumerically("<", est.Loss(bad)))
		})

		It("should be finite while responsibilities stay inside the open interval", func() {
			obs := []float64{-1, 1}
			est, err := NewEstimator(obs, defaultPriors, 50, rng.New(9))
			Expect(err).NotTo(HaveOccurred())

			state := NewState(len(obs), [2]float64{0, 0}, [2]float64{})
			state.Responsibilities[0] = transform.InvLogit(transform.MaxLogit)
			state.Responsibilities[1] = transform.InvLogit(-transform.MaxLogit)

			loss := est.Loss(state)
			Expect(math.IsNaN(loss)).To(BeFalse())
			Expect(math.IsInf(loss, 0)).To(BeFalse())
		})
	})
})
