package amortized

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/engines/mixture"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/test/utils"
)

var defaultOptions = mixture.Options{H: 0.1, StepSize: 0.05, MuStepSize: 0.002, SigmaStepSize: 0.002}

func newTestModel(obs []float64, draws int, seed uint64) *Model {
	GinkgoHelper()
	est, err := NewEstimator(obs, defaultPriors, draws, rng.New(seed))
	Expect(err).NotTo(HaveOccurred())
	m, err := NewModel(est, defaultOptions)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Estimator", func() {
	It("should reject invalid inputs", func() {
		_, err := NewEstimator(nil, defaultPriors, 1, rng.New(1))
		Expect(err).To(HaveOccurred())
		_, err = NewEstimator([]float64{1}, defaultPriors, 0, rng.New(1))
		Expect(err).To(HaveOccurred())
		_, err = NewEstimator([]float64{1}, defaultPriors, 1, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should match the exact loss when the encoder is saturated", func() {
		obs := []float64{1, -1}
		est, err := NewEstimator(obs, defaultPriors, 3, rng.New(1))
		Expect(err).NotTo(HaveOccurred())

		s := NewState([2]float64{40, -40}, [2][2]float64{{1, math.Log(0.5)}, {-1, math.Log(0.5)}})
		lik0 := distuv.Normal{Mu: 1, Sigma: 0.5}
		lik1 := distuv.Normal{Mu: -1, Sigma: 0.5}
		prior := distuv.Normal{Mu: 0, Sigma: 10}
		want := -(lik0.LogProb(1) + math.Log(0.5)) - (lik1.LogProb(-1) + math.Log(0.5)) -
			prior.LogProb(1) - prior.LogProb(-1)

		Expect(est.Loss(s)).To(BeNumerically("~", want, 1e-9))
	})
})

var _ = Describe("Model", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should only support the encoder and decoder groups", func() {
		m := newTestModel([]float64{1}, 1, 1)
		_, err := m.Update(ctx, coordinate.GroupMeans, RandomState(defaultPriors, rng.New(1)))
		Expect(err).To(MatchError(ContainSubstring("unsupported parameter group")))
	})

	It("should leave the decoder alone when updating the encoder", func() {
		m := newTestModel([]float64{-1, 1}, 5, 1)
		s := NewState([2]float64{0.1, -0.1}, [2][2]float64{{-1, 0}, {1, 0}})
		before := copyOf(s.Decoder.RawMatrix().Data)

		next, err := m.Update(ctx, coordinate.GroupEncoder, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(copyOf(next.Decoder.RawMatrix().Data)).To(Equal(before))
	})

	It("should report encoder weights and decoded parameters", func() {
		m := newTestModel([]float64{1}, 1, 1)
		params := m.Parameters(NewState([2]float64{1, 2}, [2][2]float64{{3, 0}, {4, math.Log(5)}}))

		names := make([]string, len(params))
		for i, p := range params {
			names[i] = p.Name
		}
		Expect(names).To(Equal([]string{"encoder[0]", "encoder[1]", "mu[0]", "sigma[0]", "mu[1]", "sigma[1]"}))
		Expect(params[5].Value).To(BeNumerically("~", 5, 1e-12))
	})

	It("should produce identical trajectories for identical seeds", func() {
		obs, _ := utils.ClusterData(8, 5, []float64{-1, 1}, 0.3)
		run := func(seed uint64) []float64 {
			d, err := coordinate.NewDriver[State](newTestModel(obs, 5, seed), coordinate.Options{Iterations: 3})
			Expect(err).NotTo(HaveOccurred())
			_, history, err := d.Run(ctx, RandomState(defaultPriors, rng.New(seed)))
			Expect(err).NotTo(HaveOccurred())
			return history.Losses()
		}
		Expect(cmp.Diff(run(4), run(4))).To(BeEmpty())
	})

	It("should learn a smooth encoder on two clusters", func() {
		if testing.Short() {
			Skip("slow convergence scenario")
		}

		obs, _ := utils.ClusterData(31, 30, []float64{-1, 1}, 0.3)
		d, err := coordinate.NewDriver[State](newTestModel(obs, 200, 12), coordinate.Options{Iterations: 150})
		Expect(err).NotTo(HaveOccurred())

		// Decoder scales start at the model noise scale; starting at 1 leaves the
		// merged solution with encoder weights near zero stable on this data.
		logSigma := math.Log(defaultPriors.Sigma)
		init := NewState([2]float64{0, 0}, [2][2]float64{{-0.2, logSigma}, {0.2, logSigma}})
		final, history, err := d.Run(ctx, init)
		Expect(err).NotTo(HaveOccurred())

		losses := history.Losses()
		Expect(losses).To(HaveLen(150))
		for _, l := range losses {
			Expect(math.IsNaN(l) || math.IsInf(l, 0)).To(BeFalse())
		}
		Expect(history.SmoothedLoss(10)).To(BeNumerically("<", stat.Mean(losses[:10], nil)))

		mu0, _ := final.Decode(0)
		mu1, _ := final.Decode(1)
		Expect(mu0).To(BeNumerically("~", -1, 0.5), "final state %v", final)
		Expect(mu1).To(BeNumerically("~", 1, 0.5), "final state %v", final)
		Expect(final.Encode(-1)[0]).To(BeNumerically(">", 0.7), "final state %v", final)
		Expect(final.Encode(1)[1]).To(BeNumerically(">", 0.7), "final state %v", final)

		bound := LipschitzBound(final)
		Expect(bound).To(BeNumerically(">", 0))
		for i := range obs {
			for j := i + 1; j < len(obs); j++ {
				diff := math.Abs(final.Encode(obs[i])[0] - final.Encode(obs[j])[0])
				Expect(diff).To(BeNumerically("<=", bound*math.Abs(obs[i]-obs[j])+1e-12))
			}
		}
	})
})

func copyOf(data []float64) []float64 {
	return append([]float64(nil), data...)
}
