package mixture

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/internal/transform"
	"github.com/smthzch/BayesianComputation/test/utils"
)

var defaultOptions = Options{H: 0.2, StepSize: 0.1, MuStepSize: 0.005, SigmaStepSize: 0.005}

func newTestModel(obs []float64, priors Priors, draws int, seed uint64, opts Options) *Model {
	GinkgoHelper()
	est, err := NewEstimator(obs, priors, draws, rng.New(seed))
	Expect(err).NotTo(HaveOccurred())
	m, err := NewModel(est, opts)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Model", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewModel", func() {
		It("should reject non-positive constants", func() {
			est, err := NewEstimator([]float64{1}, defaultPriors, 1, rng.New(1))
			Expect(err).NotTo(HaveOccurred())

			_, err = NewModel(nil, defaultOptions)
			Expect(err).To(HaveOccurred())

			opts := defaultOptions
			opts.H = 0
			_, err = NewModel(est, opts)
			Expect(err).To(HaveOccurred())

			opts = defaultOptions
			opts.MuStepSize = -1
			_, err = NewModel(est, opts)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("should reject groups the mixture does not have", func() {
			m := newTestModel([]float64{1, 2}, defaultPriors, 2, 1, defaultOptions)
			_, err := m.Update(ctx, coordinate.GroupEncoder, NewState(2, [2]float64{}, [2]float64{}))
			Expect(err).To(MatchError(ContainSubstring("unsupported parameter group")))
		})

		It("should reject a state sized for different data", func() {
			m := newTestModel([]float64{1, 2}, defaultPriors, 2, 1, defaultOptions)
			_, err := m.Update(ctx, coordinate.GroupMeans, NewState(3, [2]float64{}, [2]float64{}))
			Expect(err).To(HaveOccurred())
		})

		It("should keep every responsibility on the simplex under huge steps", func() {
			obs, _ := utils.ClusterData(4, 10, []float64{-3, 3}, 0.5)
			opts := defaultOptions
			opts.StepSize = 1e6
			m := newTestModel(obs, defaultPriors, 3, 2, opts)

			s := NewState(len(obs), [2]float64{-3, 3}, [2]float64{})
			for range 5 {
				var err error
				s, err = m.Update(ctx, coordinate.GroupResponsibilities, s)
				Expect(err).NotTo(HaveOccurred())
				for _, r := range s.Responsibilities {
					Expect(r[0]).To(BeNumerically(">", 0))
					Expect(r[1]).To(BeNumerically(">", 0))
					Expect(r[0] + r[1]).To(BeNumerically("~", 1, 1e-12))
					Expect(math.Abs(transform.Logit(r))).To(BeNumerically("<=", transform.MaxLogit+1e-9))
				}
			}
		})

		It("should move responsibilities toward the nearer component", func() {
			obs := []float64{-2, 2}
			m := newTestModel(obs, defaultPriors, 2000, 3, defaultOptions)

			s := NewState(len(obs), [2]float64{-2, 2}, [2]float64{math.Log(0.1), math.Log(0.1)})
			for range 10 {
				var err error
				s, err = m.Update(ctx, coordinate.GroupResponsibilities, s)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(s.Responsibilities[0][0]).To(BeNumerically(">", 0.5))
			Expect(s.Responsibilities[1][1]).To(BeNumerically(">", 0.5))
		})
	})

	Describe("Parameters", func() {
		It("should report responsibilities, means and natural-scale sigmas", func() {
			m := newTestModel([]float64{1}, defaultPriors, 1, 1, defaultOptions)
			s := NewState(1, [2]float64{-1, 2}, [2]float64{0, math.Log(3)})
			s.Responsibilities[0] = transform.Pair{0.25, 0.75}

			params := m.Parameters(s)
			Expect(params).To(HaveLen(5))
			Expect(params[0].Name).To(Equal("resp[0]"))
			Expect(params[0].Value).To(Equal(0.25))
			Expect(params[2].Name).To(Equal("mu[1]"))
			Expect(params[2].Value).To(Equal(2.0))
			Expect(params[4].Name).To(Equal("sigma[1]"))
			Expect(params[4].Value).To(BeNumerically("~", 3, 1e-12))
		})
	})

	Describe("coordinate descent", func() {
		It("should produce identical trajectories for identical seeds", func() {
			obs, _ := utils.ClusterData(8, 5, []float64{-1, 1}, 0.2)
			run := func(seed uint64) []float64 {
				m := newTestModel(obs, defaultPriors, 5, seed, defaultOptions)
				d, err := coordinate.NewDriver[State](m, coordinate.Options{Iterations: 4})
				Expect(err).NotTo(HaveOccurred())
				_, history, err := d.Run(ctx, RandomState(len(obs), defaultPriors, rng.New(seed)))
				Expect(err).NotTo(HaveOccurred())
				Expect(history.Len()).To(Equal(4))
				return history.Losses()
			}

			Expect(cmp.Diff(run(21), run(21))).To(BeEmpty())
			Expect(cmp.Diff(run(21), run(22))).NotTo(BeEmpty())
		})

		It("should leave the input state untouched by a step", func() {
			obs := []float64{-1, 1}
			m := newTestModel(obs, defaultPriors, 5, 1, defaultOptions)
			d, err := coordinate.NewDriver[State](m, coordinate.Options{Iterations: 1})
			Expect(err).NotTo(HaveOccurred())

			init := NewState(len(obs), [2]float64{-0.5, 0.5}, [2]float64{})
			before := init.Clone()
			_, entry, err := d.Step(ctx, 0, init)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Iteration).To(Equal(0))
			Expect(cmp.Diff(before, init)).To(BeEmpty())
		})

		DescribeTable("should separate two well-separated clusters from a random start",
			func(seed uint64) {
				if testing.Short() {
					Skip("slow convergence scenario")
				}

				obs, labels := utils.ClusterData(2024, 30, []float64{-1, 1}, 0.1)
				// Model noise 0.5: with a known sigma of 1 and centers at -1 and +1
				// a single merged component has the higher likelihood.
				priors := defaultPriors
				priors.Sigma = 0.5

				sampler := rng.New(seed)
				init := RandomState(len(obs), priors, sampler)
				est, err := NewEstimator(obs, priors, 100, sampler)
				Expect(err).NotTo(HaveOccurred())
				m, err := NewModel(est, defaultOptions)
				Expect(err).NotTo(HaveOccurred())
				d, err := coordinate.NewDriver[State](m, coordinate.Options{Iterations: 300})
				Expect(err).NotTo(HaveOccurred())

				final, history, err := d.Run(ctx, init)
				Expect(err).NotTo(HaveOccurred())
				Expect(history.Len()).To(Equal(300))

				// Components may come out in either order.
				left := 0
				if math.Abs(final.Means[1]+1) < math.Abs(final.Means[0]+1) {
					left = 1
				}
				right := 1 - left
				Expect(final.Means[left]).To(BeNumerically("~", -1, 0.5), "final state %v", final)
				Expect(final.Means[right]).To(BeNumerically("~", 1, 0.5), "final state %v", final)

				component := [2]int{left, right}
				for i, label := range labels {
					Expect(final.Responsibilities[i][component[label]]).To(BeNumerically(">", 0.7), "observation %d at %v", i, obs[i])
				}
			},
			Entry("seed 1", uint64(1)),
			Entry("seed 2", uint64(2)),
			Entry("seed 3", uint64(3)),
		)
	})
})
