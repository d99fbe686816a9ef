package mcmc

import (
	"context"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smthzch/BayesianComputation/internal/model"
	"github.com/smthzch/BayesianComputation/internal/rng"
	"github.com/smthzch/BayesianComputation/test/utils"
)

var _ = Describe("Sampler", func() {
	var (
		normalMean model.NormalMean
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		normalMean = model.NormalMean{Observations: utils.NormalData(3, 60, 2, 1), PriorMu: 0, PriorSigma: 10, Sigma: 1}
	})

	newSampler := func(seed uint64, iterations, burnIn int) *Sampler {
		return &Sampler{
			Model:         normalMean,
			ProposalScale: 0.3,
			Iterations:    iterations,
			BurnIn:        burnIn,
			Rand:          rng.New(seed),
		}
	}

	It("should reject invalid settings", func() {
		s := newSampler(1, 10, 10)
		_, err := s.Run(ctx, 0)
		Expect(err).To(MatchError(ContainSubstring("burn-in")))

		s = newSampler(1, 10, 0)
		s.ProposalScale = 0
		Expect(s.Validate()).To(HaveOccurred())

		s = newSampler(1, 10, 0)
		s.Rand = nil
		Expect(s.Validate()).To(HaveOccurred())
	})

	It("should match the conjugate posterior", func() {
		chain, err := newSampler(42, 5000, 500).Run(ctx, 0)
		Expect(err).NotTo(HaveOccurred())

		mean, sd := utils.ConjugatePosterior(normalMean.Observations, 0, 10, 1)
		Expect(chain.Samples).To(HaveLen(5000))
		Expect(chain.Kept()).To(HaveLen(4500))
		Expect(chain.Mean()).To(BeNumerically("~", mean, 0.1))
		Expect(chain.StdDev()).To(BeNumerically("~", sd, 0.05))
		Expect(chain.AcceptanceRate()).To(And(BeNumerically(">", 0.2), BeNumerically("<", 0.9)))
	})

	It("should be reproducible for a fixed seed", func() {
		a, err := newSampler(7, 200, 0).Run(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		b, err := newSampler(7, 200, 0).Run(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp.Diff(a, b)).To(BeEmpty())
	})

	It("should record every draw in the trajectory", func() {
		chain, err := newSampler(9, 20, 5).Run(ctx, 0)
		Expect(err).NotTo(HaveOccurred())

		history := chain.Trajectory()
		Expect(history.Len()).To(Equal(20))
		series, err := history.Series("mu")
		Expect(err).NotTo(HaveOccurred())
		Expect(series).To(Equal(chain.Samples))
		Expect(history.Losses()[3]).To(Equal(-chain.LogPosterior[3]))
	})

	It("should stop when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		chain, err := newSampler(1, 100, 0).Run(cctx, 0)
		Expect(err).To(MatchError(context.Canceled))
		Expect(chain.Samples).To(BeEmpty())
	})
})
