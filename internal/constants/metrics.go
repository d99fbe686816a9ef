package constants

// Metric names exported by an optimization run.
const (
	// LossMetric is the loss estimate recorded at the end of the latest iteration.
	LossMetric = "bayescomp_loss"
	// IterationsMetric counts completed outer iterations.
	IterationsMetric = "bayescomp_iterations_total"
	// AcceptanceRateMetric is the acceptance rate of the latest MCMC chain.
	AcceptanceRateMetric = "bayescomp_mcmc_acceptance_rate"
)

// Metric label names.
const (
	LabelVariant = "variant"
)
