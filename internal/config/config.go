package config

// Variants of the inference procedure.
const (
	VariantMixture              = "mixture"
	VariantAmortized            = "amortized"
	VariantMeanfieldNormal      = "meanfield-normal"
	VariantMeanfieldExponential = "meanfield-exponential"
	VariantGridNormal           = "grid-normal"
	VariantGridExponential      = "grid-exponential"
	VariantMCMC                 = "mcmc"
)

// Variants lists every supported variant.
var Variants = []string{
	VariantMixture,
	VariantAmortized,
	VariantMeanfieldNormal,
	VariantMeanfieldExponential,
	VariantGridNormal,
	VariantGridExponential,
	VariantMCMC,
}

// Config is the configuration of one inference run. It is immutable after Load.
type Config struct {
	// Variant selects the inference procedure.
	Variant string
	// Seed initializes the random source. Runs with equal Config and Seed are
	// identical.
	Seed uint64

	// Monte Carlo and optimizer settings
	Draws         int     // repetitions per loss estimate
	Iterations    int     // outer iterations (or MCMC samples)
	H             float64 // finite-difference perturbation
	StepSize      float64 // responsibility / encoder step
	MuStepSize    float64 // mean / location step
	SigmaStepSize float64 // log-scale step
	UpdateOrder   []string

	// Model constants
	PriorMu       float64
	PriorSigma    float64
	Sigma         float64 // known observation noise scale
	NumComponents int
	ClassPrior    [2]float64

	// Sampler settings
	ProposalScale float64
	BurnIn        int

	// GridPoints is the number of grid values per axis for grid variants.
	GridPoints int

	ObservationsFile string
	MetricsAddr      string // "0" disables the metrics endpoint
	Verbosity        int

	// Sweep settings; an empty SweepSeeds runs only Seed.
	SweepSeeds       []uint64
	SweepConcurrency int
}

// IsSweep reports whether the run fans out over several seeds.
func (c *Config) IsSweep() bool {
	return len(c.SweepSeeds) > 0
}

// WithSeed returns a copy of c using seed.
func (c Config) WithSeed(seed uint64) Config {
	c.Seed = seed
	c.UpdateOrder = append([]string(nil), c.UpdateOrder...)
	c.SweepSeeds = append([]uint64(nil), c.SweepSeeds...)
	return c
}
