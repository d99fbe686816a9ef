package config

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/logging"
)

// envPrefix namespaces environment variables, e.g. BAYESCOMP_DRAWS.
const envPrefix = "BAYESCOMP"

// flagBindings maps viper keys (= env var suffixes = config file keys) to pflag names.
var flagBindings = map[string]string{
	"VARIANT":              "variant",
	"SEED":                 "seed",
	"DRAWS":                "draws",
	"ITERATIONS":           "iterations",
	"H":                    "h",
	"STEP_SIZE":            "step-size",
	"MU_STEP_SIZE":         "mu-step-size",
	"SIGMA_STEP_SIZE":      "sigma-step-size",
	"UPDATE_ORDER":         "update-order",
	"PRIOR_MU":             "prior-mu",
	"PRIOR_SIGMA":          "prior-sigma",
	"SIGMA":                "sigma",
	"NUM_COMPONENTS":       "num-components",
	"CLASS_PRIOR":          "class-prior",
	"PROPOSAL_SCALE":       "proposal-scale",
	"BURN_IN":              "burn-in",
	"GRID_POINTS":          "grid-points",
	"OBSERVATIONS_FILE":    "observations",
	"METRICS_BIND_ADDRESS": "metrics-bind-address",
	"V":                    "v",
	"SWEEP_SEEDS":          "sweep-seeds",
	"SWEEP_CONCURRENCY":    "sweep-concurrency",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("VARIANT", VariantMixture)
	v.SetDefault("SEED", 1)
	v.SetDefault("DRAWS", 100)
	v.SetDefault("ITERATIONS", 100)
	v.SetDefault("H", 0.2)
	v.SetDefault("STEP_SIZE", 0.1)
	v.SetDefault("MU_STEP_SIZE", 0.005)
	v.SetDefault("SIGMA_STEP_SIZE", 0.005)
	v.SetDefault("UPDATE_ORDER", []string{})
	v.SetDefault("PRIOR_MU", 0.0)
	v.SetDefault("PRIOR_SIGMA", 10.0)
	v.SetDefault("SIGMA", 1.0)
	v.SetDefault("NUM_COMPONENTS", 2)
	v.SetDefault("CLASS_PRIOR", []float64{0.5, 0.5})
	v.SetDefault("PROPOSAL_SCALE", 0.3)
	v.SetDefault("BURN_IN", 10)
	v.SetDefault("GRID_POINTS", 25)
	v.SetDefault("OBSERVATIONS_FILE", "")
	v.SetDefault("METRICS_BIND_ADDRESS", "0")
	v.SetDefault("V", 0)
	v.SetDefault("SWEEP_SEEDS", []uint64{})
	v.SetDefault("SWEEP_CONCURRENCY", 4)
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("variant", VariantMixture, fmt.Sprintf("Inference variant, one of %v.", Variants))
	fs.Uint64("seed", 1, "Seed of the random source.")
	fs.Int("draws", 100, "Monte Carlo repetitions per loss estimate.")
	fs.Int("iterations", 100, "Number of outer iterations or MCMC samples.")
	fs.Float64("h", 0.2, "Finite-difference perturbation.")
	fs.Float64("step-size", 0.1, "Step size for responsibilities and encoder weights.")
	fs.Float64("mu-step-size", 0.005, "Step size for means and locations.")
	fs.Float64("sigma-step-size", 0.005, "Step size for log-scales.")
	fs.StringSlice("update-order", nil, "Parameter groups updated per iteration, in order. Empty uses the model default.")
	fs.Float64("prior-mu", 0, "Prior mean of the component means.")
	fs.Float64("prior-sigma", 10, "Prior scale of the component means.")
	fs.Float64("sigma", 1, "Known observation noise scale.")
	fs.Int("num-components", 2, "Number of mixture components.")
	fs.Float64Slice("class-prior", []float64{0.5, 0.5}, "Prior class probabilities.")
	fs.Float64("proposal-scale", 0.3, "Random-walk proposal scale for MCMC.")
	fs.Int("burn-in", 10, "MCMC samples discarded from summaries.")
	fs.Int("grid-points", 25, "Grid values per axis for grid variants.")
	fs.String("observations", "", "YAML file holding the observations.")
	fs.String("metrics-bind-address", "0", "Address the metrics endpoint binds to. Use 0 to disable it.")
	fs.Int("v", 0, "Log verbosity.")
	fs.StringSlice("sweep-seeds", nil, "Seeds to sweep over. Empty runs only --seed.")
	fs.Int("sweep-concurrency", 4, "Maximum concurrent runs in a sweep.")
}

// Load loads and validates the configuration.
// Precedence: flags > env > config file > defaults
// flagSet may be nil and path may be empty.
func Load(flagSet *flag.FlagSet, path string) (*Config, error) {
	cfg := &Config{}

	if err := loadConfig(cfg, flagSet, path); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Log.V(logging.VERBOSE).Info("Configuration loaded successfully", "variant", cfg.Variant, "seed", cfg.Seed)
	return cfg, nil
}

// loadConfig loads configuration with precedence: flags > env > config file > defaults
func loadConfig(cfg *Config, flagSet *flag.FlagSet, path string) error {
	v := viper.New()
	setDefaults(v)

	// Config file sits between env and defaults in precedence
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		settings := map[string]any{}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := v.MergeConfigMap(settings); err != nil {
			return fmt.Errorf("failed to merge config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flagSet != nil {
		for viperKey, flagName := range flagBindings {
			if f := flagSet.Lookup(flagName); f != nil {
				if err := v.BindPFlag(viperKey, f); err != nil {
					return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	classPrior, err := floatList(v.Get("CLASS_PRIOR"))
	if err != nil {
		return fmt.Errorf("invalid CLASS_PRIOR: %w", err)
	}
	if len(classPrior) != 2 {
		return fmt.Errorf("CLASS_PRIOR must have 2 entries, got %d", len(classPrior))
	}
	sweepSeeds, err := uintList(v.Get("SWEEP_SEEDS"))
	if err != nil {
		return fmt.Errorf("invalid SWEEP_SEEDS: %w", err)
	}

	*cfg = Config{
		Variant:          v.GetString("VARIANT"),
		Seed:             v.GetUint64("SEED"),
		Draws:            v.GetInt("DRAWS"),
		Iterations:       v.GetInt("ITERATIONS"),
		H:                v.GetFloat64("H"),
		StepSize:         v.GetFloat64("STEP_SIZE"),
		MuStepSize:       v.GetFloat64("MU_STEP_SIZE"),
		SigmaStepSize:    v.GetFloat64("SIGMA_STEP_SIZE"),
		UpdateOrder:      stringList(v.Get("UPDATE_ORDER")),
		PriorMu:          v.GetFloat64("PRIOR_MU"),
		PriorSigma:       v.GetFloat64("PRIOR_SIGMA"),
		Sigma:            v.GetFloat64("SIGMA"),
		NumComponents:    v.GetInt("NUM_COMPONENTS"),
		ClassPrior:       [2]float64{classPrior[0], classPrior[1]},
		ProposalScale:    v.GetFloat64("PROPOSAL_SCALE"),
		BurnIn:           v.GetInt("BURN_IN"),
		GridPoints:       v.GetInt("GRID_POINTS"),
		ObservationsFile: v.GetString("OBSERVATIONS_FILE"),
		MetricsAddr:      v.GetString("METRICS_BIND_ADDRESS"),
		Verbosity:        v.GetInt("V"),
		SweepSeeds:       sweepSeeds,
		SweepConcurrency: v.GetInt("SWEEP_CONCURRENCY"),
	}
	return nil
}
