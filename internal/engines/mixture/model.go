package mixture

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/gradient"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
	"github.com/smthzch/BayesianComputation/internal/transform"
)

// Name identifies the non-amortized mixture model.
const Name = "mixture"

// Options are the finite-difference and step constants of the optimizer.
type Options struct {
	// H is the finite-difference perturbation.
	H float64
	// StepSize scales responsibility logit steps.
	StepSize float64
	// MuStepSize scales component mean steps.
	MuStepSize float64
	// SigmaStepSize scales component log-scale steps.
	SigmaStepSize float64
}

// Validate checks every constant is positive.
func (o Options) Validate() error {
	if o.H <= 0 {
		return fmt.Errorf("h must be positive, got %v", o.H)
	}
	if o.StepSize <= 0 || o.MuStepSize <= 0 || o.SigmaStepSize <= 0 {
		return fmt.Errorf("step sizes must be positive, got %v/%v/%v", o.StepSize, o.MuStepSize, o.SigmaStepSize)
	}
	return nil
}

// Model is the latent-variable mixture problem solved by coordinate descent.
type Model struct {
	estimator *Estimator
	opts      Options
}

var _ coordinate.Model[State] = (*Model)(nil)

// NewModel creates a mixture model over estimator.
func NewModel(estimator *Estimator, opts Options) (*Model, error) {
	if estimator == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Model{estimator: estimator, opts: opts}, nil
}

func (m *Model) Name() string { return Name }

// Groups returns responsibilities, means, scales.
func (m *Model) Groups() []coordinate.ParameterGroup {
	return []coordinate.ParameterGroup{
		coordinate.GroupResponsibilities,
		coordinate.GroupMeans,
		coordinate.GroupScales,
	}
}

func (m *Model) Clone(s State) State { return s.Clone() }

// Loss returns a fresh full-dataset loss estimate.
func (m *Model) Loss(s State) float64 { return m.estimator.Loss(s) }

// Update applies one gradient step to each coordinate of group, in index order.
func (m *Model) Update(ctx context.Context, group coordinate.ParameterGroup, s State) (State, error) {
	if len(s.Responsibilities) != len(m.estimator.Observations) {
		return s, fmt.Errorf("state has %d responsibility rows, expected %d", len(s.Responsibilities), len(m.estimator.Observations))
	}
	switch group {
	case coordinate.GroupResponsibilities:
		m.updateResponsibilities(s)
	case coordinate.GroupMeans:
		if err := m.updateGlobal(ctx, s.Means[:], &s, m.opts.MuStepSize, func(v []float64, trial *State) {
			copy(trial.Means[:], v)
		}); err != nil {
			return s, err
		}
	case coordinate.GroupScales:
		if err := m.updateGlobal(ctx, s.LogScales[:], &s, m.opts.SigmaStepSize, func(v []float64, trial *State) {
			copy(trial.LogScales[:], v)
		}); err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("unsupported parameter group %q", group)
	}
	return s, nil
}

// updateResponsibilities takes one logit-domain step per observation using the
// loss restricted to that observation.
func (m *Model) updateResponsibilities(s State) {
	for i, x := range m.estimator.Observations {
		loss := func(u float64) float64 {
			return m.estimator.pointLossAt(x, transform.InvLogit(u), s)
		}
		g := gradient.Scalar(loss, transform.Logit(s.Responsibilities[i]), m.opts.H)
		s.Responsibilities[i] = transform.StepLogit(s.Responsibilities[i], g, m.opts.StepSize)
	}
}

// updateGlobal walks the coordinates of values, which alias a field of s, and
// steps each in place so later coordinates see earlier updates.
func (m *Model) updateGlobal(ctx context.Context, values []float64, s *State, step float64, assign func([]float64, *State)) error {
	logger := log.FromContext(ctx)
	for k := range values {
		loss := func(v []float64) float64 {
			trial := *s
			assign(v, &trial)
			return m.estimator.Loss(trial)
		}
		g, err := gradient.Partial(loss, values, k, m.opts.H)
		if err != nil {
			return err
		}
		values[k] -= step * g
		logger.V(logging.TRACE).Info("Updated component parameter", "component", k, "gradient", g, "value", values[k])
	}
	return nil
}

// Parameters reports the class-0 responsibility of every observation followed
// by the component means and scales.
func (m *Model) Parameters(s State) []trajectory.Parameter {
	params := make([]trajectory.Parameter, 0, len(s.Responsibilities)+2*NumComponents)
	for i, r := range s.Responsibilities {
		params = append(params, trajectory.Parameter{Name: fmt.Sprintf("resp[%d]", i), Value: r[0]})
	}
	scales := s.Scales()
	for k := range s.Means {
		params = append(params, trajectory.Parameter{Name: fmt.Sprintf("mu[%d]", k), Value: s.Means[k]})
	}
	for k := range scales {
		params = append(params, trajectory.Parameter{Name: fmt.Sprintf("sigma[%d]", k), Value: scales[k]})
	}
	return params
}
