package meanfield

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/gradient"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
)

// Options are the constants of the descent.
type Options struct {
	H            float64
	LocationStep float64
	SpreadStep   float64
}

// Model fits Params by finite-difference coordinate descent.
type Model struct {
	estimator *Estimator
	family    Family
	opts      Options
}

var _ coordinate.Model[Params] = (*Model)(nil)

// NewModel creates a descent model for family.
func NewModel(estimator *Estimator, family Family, opts Options) (*Model, error) {
	if estimator == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if _, err := ParseFamily(string(family)); err != nil {
		return nil, err
	}
	if opts.H <= 0 || opts.LocationStep <= 0 || opts.SpreadStep <= 0 {
		return nil, fmt.Errorf("h and step sizes must be positive, got %+v", opts)
	}
	return &Model{estimator: estimator, family: family, opts: opts}, nil
}

func (m *Model) Name() string { return "meanfield-" + string(m.family) }

// Groups returns location then spread. The Exponential family has no location,
// so its location update leaves the parameters unchanged.
func (m *Model) Groups() []coordinate.ParameterGroup {
	return []coordinate.ParameterGroup{coordinate.GroupLocation, coordinate.GroupSpread}
}

func (m *Model) Clone(p Params) Params { return p }

func (m *Model) Loss(p Params) float64 { return m.estimator.Loss(p) }

func (m *Model) Update(ctx context.Context, group coordinate.ParameterGroup, p Params) (Params, error) {
	p.Family = m.family
	switch group {
	case coordinate.GroupLocation:
		if m.family == Exponential {
			return p, nil
		}
		g := gradient.Scalar(func(loc float64) float64 {
			trial := p
			trial.Location = loc
			return m.estimator.Loss(trial)
		}, p.Location, m.opts.H)
		p.Location -= m.opts.LocationStep * g
	case coordinate.GroupSpread:
		g := gradient.Scalar(func(logScale float64) float64 {
			trial := p
			trial.LogScale = logScale
			return m.estimator.Loss(trial)
		}, p.LogScale, m.opts.H)
		p.LogScale -= m.opts.SpreadStep * g
	default:
		return p, fmt.Errorf("unsupported parameter group %q", group)
	}
	log.FromContext(ctx).V(logging.TRACE).Info("Updated variational parameter", "group", group, "params", p)
	return p, nil
}

// Parameters reports location, scale and mean.
func (m *Model) Parameters(p Params) []trajectory.Parameter {
	return []trajectory.Parameter{
		{Name: "location", Value: p.Location},
		{Name: "scale", Value: p.Scale()},
		{Name: "mean", Value: p.Mean()},
	}
}
