package amortized

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/engines/coordinate"
	"github.com/smthzch/BayesianComputation/internal/engines/mixture"
	"github.com/smthzch/BayesianComputation/internal/gradient"
	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
)

// Name identifies the amortized mixture model.
const Name = "amortized"

// Model optimizes the encoder and decoder weights by coordinate descent.
// Options.StepSize applies to encoder entries, MuStepSize to decoder column 0
// and SigmaStepSize to decoder column 1.
type Model struct {
	estimator *Estimator
	opts      mixture.Options
}

var _ coordinate.Model[State] = (*Model)(nil)

// NewModel creates an amortized model over estimator.
func NewModel(estimator *Estimator, opts mixture.Options) (*Model, error) {
	if estimator == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Model{estimator: estimator, opts: opts}, nil
}

func (m *Model) Name() string { return Name }

// Groups returns encoder, decoder.
func (m *Model) Groups() []coordinate.ParameterGroup {
	return []coordinate.ParameterGroup{coordinate.GroupEncoder, coordinate.GroupDecoder}
}

func (m *Model) Clone(s State) State { return s.Clone() }

func (m *Model) Loss(s State) float64 { return m.estimator.Loss(s) }

// Update steps every entry of the group's matrix in row-major order. Each
// entry sees the entries updated before it.
func (m *Model) Update(ctx context.Context, group coordinate.ParameterGroup, s State) (State, error) {
	switch group {
	case coordinate.GroupEncoder:
		err := m.updateMatrix(ctx, s.Encoder, func(_ int) float64 { return m.opts.StepSize },
			func(w *mat.Dense) State { return State{Encoder: w, Decoder: s.Decoder} })
		return s, err
	case coordinate.GroupDecoder:
		err := m.updateMatrix(ctx, s.Decoder, m.decoderStep,
			func(w *mat.Dense) State { return State{Encoder: s.Encoder, Decoder: w} })
		return s, err
	default:
		return s, fmt.Errorf("unsupported parameter group %q", group)
	}
}

func (m *Model) decoderStep(col int) float64 {
	if col == 0 {
		return m.opts.MuStepSize
	}
	return m.opts.SigmaStepSize
}

func (m *Model) updateMatrix(ctx context.Context, w *mat.Dense, step func(col int) float64, with func(*mat.Dense) State) error {
	logger := log.FromContext(ctx)
	loss := func(trial *mat.Dense) float64 {
		return m.estimator.Loss(with(trial))
	}
	rows, cols := w.Dims()
	for i := range rows {
		for j := range cols {
			g, err := gradient.MatrixPartial(loss, w, i, j, m.opts.H)
			if err != nil {
				return err
			}
			w.Set(i, j, w.At(i, j)-step(j)*g)
			logger.V(logging.TRACE).Info("Updated weight", "row", i, "col", j, "gradient", g, "value", w.At(i, j))
		}
	}
	return nil
}

// Parameters reports the encoder weights and the decoded component means and
// scales.
func (m *Model) Parameters(s State) []trajectory.Parameter {
	params := []trajectory.Parameter{
		{Name: "encoder[0]", Value: s.Encoder.At(0, 0)},
		{Name: "encoder[1]", Value: s.Encoder.At(0, 1)},
	}
	for k := range mixture.NumComponents {
		mu, sigma := s.Decode(k)
		params = append(params,
			trajectory.Parameter{Name: fmt.Sprintf("mu[%d]", k), Value: mu},
			trajectory.Parameter{Name: fmt.Sprintf("sigma[%d]", k), Value: sigma},
		)
	}
	return params
}
