package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smthzch/BayesianComputation/internal/constants"
)

// Recorder exports run progress as prometheus metrics.
type Recorder struct {
	lossGauge       *prometheus.GaugeVec
	iterations      *prometheus.CounterVec
	acceptanceGauge *prometheus.GaugeVec
}

// NewRecorder creates a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		lossGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: constants.LossMetric,
				Help: "Monte Carlo loss estimate (negated ELBO up to a constant) after the latest iteration",
			},
			[]string{constants.LabelVariant},
		),
		iterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: constants.IterationsMetric,
				Help: "Number of completed outer iterations",
			},
			[]string{constants.LabelVariant},
		),
		acceptanceGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: constants.AcceptanceRateMetric,
				Help: "Acceptance rate of the latest Metropolis-Hastings chain",
			},
			[]string{constants.LabelVariant},
		),
	}
	for _, c := range []prometheus.Collector{r.lossGauge, r.iterations, r.acceptanceGauge} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

// ObserveIteration records the loss of a completed iteration.
func (r *Recorder) ObserveIteration(variant string, loss float64) {
	if r == nil {
		return
	}
	r.lossGauge.WithLabelValues(variant).Set(loss)
	r.iterations.WithLabelValues(variant).Inc()
}

// ObserveAcceptance records the acceptance rate of a finished chain.
func (r *Recorder) ObserveAcceptance(variant string, rate float64) {
	if r == nil {
		return
	}
	r.acceptanceGauge.WithLabelValues(variant).Set(rate)
}
