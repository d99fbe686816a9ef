package coordinate

import (
	"context"
	"fmt"
	"math"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/smthzch/BayesianComputation/internal/logging"
	"github.com/smthzch/BayesianComputation/internal/trajectory"
)

// Model is an optimization problem the Driver can walk coordinate by coordinate.
//
// S is the full optimization state. Update may modify the state it is given;
// the driver always passes a clone owned by the current step.
type Model[S any] interface {
	// Name identifies the model in logs and metrics.
	Name() string
	// Groups returns the supported parameter groups in their default order.
	Groups() []ParameterGroup
	// Clone deep-copies a state.
	Clone(s S) S
	// Update applies one gradient step to every coordinate of group.
	Update(ctx context.Context, group ParameterGroup, s S) (S, error)
	// Loss returns a fresh Monte Carlo loss estimate at s.
	Loss(s S) float64
	// Parameters flattens s into named scalars for the trajectory log.
	Parameters(s S) []trajectory.Parameter
}

// Recorder receives the loss of each completed iteration.
type Recorder interface {
	ObserveIteration(variant string, loss float64)
}

// Options configures a Driver.
type Options struct {
	// Iterations is the exact number of outer iterations Run performs.
	Iterations int
	// Order is the sequence of groups updated per iteration. Nil uses the
	// model's default order.
	Order []ParameterGroup
	// Recorder is optional.
	Recorder Recorder
}

// Driver runs count-bounded coordinate descent over a Model.
type Driver[S any] struct {
	model      Model[S]
	order      []ParameterGroup
	iterations int
	recorder   Recorder
}

// NewDriver creates a driver, rejecting update orders the model cannot serve.
func NewDriver[S any](model Model[S], opts Options) (*Driver[S], error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if opts.Iterations < 0 {
		return nil, fmt.Errorf("iterations must be non-negative, got %d", opts.Iterations)
	}
	order := opts.Order
	if order == nil {
		order = model.Groups()
	}
	if err := ValidateOrder(order, model.Groups()); err != nil {
		return nil, fmt.Errorf("invalid update order for %s: %w", model.Name(), err)
	}
	return &Driver[S]{
		model:      model,
		order:      append([]ParameterGroup(nil), order...),
		iterations: opts.Iterations,
		recorder:   opts.Recorder,
	}, nil
}

// Order returns the update order applied each iteration.
func (d *Driver[S]) Order() []ParameterGroup {
	return append([]ParameterGroup(nil), d.order...)
}

// Step performs one outer iteration on a copy of s and returns the new state
// together with its trajectory entry. s itself is left untouched.
func (d *Driver[S]) Step(ctx context.Context, iteration int, s S) (S, trajectory.Entry, error) {
	next := d.model.Clone(s)
	for _, group := range d.order {
		var err error
		if next, err = d.model.Update(ctx, group, next); err != nil {
			return s, trajectory.Entry{}, fmt.Errorf("iteration %d: failed to update %s: %w", iteration, group, err)
		}
	}
	entry := trajectory.Entry{
		Iteration:  iteration,
		Loss:       d.model.Loss(next),
		Parameters: d.model.Parameters(next),
	}
	return next, entry, nil
}

// Run performs exactly the configured number of iterations starting from init.
// It stops early only when ctx is cancelled.
func (d *Driver[S]) Run(ctx context.Context, init S) (S, *trajectory.Log, error) {
	logger := log.FromContext(ctx).WithValues("variant", d.model.Name())
	logger.V(logging.VERBOSE).Info("Starting coordinate descent", "iterations", d.iterations, "order", d.order)

	history := trajectory.NewLog(d.iterations)
	state := d.model.Clone(init)
	for i := range d.iterations {
		select {
		case <-ctx.Done():
			return state, history, ctx.Err()
		default:
		}

		next, entry, err := d.Step(ctx, i, state)
		if err != nil {
			return state, history, err
		}
		state = next
		history.Append(entry)
		if d.recorder != nil {
			d.recorder.ObserveIteration(d.model.Name(), entry.Loss)
		}
		if math.IsNaN(entry.Loss) || math.IsInf(entry.Loss, 0) {
			logger.V(logging.DEBUG).Info("Loss estimate is not finite", "iteration", i, "loss", entry.Loss)
		}
		logger.V(logging.TRACE).Info("Completed iteration", "iteration", i, "loss", entry.Loss)
	}

	if last, ok := history.Last(); ok {
		logger.V(logging.VERBOSE).Info("Finished coordinate descent", "loss", last.Loss, "smoothedLoss", history.SmoothedLoss(10))
	}
	return state, history, nil
}
