// Package gradient estimates partial derivatives of a (possibly stochastic)
// loss by forward finite differences.
//
// The perturbed point is always evaluated before the base point, and the two
// evaluations share no random numbers. With a Monte Carlo loss the estimate is
// therefore noisy in both terms.
package gradient

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Loss evaluates a scalar loss at a vector point.
type Loss func(point []float64) float64

// MatrixLoss evaluates a scalar loss at a matrix point.
type MatrixLoss func(point *mat.Dense) float64

// FiniteDifference returns (loss(point + h*direction) - loss(point)) / h.
// point is not modified.
func FiniteDifference(loss Loss, point, direction []float64, h float64) (float64, error) {
	if len(point) != len(direction) {
		return 0, fmt.Errorf("direction has %d entries, point has %d", len(direction), len(point))
	}
	if h == 0 {
		return 0, fmt.Errorf("perturbation size must be non-zero")
	}
	shifted := make([]float64, len(point))
	floats.AddScaledTo(shifted, point, h, direction)
	return (loss(shifted) - loss(point)) / h, nil
}

// Partial returns the forward difference along coordinate i.
func Partial(loss Loss, point []float64, i int, h float64) (float64, error) {
	if i < 0 || i >= len(point) {
		return 0, fmt.Errorf("coordinate %d out of range [0, %d)", i, len(point))
	}
	direction := make([]float64, len(point))
	direction[i] = 1
	return FiniteDifference(loss, point, direction, h)
}

// Scalar returns the forward difference of a one-dimensional loss at x.
func Scalar(loss func(float64) float64, x, h float64) float64 {
	return (loss(x+h) - loss(x)) / h
}

// MatrixPartial returns the forward difference along the single entry (i, j)
// of a matrix-valued point. point is not modified.
func MatrixPartial(loss MatrixLoss, point *mat.Dense, i, j int, h float64) (float64, error) {
	r, c := point.Dims()
	if i < 0 || i >= r || j < 0 || j >= c {
		return 0, fmt.Errorf("entry (%d, %d) out of range for %dx%d matrix", i, j, r, c)
	}
	if h == 0 {
		return 0, fmt.Errorf("perturbation size must be non-zero")
	}
	direction := mat.NewDense(r, c, nil)
	direction.Set(i, j, h)

	var shifted mat.Dense
	shifted.Add(point, direction)
	return (loss(&shifted) - loss(point)) / h, nil
}
