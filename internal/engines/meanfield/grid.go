package meanfield

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid is the cartesian set of candidate parameters.
type Grid struct {
	Locations []float64
	LogScales []float64
}

// Result is the outcome of a grid search.
type Result struct {
	Best Params
	Loss float64
	// Surface[i][j] is the loss at Locations[i], LogScales[j]. It has a single
	// row for the Exponential family.
	Surface *mat.Dense
}

// GridSearch evaluates the loss at every grid point and returns the lowest.
// Ties keep the first point in row-major order; non-finite losses never win.
func GridSearch(e *Estimator, family Family, grid Grid) (Result, error) {
	locations := grid.Locations
	if family == Exponential {
		locations = []float64{0}
	}
	if len(locations) == 0 || len(grid.LogScales) == 0 {
		return Result{}, fmt.Errorf("grid is empty")
	}

	result := Result{
		Loss:    math.Inf(1),
		Surface: mat.NewDense(len(locations), len(grid.LogScales), nil),
	}
	for i, loc := range locations {
		for j, logScale := range grid.LogScales {
			p := Params{Family: family, Location: loc, LogScale: logScale}
			loss := e.Loss(p)
			result.Surface.Set(i, j, loss)
			if loss < result.Loss {
				result.Best, result.Loss = p, loss
			}
		}
	}
	if math.IsInf(result.Loss, 1) {
		return result, fmt.Errorf("no grid point has a finite loss")
	}
	return result, nil
}
