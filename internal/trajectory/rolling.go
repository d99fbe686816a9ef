package trajectory

import "gonum.org/v1/gonum/stat"

// rollingAverage maintains a fixed-size sliding window of float64 values
// and computes their arithmetic mean. Used to smooth the jagged loss curve of
// a stochastic run.
type rollingAverage struct {
	values  []float64
	maxSize int
}

// newRollingAverage creates a rollingAverage with the given window size.
// Non-positive sizes are treated as 1.
func newRollingAverage(maxSize int) *rollingAverage {
	if maxSize < 1 {
		maxSize = 1
	}
	return &rollingAverage{
		values:  make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends a value, evicting the oldest entry if the window is full.
func (r *rollingAverage) Add(value float64) {
	if len(r.values) >= r.maxSize {
		r.values = r.values[1:]
	}
	r.values = append(r.values, value)
}

// Average returns the arithmetic mean of all stored values, or 0 if empty.
func (r *rollingAverage) Average() float64 {
	if len(r.values) == 0 {
		return 0
	}
	return stat.Mean(r.values, nil)
}

// Len returns the number of values currently stored.
func (r *rollingAverage) Len() int {
	return len(r.values)
}
