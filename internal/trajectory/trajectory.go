package trajectory

import "fmt"

// Parameter is the current value of one optimized scalar.
type Parameter struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Entry records the state of a run after one outer iteration.
type Entry struct {
	Iteration  int         `yaml:"iteration"`
	Loss       float64     `yaml:"loss"`
	Parameters []Parameter `yaml:"parameters"`
}

// Value returns the value of the named parameter.
func (e Entry) Value(name string) (float64, bool) {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return 0, false
}

// Log is an append-only sequence of entries, one per outer iteration.
type Log struct {
	entries []Entry
}

// NewLog creates an empty log with room for capacity entries.
func NewLog(capacity int) *Log {
	return &Log{entries: make([]Entry, 0, capacity)}
}

// Append adds an entry. Parameters are copied so later mutation by the caller
// does not alter the log.
func (l *Log) Append(e Entry) {
	e.Parameters = append([]Parameter(nil), e.Parameters...)
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent entry.
func (l *Log) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Losses returns the loss of every entry in order.
func (l *Log) Losses() []float64 {
	out := make([]float64, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Loss
	}
	return out
}

// SmoothedLoss returns the mean loss over the last window entries.
func (l *Log) SmoothedLoss(window int) float64 {
	ra := newRollingAverage(window)
	for _, e := range l.entries {
		ra.Add(e.Loss)
	}
	return ra.Average()
}

// Series returns the value of the named parameter at every iteration.
func (l *Log) Series(name string) ([]float64, error) {
	out := make([]float64, 0, len(l.entries))
	for _, e := range l.entries {
		v, ok := e.Value(name)
		if !ok {
			return nil, fmt.Errorf("parameter %q missing at iteration %d", name, e.Iteration)
		}
		out = append(out, v)
	}
	return out, nil
}
