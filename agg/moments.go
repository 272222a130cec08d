package agg

import "fmt"

// Moments accumulates count, mean, and variance of a single numeric
// column using Welford's online algorithm, merged pairwise via
// Chan et al.'s parallel variance combination. Useful as a Fill target
// when a caller wants more than Mean()'s bare average.
type Moments struct {
	n      float64
	mean   float64
	m2     float64 // sum of squared deviations from the running mean
}

func NewMoments() *Moments { return &Moments{} }

func (m *Moments) Clone() Aggregator { return &Moments{} }

func (m *Moments) HasFiniteLimits() bool { return false }

func (m *Moments) Fill(values []any) error {
	if len(values) < 1 {
		return fmt.Errorf("agg: Moments.Fill wants 1 value, got %d", len(values))
	}
	x, ok := toFloat(values[0])
	if !ok {
		return fmt.Errorf("agg: Moments.Fill: value is not numeric")
	}
	m.n++
	delta := x - m.mean
	m.mean += delta / m.n
	m.m2 += delta * (x - m.mean)
	return nil
}

func (m *Moments) Merge(other Aggregator) error {
	o, ok := other.(*Moments)
	if !ok {
		return fmt.Errorf("agg: Moments.Merge: incompatible aggregator %T", other)
	}
	if o.n == 0 {
		return nil
	}
	if m.n == 0 {
		*m = *o
		return nil
	}
	delta := o.mean - m.mean
	total := m.n + o.n
	m.m2 = m.m2 + o.m2 + delta*delta*m.n*o.n/total
	m.mean = (m.mean*m.n + o.mean*o.n) / total
	m.n = total
	return nil
}

func (m *Moments) Count() int64   { return int64(m.n) }
func (m *Moments) Mean() float64  { return m.mean }
func (m *Moments) Variance() float64 {
	if m.n < 2 {
		return 0
	}
	return m.m2 / (m.n - 1)
}
