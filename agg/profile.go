package agg

import "fmt"

// Profile1D bins an x column but accumulates a y column's mean (and
// variance) per bin, rather than a count — e.g. "average y as a function
// of x".
type Profile1D struct {
	x      axis
	sum    []float64
	sumSq  []float64
	n      []float64
}

func NewProfile1D(xbins int, xlo, xhi float64) *Profile1D {
	return &Profile1D{
		x:     axis{xlo, xhi, xbins},
		sum:   make([]float64, xbins),
		sumSq: make([]float64, xbins),
		n:     make([]float64, xbins),
	}
}

func (p *Profile1D) Clone() Aggregator {
	return &Profile1D{x: p.x, sum: make([]float64, p.x.nbins), sumSq: make([]float64, p.x.nbins), n: make([]float64, p.x.nbins)}
}

func (p *Profile1D) HasFiniteLimits() bool { return true }

func (p *Profile1D) Fill(values []any) error {
	if len(values) < 2 {
		return fmt.Errorf("agg: Profile1D.Fill wants 2 values, got %d", len(values))
	}
	x, ok1 := toFloat(values[0])
	y, ok2 := toFloat(values[1])
	if !ok1 || !ok2 {
		return fmt.Errorf("agg: Profile1D.Fill: values are not numeric")
	}
	idx, ok := p.x.bin(x)
	if !ok {
		return nil
	}
	p.sum[idx] += y
	p.sumSq[idx] += y * y
	p.n[idx]++
	return nil
}

func (p *Profile1D) Merge(other Aggregator) error {
	o, ok := other.(*Profile1D)
	if !ok {
		return fmt.Errorf("agg: Profile1D.Merge: incompatible aggregator %T", other)
	}
	if o.x != p.x {
		return fmt.Errorf("agg: Profile1D.Merge: axis mismatch")
	}
	for i := range o.sum {
		p.sum[i] += o.sum[i]
		p.sumSq[i] += o.sumSq[i]
		p.n[i] += o.n[i]
	}
	return nil
}

// Means returns each bin's mean y, 0 for empty bins.
func (p *Profile1D) Means() []float64 {
	out := make([]float64, len(p.sum))
	for i, s := range p.sum {
		if p.n[i] > 0 {
			out[i] = s / p.n[i]
		}
	}
	return out
}

// Profile2D is Profile1D with an (x, y) bin pair accumulating a z mean.
type Profile2D struct {
	x, y  axis
	sum   []float64
	sumSq []float64
	n     []float64
}

func NewProfile2D(xbins int, xlo, xhi float64, ybins int, ylo, yhi float64) *Profile2D {
	size := xbins * ybins
	return &Profile2D{
		x:     axis{xlo, xhi, xbins},
		y:     axis{ylo, yhi, ybins},
		sum:   make([]float64, size),
		sumSq: make([]float64, size),
		n:     make([]float64, size),
	}
}

func (p *Profile2D) Clone() Aggregator {
	size := p.x.nbins * p.y.nbins
	return &Profile2D{x: p.x, y: p.y, sum: make([]float64, size), sumSq: make([]float64, size), n: make([]float64, size)}
}

func (p *Profile2D) HasFiniteLimits() bool { return true }

func (p *Profile2D) Fill(values []any) error {
	if len(values) < 3 {
		return fmt.Errorf("agg: Profile2D.Fill wants 3 values, got %d", len(values))
	}
	x, ok1 := toFloat(values[0])
	y, ok2 := toFloat(values[1])
	z, ok3 := toFloat(values[2])
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("agg: Profile2D.Fill: values are not numeric")
	}
	ix, ok := p.x.bin(x)
	if !ok {
		return nil
	}
	iy, ok := p.y.bin(y)
	if !ok {
		return nil
	}
	idx := ix*p.y.nbins + iy
	p.sum[idx] += z
	p.sumSq[idx] += z * z
	p.n[idx]++
	return nil
}

func (p *Profile2D) Merge(other Aggregator) error {
	o, ok := other.(*Profile2D)
	if !ok {
		return fmt.Errorf("agg: Profile2D.Merge: incompatible aggregator %T", other)
	}
	if o.x != p.x || o.y != p.y {
		return fmt.Errorf("agg: Profile2D.Merge: axis mismatch")
	}
	for i := range o.sum {
		p.sum[i] += o.sum[i]
		p.sumSq[i] += o.sumSq[i]
		p.n[i] += o.n[i]
	}
	return nil
}

func (p *Profile2D) Means() []float64 {
	out := make([]float64, len(p.sum))
	for i, s := range p.sum {
		if p.n[i] > 0 {
			out[i] = s / p.n[i]
		}
	}
	return out
}
