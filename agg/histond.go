package agg

import "fmt"

// axis is one fixed-range, fixed-bin-count dimension shared by Histo2D,
// Histo3D, and the Profile aggregators. Unlike Histo1D, these reference
// types always have finite limits — auto-extension across more than one
// axis compounds badly, so spec.md §6's extension bullet is scoped to
// Histo1D only.
type axis struct {
	lo, hi float64
	nbins  int
}

func (a axis) bin(x float64) (int, bool) {
	if x < a.lo || x >= a.hi {
		return 0, false
	}
	width := (a.hi - a.lo) / float64(a.nbins)
	idx := int((x - a.lo) / width)
	if idx >= a.nbins {
		idx = a.nbins - 1
	}
	return idx, true
}

// Histo2D is a fixed two-axis histogram.
type Histo2D struct {
	x, y     axis
	counts   []float64 // row-major, x-major
	weighted bool
}

func NewHisto2D(xbins int, xlo, xhi float64, ybins int, ylo, yhi float64) *Histo2D {
	return &Histo2D{
		x:      axis{xlo, xhi, xbins},
		y:      axis{ylo, yhi, ybins},
		counts: make([]float64, xbins*ybins),
	}
}

// NewHisto2DWeighted is NewHisto2D, but Fill expects a third, trailing
// weight value per row and adds it to the bin instead of counting unit
// weight.
func NewHisto2DWeighted(xbins int, xlo, xhi float64, ybins int, ylo, yhi float64) *Histo2D {
	h := NewHisto2D(xbins, xlo, xhi, ybins, ylo, yhi)
	h.weighted = true
	return h
}

func (h *Histo2D) Clone() Aggregator {
	return &Histo2D{x: h.x, y: h.y, counts: make([]float64, len(h.counts)), weighted: h.weighted}
}

func (h *Histo2D) HasFiniteLimits() bool { return true }

func (h *Histo2D) Fill(values []any) error {
	if len(values) < 2 {
		return fmt.Errorf("agg: Histo2D.Fill wants 2 values, got %d", len(values))
	}
	x, ok1 := toFloat(values[0])
	y, ok2 := toFloat(values[1])
	if !ok1 || !ok2 {
		return fmt.Errorf("agg: Histo2D.Fill: values are not numeric")
	}
	weight := 1.0
	if h.weighted {
		if len(values) < 3 {
			return fmt.Errorf("agg: Histo2D.Fill: weighted histogram wants 3 values, got %d", len(values))
		}
		w, ok := toFloat(values[2])
		if !ok {
			return fmt.Errorf("agg: Histo2D.Fill: weight is not numeric")
		}
		weight = w
	}
	ix, ok := h.x.bin(x)
	if !ok {
		return nil
	}
	iy, ok := h.y.bin(y)
	if !ok {
		return nil
	}
	h.counts[ix*h.y.nbins+iy] += weight
	return nil
}

func (h *Histo2D) Merge(other Aggregator) error {
	o, ok := other.(*Histo2D)
	if !ok {
		return fmt.Errorf("agg: Histo2D.Merge: incompatible aggregator %T", other)
	}
	if o.x != h.x || o.y != h.y {
		return fmt.Errorf("agg: Histo2D.Merge: axis mismatch")
	}
	for i, c := range o.counts {
		h.counts[i] += c
	}
	return nil
}

// Counts returns a copy of the bin contents in x-major order.
func (h *Histo2D) Counts() []float64 {
	out := make([]float64, len(h.counts))
	copy(out, h.counts)
	return out
}

// Histo3D is a fixed three-axis histogram.
type Histo3D struct {
	x, y, z  axis
	counts   []float64 // x-major, then y, then z
	weighted bool
}

func NewHisto3D(xbins int, xlo, xhi float64, ybins int, ylo, yhi float64, zbins int, zlo, zhi float64) *Histo3D {
	return &Histo3D{
		x:      axis{xlo, xhi, xbins},
		y:      axis{ylo, yhi, ybins},
		z:      axis{zlo, zhi, zbins},
		counts: make([]float64, xbins*ybins*zbins),
	}
}

// NewHisto3DWeighted is NewHisto3D, but Fill expects a fourth, trailing
// weight value per row and adds it to the bin instead of counting unit
// weight.
func NewHisto3DWeighted(xbins int, xlo, xhi float64, ybins int, ylo, yhi float64, zbins int, zlo, zhi float64) *Histo3D {
	h := NewHisto3D(xbins, xlo, xhi, ybins, ylo, yhi, zbins, zlo, zhi)
	h.weighted = true
	return h
}

func (h *Histo3D) Clone() Aggregator {
	return &Histo3D{x: h.x, y: h.y, z: h.z, counts: make([]float64, len(h.counts)), weighted: h.weighted}
}

func (h *Histo3D) HasFiniteLimits() bool { return true }

func (h *Histo3D) Fill(values []any) error {
	if len(values) < 3 {
		return fmt.Errorf("agg: Histo3D.Fill wants 3 values, got %d", len(values))
	}
	x, ok1 := toFloat(values[0])
	y, ok2 := toFloat(values[1])
	z, ok3 := toFloat(values[2])
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("agg: Histo3D.Fill: values are not numeric")
	}
	weight := 1.0
	if h.weighted {
		if len(values) < 4 {
			return fmt.Errorf("agg: Histo3D.Fill: weighted histogram wants 4 values, got %d", len(values))
		}
		w, ok := toFloat(values[3])
		if !ok {
			return fmt.Errorf("agg: Histo3D.Fill: weight is not numeric")
		}
		weight = w
	}
	ix, ok := h.x.bin(x)
	if !ok {
		return nil
	}
	iy, ok := h.y.bin(y)
	if !ok {
		return nil
	}
	iz, ok := h.z.bin(z)
	if !ok {
		return nil
	}
	h.counts[(ix*h.y.nbins+iy)*h.z.nbins+iz] += weight
	return nil
}

func (h *Histo3D) Merge(other Aggregator) error {
	o, ok := other.(*Histo3D)
	if !ok {
		return fmt.Errorf("agg: Histo3D.Merge: incompatible aggregator %T", other)
	}
	if o.x != h.x || o.y != h.y || o.z != h.z {
		return fmt.Errorf("agg: Histo3D.Merge: axis mismatch")
	}
	for i, c := range o.counts {
		h.counts[i] += c
	}
	return nil
}

func (h *Histo3D) Counts() []float64 {
	out := make([]float64, len(h.counts))
	copy(out, h.counts)
	return out
}
