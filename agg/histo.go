package agg

import "fmt"

// Histo1D is a fixed-width single-axis histogram, the reference
// Aggregator for Fill()-style one-dimensional binning.
type Histo1D struct {
	lo, hi   float64
	nbins    int
	counts   []float64
	under    float64
	over     float64
	finite   bool
	weighted bool
}

// NewHisto1D creates an nbins-bin histogram over [lo, hi). If finite is
// false, Fill widens [lo, hi) to admit out-of-range values instead of
// routing them to the under/overflow counters (spec.md §6's Histo1D
// auto-extension bullet).
func NewHisto1D(nbins int, lo, hi float64, finite bool) *Histo1D {
	return &Histo1D{lo: lo, hi: hi, nbins: nbins, counts: make([]float64, nbins), finite: finite}
}

// NewHisto1DWeighted is NewHisto1D, but Fill expects a second, trailing
// weight value per row (ROOT's Histo1D(model, vName, wName) overload)
// and adds it to the bin instead of counting unit weight.
func NewHisto1DWeighted(nbins int, lo, hi float64, finite bool) *Histo1D {
	h := NewHisto1D(nbins, lo, hi, finite)
	h.weighted = true
	return h
}

func (h *Histo1D) Clone() Aggregator {
	return &Histo1D{lo: h.lo, hi: h.hi, nbins: h.nbins, counts: make([]float64, h.nbins), finite: h.finite, weighted: h.weighted}
}

func (h *Histo1D) HasFiniteLimits() bool { return h.finite }

func (h *Histo1D) Fill(values []any) error {
	if len(values) < 1 {
		return fmt.Errorf("agg: Histo1D.Fill wants 1 value, got %d", len(values))
	}
	x, ok := toFloat(values[0])
	if !ok {
		return fmt.Errorf("agg: Histo1D.Fill: value is not numeric")
	}
	weight := 1.0
	if h.weighted {
		if len(values) < 2 {
			return fmt.Errorf("agg: Histo1D.Fill: weighted histogram wants 2 values, got %d", len(values))
		}
		w, ok := toFloat(values[1])
		if !ok {
			return fmt.Errorf("agg: Histo1D.Fill: weight is not numeric")
		}
		weight = w
	}
	if x < h.lo || x >= h.hi {
		if h.finite {
			if x < h.lo {
				h.under += weight
			} else {
				h.over += weight
			}
			return nil
		}
		h.extend(x)
	}
	width := (h.hi - h.lo) / float64(h.nbins)
	idx := int((x - h.lo) / width)
	if idx < 0 {
		idx = 0
	}
	if idx >= h.nbins {
		idx = h.nbins - 1
	}
	h.counts[idx] += weight
	return nil
}

// extend widens [lo, hi) by doubling toward x until it is admitted,
// rebinning existing counts into the new, coarser set of bins.
func (h *Histo1D) extend(x float64) {
	oldLo, oldHi, oldCounts := h.lo, h.hi, h.counts
	lo, hi := oldLo, oldHi
	for x < lo || x >= hi {
		span := hi - lo
		if x < lo {
			lo -= span
		} else {
			hi += span
		}
	}
	h.lo, h.hi = lo, hi
	h.counts = make([]float64, h.nbins)
	oldWidth := (oldHi - oldLo) / float64(h.nbins)
	for i, c := range oldCounts {
		if c == 0 {
			continue
		}
		center := oldLo + (float64(i)+0.5)*oldWidth
		newWidth := (h.hi - h.lo) / float64(h.nbins)
		idx := int((center - h.lo) / newWidth)
		if idx < 0 {
			idx = 0
		}
		if idx >= h.nbins {
			idx = h.nbins - 1
		}
		h.counts[idx] += c
	}
}

func (h *Histo1D) Merge(other Aggregator) error {
	o, ok := other.(*Histo1D)
	if !ok {
		return fmt.Errorf("agg: Histo1D.Merge: incompatible aggregator %T", other)
	}
	// Widen the receiver until it admits o's whole range, then add each of
	// o's bins at its center, the same rebinning extend applies.
	h.extend(o.lo)
	oWidth := (o.hi - o.lo) / float64(o.nbins)
	h.extend(o.hi - oWidth/2)
	width := (h.hi - h.lo) / float64(h.nbins)
	for i, c := range o.counts {
		idx := int((o.lo + (float64(i)+0.5)*oWidth - h.lo) / width)
		h.counts[min(max(idx, 0), h.nbins-1)] += c
	}
	h.under += o.under
	h.over += o.over
	return nil
}

// Counts returns a copy of the bin contents, low-edge-first.
func (h *Histo1D) Counts() []float64 {
	out := make([]float64, len(h.counts))
	copy(out, h.counts)
	return out
}

// Underflow and Overflow return the out-of-range counters (always 0 when
// HasFiniteLimits is false, since such values are rebinned instead).
func (h *Histo1D) Underflow() float64 { return h.under }
func (h *Histo1D) Overflow() float64  { return h.over }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
