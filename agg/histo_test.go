package agg

import "testing"

func TestHisto1DFiniteRoutesOutOfRangeToOverflow(t *testing.T) {
	h := NewHisto1D(10, 0, 10, true)
	for _, x := range []float64{-1, 5, 15} {
		if err := h.Fill([]any{x}); err != nil {
			t.Fatalf("Fill(%v): %v", x, err)
		}
	}
	if h.Underflow() != 1 {
		t.Errorf("underflow = %v, want 1", h.Underflow())
	}
	if h.Overflow() != 1 {
		t.Errorf("overflow = %v, want 1", h.Overflow())
	}
	counts := h.Counts()
	var total float64
	for _, c := range counts {
		total += c
	}
	if total != 1 {
		t.Errorf("in-range total = %v, want 1", total)
	}
}

func TestHisto1DAutoExtendAdmitsOutOfRange(t *testing.T) {
	h := NewHisto1D(10, 0, 10, false)
	if err := h.Fill([]any{5.0}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := h.Fill([]any{50.0}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if h.Overflow() != 0 {
		t.Errorf("auto-extending histogram must never use overflow, got %v", h.Overflow())
	}
	var total float64
	for _, c := range h.Counts() {
		total += c
	}
	if total != 2 {
		t.Errorf("total counts = %v, want 2", total)
	}
}

func TestHisto1DWeightedScalesBinByWeight(t *testing.T) {
	h := NewHisto1DWeighted(4, 0, 4, true)
	if err := h.Fill([]any{1.0, 2.0}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := h.Fill([]any{1.0, 3.0}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	counts := h.Counts()
	if counts[1] != 5 {
		t.Errorf("bin[1] = %v, want 5 (weights 2+3)", counts[1])
	}
}

func TestHisto2DWeightedScalesBinByWeight(t *testing.T) {
	h := NewHisto2DWeighted(2, 0, 2, 2, 0, 2)
	if err := h.Fill([]any{0.5, 0.5, 4.0}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	counts := h.Counts()
	if counts[0] != 4 {
		t.Errorf("bin[0] = %v, want 4", counts[0])
	}
}

func TestHisto1DMerge(t *testing.T) {
	a := NewHisto1D(4, 0, 4, true)
	b := NewHisto1D(4, 0, 4, true)
	for _, x := range []float64{0, 1, 1, 2} {
		a.Fill([]any{x})
	}
	for _, x := range []float64{2, 3, 3, 3} {
		b.Fill([]any{x})
	}
	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []float64{1, 2, 2, 3}
	got := a.Counts()
	for i, w := range want {
		if got[i] != w {
			t.Errorf("bin[%d] = %v, want %v", i, got[i], w)
		}
	}
}

func TestMomentsMergeMatchesSinglePass(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	single := NewMoments()
	for _, x := range xs {
		single.Fill([]any{x})
	}

	left, right := NewMoments(), NewMoments()
	for i, x := range xs {
		if i < 4 {
			left.Fill([]any{x})
		} else {
			right.Fill([]any{x})
		}
	}
	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if left.Count() != single.Count() {
		t.Errorf("count = %d, want %d", left.Count(), single.Count())
	}
	if diff := left.Mean() - single.Mean(); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("mean = %v, want %v", left.Mean(), single.Mean())
	}
	if diff := left.Variance() - single.Variance(); diff > 1e-9 || diff < -1e-9 {
		t.Errorf("variance = %v, want %v", left.Variance(), single.Variance())
	}
}
