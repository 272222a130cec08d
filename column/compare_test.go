package column

import "testing"

func TestCompareNumeric(t *testing.T) {
	cases := []struct {
		a, b any
		want int
	}{
		{1, 2, -1},
		{2, 1, 1},
		{int64(5), int64(5), 0},
		{1.5, 1.5, 0},
		{float32(2), 3, -1},
		{int64(10), 3.5, 1},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareStringFallback(t *testing.T) {
	if Compare("alice", "bob") != -1 {
		t.Errorf("expected alice < bob")
	}
	if Compare("bob", "alice") != 1 {
		t.Errorf("expected bob > alice")
	}
	if Compare("same", "same") != 0 {
		t.Errorf("expected equal strings to compare 0")
	}
}

func TestCompareMixedFallsBackToString(t *testing.T) {
	// Neither side numeric: falls back to string comparison rather than
	// panicking or treating one as zero.
	if Compare(true, false) == 0 {
		t.Errorf("expected bool values to compare unequal via string fallback")
	}
	// One side numeric, the other not: compared as strings, so "10" < "9".
	if Compare(10, "9") != -1 {
		t.Errorf("expected 10 vs \"9\" to compare as strings (-1)")
	}
}
