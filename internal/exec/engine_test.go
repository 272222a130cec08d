package exec

import (
	"testing"

	"rowgraph/column"
	"rowgraph/internal/gnode"
)

// countOp is a minimal gnode.Op used only to exercise the scheduler —
// the root rowgraph package's richer ops live one level up and can't be
// imported here without a cycle.
type countOp struct{}

func (countOp) NewSlotState(int) any { v := int64(0); return &v }
func (countOp) Consume(state any, _ []any) error {
	*(state.(*int64))++
	return nil
}
func (countOp) Merge(states []any) (any, error) {
	var total int64
	for _, s := range states {
		total += *(s.(*int64))
	}
	return total, nil
}

func newMemSource(n int, xs []int64) *column.MemSource {
	src := column.NewMemSource(n)
	src.AddInt64Column("x", xs)
	return src
}

func TestRunSequentialCount(t *testing.T) {
	src := newMemSource(5, []int64{10, 20, 30, 40, 50})
	source := gnode.NewSource(src)
	action := gnode.NewAction(source, nil, countOp{}, false)

	result, err := Run([]*gnode.Action{action}, Config{Slots: 1}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.Actions[action.ID()]; got != int64(5) {
		t.Errorf("count = %v, want 5", got)
	}
}

func TestRunFilterShortCircuitsAndMemoizes(t *testing.T) {
	src := newMemSource(6, []int64{1, 2, 3, 4, 5, 6})
	source := gnode.NewSource(src)

	calls := 0
	pred := func(args []any) (bool, error) {
		calls++
		return args[0].(int64)%2 == 0, nil
	}
	f := gnode.NewFilter(source, "even", []string{"x"}, pred)
	action := gnode.NewAction(f, nil, countOp{}, false)

	result, err := Run([]*gnode.Action{action}, Config{Slots: 1}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.Actions[action.ID()]; got != int64(3) {
		t.Errorf("count = %v, want 3", got)
	}
	if calls != 6 {
		t.Errorf("filter evaluated %d times, want 6 (once per row)", calls)
	}
	fc := result.Filters[f.ID()]
	if fc.Total != 6 || fc.Pass != 3 {
		t.Errorf("filter counters = %+v, want {Pass:3 Total:6}", fc)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	n := 1000
	xs := make([]int64, n)
	for i := range xs {
		xs[i] = int64(i)
	}

	run := func(slots int) int64 {
		src := newMemSource(n, xs)
		source := gnode.NewSource(src)
		pred := func(args []any) (bool, error) { return args[0].(int64)%3 == 0, nil }
		f := gnode.NewFilter(source, "div3", []string{"x"}, pred)
		action := gnode.NewAction(f, nil, countOp{}, false)
		result, err := Run([]*gnode.Action{action}, Config{Slots: slots}, nil)
		if err != nil {
			t.Fatalf("Run(slots=%d): %v", slots, err)
		}
		return result.Actions[action.ID()].(int64)
	}

	seq := run(1)
	par := run(4)
	if seq != par {
		t.Errorf("sequential count %d != parallel count %d", seq, par)
	}
}

func TestRangeForcesSingleSlotAndHalts(t *testing.T) {
	n := 20
	xs := make([]int64, n)
	for i := range xs {
		xs[i] = int64(i)
	}
	src := newMemSource(n, xs)
	source := gnode.NewSource(src)
	r := gnode.NewRange(source, 2, 12, 3)
	action := gnode.NewAction(r, []string{"x"}, &takeOp{}, false)

	result, err := Run([]*gnode.Action{action}, Config{Slots: 8}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := result.Actions[action.ID()].([]int64)
	want := []int64{2, 5, 8, 11}
	if len(got) != len(want) {
		t.Fatalf("took %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("took[%d] = %d, want %d", i, got[i], v)
		}
	}
}

// takeOp is a minimal single-column collector, local to this test file.
type takeOp struct{}

func (*takeOp) NewSlotState(int) any { v := make([]int64, 0); return &v }
func (*takeOp) Consume(state any, values []any) error {
	s := state.(*[]int64)
	*s = append(*s, values[0].(int64))
	return nil
}
func (*takeOp) Merge(states []any) (any, error) {
	out := make([]int64, 0)
	for _, s := range states {
		out = append(out, *(s.(*[]int64))...)
	}
	return out, nil
}
