package rowgraph

import (
	"testing"

	"rowgraph/column"
)

func memSource(xs []int64) *column.MemSource {
	src := column.NewMemSource(len(xs))
	src.AddInt64Column("x", xs)
	return src
}

func TestCountAndFilter(t *testing.T) {
	src := memSource([]int64{1, 2, 3, 4, 5, 6})
	e := New(src, DefaultOptions())

	b, err := e.Source().Filter([]string{"x"}, Predicate1(func(x int64) bool { return x%2 == 0 }), "even")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	n, err := b.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	got, err := n.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got != 3 {
		t.Errorf("count = %d, want 3", got)
	}

	rep, err := b.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(rep) != 1 || rep[0].Pass != 3 || rep[0].Total != 6 {
		t.Errorf("report = %+v, want one entry {Pass:3 Total:6}", rep)
	}
}

func TestDefineRejectsDuplicateName(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())
	_, err := e.Source().Define("x", []string{"x"}, column.KindInt64, Producer1(func(x int64) int64 { return x }))
	if err == nil {
		t.Fatalf("expected an error defining a column named like an existing one")
	}
}

func TestFilterRejectsUnknownColumn(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())
	_, err := e.Source().Filter([]string{"missing"}, Predicate1(func(x int64) bool { return true }), "")
	if err == nil {
		t.Fatalf("expected an error filtering on an unknown column")
	}
}

func TestRangeRejectedUnderParallel(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	opts := DefaultOptions()
	opts.Parallel = true
	e := New(src, opts)
	_, err := e.Source().Range(0, 2, 1)
	if err == nil {
		t.Fatalf("expected Range to be rejected while parallel mode is active")
	}
}

func TestDerivedColumnMemoizedAndVisible(t *testing.T) {
	src := memSource([]int64{1, 2, 3, 4})
	e := New(src, DefaultOptions())

	calls := 0
	withDouble, err := e.Source().Define("double", []string{"x"}, column.KindInt64, Producer1(func(x int64) int64 {
		calls++
		return x * 2
	}))
	if err != nil {
		t.Fatalf("Define: %v", err)
	}

	taken, err := Take[int64](withDouble, "double")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	got, err := taken.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := []int64{2, 4, 6, 8}
	if len(got) != len(want) {
		t.Fatalf("took %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("took[%d] = %d, want %d", i, got[i], v)
		}
	}
	if calls != 4 {
		t.Errorf("derived column producer called %d times, want 4 (once per row)", calls)
	}
}

func TestReduceSequentialMatchesFold(t *testing.T) {
	src := memSource([]int64{1, 2, 3, 4, 5})
	e := New(src, DefaultOptions())

	sum, err := Reduce[int64](e.Source(), "x", 100, func(acc, x int64) int64 { return acc + x })
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	got, err := sum.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	// fold(fn, 100, [1..5]) = 100 + 1 + 2 + 3 + 4 + 5 = 115; with exactly
	// one slot the merge must not re-apply init (DESIGN.md's decision).
	if got != 115 {
		t.Errorf("reduce = %d, want 115", got)
	}
}

func TestMinMaxMean(t *testing.T) {
	src := memSource([]int64{4, 1, 7, 3})
	e := New(src, DefaultOptions())
	b := e.Source()

	min, err := b.Min("x")
	if err != nil {
		t.Fatalf("Min: %v", err)
	}
	max, err := b.Max("x")
	if err != nil {
		t.Fatalf("Max: %v", err)
	}
	mean, err := b.Mean("x")
	if err != nil {
		t.Fatalf("Mean: %v", err)
	}

	minV, err := min.Value()
	if err != nil {
		t.Fatalf("min.Value: %v", err)
	}
	maxV, err := max.Value()
	if err != nil {
		t.Fatalf("max.Value: %v", err)
	}
	meanV, err := mean.Value()
	if err != nil {
		t.Fatalf("mean.Value: %v", err)
	}

	if minV != 1 {
		t.Errorf("min = %v, want 1", minV)
	}
	if maxV != 7 {
		t.Errorf("max = %v, want 7", maxV)
	}
	if meanV != 3.75 {
		t.Errorf("mean = %v, want 3.75", meanV)
	}
}

func TestForeachIsInstant(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())

	var seen []int64
	err := e.Source().Foreach([]string{"x"}, func(args []any) error {
		seen = append(seen, args[0].(int64))
		return nil
	})
	if err != nil {
		t.Fatalf("Foreach: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("seen = %v, want 3 rows", seen)
	}
}

func TestFilterRejectsDuplicateNameOnSamePath(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())

	b, err := e.Source().Filter([]string{"x"}, Predicate1(func(x int64) bool { return true }), "named")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if _, err := b.Filter([]string{"x"}, Predicate1(func(x int64) bool { return true }), "named"); err == nil {
		t.Fatalf("expected an error reusing a Filter name already on this path")
	}
}

func TestFilterAllowsDuplicateNameOnIndependentBranches(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())

	if _, err := e.Source().Filter([]string{"x"}, Predicate1(func(x int64) bool { return true }), "named"); err != nil {
		t.Fatalf("Filter (branch 1): %v", err)
	}
	if _, err := e.Source().Filter([]string{"x"}, Predicate1(func(x int64) bool { return false }), "named"); err != nil {
		t.Fatalf("Filter (branch 2): reusing a name on an independent branch should be allowed, got %v", err)
	}
}

func TestMinUsesDefaultColumnWhenOmitted(t *testing.T) {
	src := memSource([]int64{4, 1, 7, 3})
	e := New(src, DefaultOptions())

	min, err := e.Source().Min("")
	if err != nil {
		t.Fatalf("Min(\"\"): %v", err)
	}
	got, err := min.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got != 1 {
		t.Errorf("min = %v, want 1 (completed from the Source's default column list)", got)
	}
}

func TestMinFailsWithNoDefaultColumns(t *testing.T) {
	src := column.NewMemSource(0)
	e := New(src, DefaultOptions())
	if _, err := e.Source().Min(""); err == nil {
		t.Fatalf("expected ErrMissingColumnSpec when the Source has no default columns to complete from")
	}
}

func TestForeachUsesFullDefaultListWhenColumnsOmitted(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())

	var seen [][]any
	err := e.Source().Foreach(nil, func(args []any) error {
		seen = append(seen, args)
		return nil
	})
	if err != nil {
		t.Fatalf("Foreach: %v", err)
	}
	if len(seen) != 3 || len(seen[0]) != 1 {
		t.Fatalf("seen = %v, want 3 rows each carrying the Source's one default column", seen)
	}
}

func TestEngineGoneAfterRelease(t *testing.T) {
	src := memSource([]int64{1, 2, 3})
	e := New(src, DefaultOptions())
	n, err := e.Source().Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	e.Release()
	if _, err := n.Value(); err == nil {
		t.Fatalf("expected ErrEngineGone after Release")
	}
}
