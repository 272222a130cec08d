// Package exec implements the scheduler and per-row execution engine of
// spec.md §4.2/§5: task partitioning, slot-local state, the row loop,
// action dispatch, and merge-to-final. Grounded on the teacher's
// pool/pool.go (a fixed free-list of reusable workers) generalized from
// pooled database connections to pooled execution slots, driven with
// golang.org/x/sync/errgroup for fan-out/fan-in with first-error-wins
// semantics.
package exec

// Config mirrors the caller-resolved subset of rowgraph.Options the
// scheduler needs. The root package computes Slots from Options before
// calling Run; Run itself forces Slots to 1 whenever any action's
// ancestor chain contains a Range node (spec.md §4.5).
type Config struct {
	Slots    int
	TaskRows int
}

// Trace is an optional set of no-op-by-default hooks a caller can wire to
// its own logger or metrics without the engine importing either
// (spec.md/SPEC_FULL.md §7.1 ambient-stack logging boundary).
type Trace struct {
	RunStart  func(slots, rows int)
	RunDone   func(err error)
	TaskStart func(slot, lo, hi int)
	TaskDone  func(slot, lo, hi int)
}

func (t *Trace) runStart(slots, rows int) {
	if t != nil && t.RunStart != nil {
		t.RunStart(slots, rows)
	}
}

func (t *Trace) runDone(err error) {
	if t != nil && t.RunDone != nil {
		t.RunDone(err)
	}
}

func (t *Trace) taskStart(slot, lo, hi int) {
	if t != nil && t.TaskStart != nil {
		t.TaskStart(slot, lo, hi)
	}
}

func (t *Trace) taskDone(slot, lo, hi int) {
	if t != nil && t.TaskDone != nil {
		t.TaskDone(slot, lo, hi)
	}
}

// Counter is a Filter's per-slot (pass, total) pair.
type Counter struct {
	Pass  int64
	Total int64
}

// RangeCounter is a Range's per-slot (seen, emitted) pair.
type RangeCounter struct {
	Seen    int64
	Emitted int64
}
