package rowgraph

import "runtime"

// Options configures how an Engine partitions and schedules its run.
type Options struct {
	// Parallel selects multi-slot execution. When false (the default),
	// the engine always runs with a single slot and Range nodes are
	// permitted.
	Parallel bool

	// Slots caps the number of concurrently active slots when Parallel
	// is true. A value <= 0 falls back to runtime.NumCPU().
	Slots int

	// TaskRows is a hint for the row-count granularity of each task. A
	// value <= 0 lets the engine pick (coarse tasks, amortizing per-task
	// setup, per spec.md §4.2 step 2).
	TaskRows int
}

// DefaultOptions returns sequential execution with engine-chosen task
// granularity, matching the teacher's "constructor returns sane defaults"
// convention.
func DefaultOptions() Options {
	return Options{
		Parallel: false,
		Slots:    1,
		TaskRows: 0,
	}
}

func (o Options) resolveSlots() int {
	if !o.Parallel {
		return 1
	}
	if o.Slots > 0 {
		return o.Slots
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
