package rowgraph

import (
	"fmt"
	"sync"

	"rowgraph/column"
	"rowgraph/internal/exec"
	"rowgraph/internal/gnode"
)

type runState int

const (
	stateIdle runState = iota
	stateRunning
)

// Engine owns the Source, the graph built against it, and the registry
// of pending actions (spec.md §4.2). Its state is guarded by a mutex, but
// only one run executes at a time: a LazyResult whose value is not yet
// stored, or a Report, requested while another goroutine's run is in
// progress fails with ErrUnsupported instead of waiting for that run. The
// graph itself must not be extended once a run has begun (spec.md §3
// invariant).
type Engine struct {
	mu       sync.Mutex
	state    runState
	source   *gnode.Source
	opts     Options
	trace    *exec.Trace
	released bool

	pending  []*gnode.Action
	computed map[int64]any
	filters  map[int64]exec.Counter
	named    []*gnode.Filter // named filters, declaration order, for Report
}

// New creates an Engine rooted at reader, ready for graph construction.
func New(reader column.Reader, opts Options) *Engine {
	return &Engine{
		source:   gnode.NewSource(reader),
		opts:     opts,
		computed: make(map[int64]any),
		filters:  make(map[int64]exec.Counter),
	}
}

// SetTrace wires t as the engine's instrumentation hook (spec.md
// §7.1's ambient-stack boundary: the core never imports a logger or a
// metrics client directly, only this no-op-by-default hook). Must be
// called before the first run.
func (e *Engine) SetTrace(t *exec.Trace) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trace = t
}

// Source returns a Builder rooted at the Engine's Source node — the
// starting point for every graph-building call.
func (e *Engine) Source() *Builder {
	return &Builder{engine: e, node: e.source}
}

// Release marks the engine gone: any LazyResult dereferenced afterwards
// fails with ErrEngineGone (spec.md §4.8).
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
}

// bookFilter registers a named Filter for Report(), rejecting a name that
// collides with another named Filter already on the path from the Source
// to f (spec.md §4.3: names must be unique along a path, not globally —
// two independent branches may reuse the same name).
func (e *Engine) bookFilter(f *gnode.Filter) error {
	if f.Name == "" {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	onPath := map[int64]bool{}
	for _, n := range gnode.Ancestors(f) {
		onPath[n.ID()] = true
	}
	for _, existing := range e.named {
		if existing.Name == f.Name && onPath[existing.ID()] {
			return fmt.Errorf("%w: %q already used on this path", ErrDuplicateFilter, f.Name)
		}
	}
	e.named = append(e.named, f)
	return nil
}

// book registers an action as pending. If instant is true, run() is
// invoked immediately (and drains every other currently-pending lazy
// action in the same pass, per the Open Question resolution in
// DESIGN.md).
func (e *Engine) book(a *gnode.Action) error {
	e.mu.Lock()
	e.pending = append(e.pending, a)
	instant := a.Instant
	e.mu.Unlock()
	if instant {
		return e.run()
	}
	return nil
}

// materialize returns the action's final value, running the engine if
// it has not already run since the action was booked.
func (e *Engine) materialize(actionID int64) (any, error) {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return nil, ErrEngineGone
	}
	if v, ok := e.computed[actionID]; ok {
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()
	if err := e.run(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	v, ok := e.computed[actionID]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("rowgraph: action result missing after run")
	}
	return v, nil
}

// run executes one pass over the Source satisfying every currently
// pending action (spec.md §4.2). Errors abort the run, leaving every
// pending action unresolved and the engine back in Idle so a fixed graph
// may be re-run.
func (e *Engine) run() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return ErrEngineGone
	}
	if e.state == stateRunning {
		e.mu.Unlock()
		return fmt.Errorf("rowgraph: %w: run already in progress", ErrUnsupported)
	}
	actions := e.pending
	e.pending = nil
	e.state = stateRunning
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state = stateIdle
		e.mu.Unlock()
	}()

	if len(actions) == 0 {
		return nil
	}

	cfg := exec.Config{Slots: e.opts.resolveSlots(), TaskRows: e.opts.TaskRows}
	result, err := exec.Run(actions, cfg, e.trace)
	if err != nil {
		// Leave everything unresolved; the caller may retry against the
		// same (unchanged) graph.
		e.mu.Lock()
		e.pending = append(e.pending, actions...)
		e.mu.Unlock()
		return fmt.Errorf("rowgraph: run failed: %w", err)
	}

	e.mu.Lock()
	for id, v := range result.Actions {
		e.computed[id] = v
	}
	for id, c := range result.Filters {
		e.filters[id] = c
	}
	e.mu.Unlock()
	return nil
}

// Report triggers the event loop if it hasn't run yet, then returns the
// pass/total counters for every named Filter on the path from the Source
// to node, in declaration order, summed across slots (spec.md §4.1
// Report(), §4.3).
func (e *Engine) Report(node gnode.Node) ([]FilterReport, error) {
	if err := e.run(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	onPath := map[int64]bool{}
	for _, n := range gnode.Ancestors(node) {
		onPath[n.ID()] = true
	}
	var out []FilterReport
	for _, f := range e.named {
		if !onPath[f.ID()] {
			continue
		}
		c := e.filters[f.ID()]
		out = append(out, FilterReport{Name: f.Name, Pass: c.Pass, Total: c.Total})
	}
	return out, nil
}

// FilterReport is one named Filter's summed pass/total counters.
type FilterReport struct {
	Name  string
	Pass  int64
	Total int64
}

// Ratio returns Pass/Total, or 0 if Total is 0.
func (r FilterReport) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Pass) / float64(r.Total)
}

func (r FilterReport) String() string {
	return fmt.Sprintf("%s: %d/%d (%.4f)", r.Name, r.Pass, r.Total, r.Ratio())
}
