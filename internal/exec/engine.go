package exec

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rowgraph/column"
	"rowgraph/internal/gnode"
)

// task is a contiguous, half-open row range assigned to one slot.
type task struct{ lo, hi int }

// Result is the outcome of one Run: every action's merged final value,
// and every filter's slot-summed (pass, total) counters for Report().
type Result struct {
	Actions map[int64]any
	Filters map[int64]Counter
}

// Run drives the event loop of spec.md §4.2 over every action booked so
// far. All actions must belong to the same graph (share one Source).
func Run(actions []*gnode.Action, cfg Config, trace *Trace) (*Result, error) {
	result := &Result{Actions: map[int64]any{}, Filters: map[int64]Counter{}}
	if len(actions) == 0 {
		return result, nil
	}

	src := gnode.Root(actions[0])
	reader := src.Reader
	n := reader.RowCount()

	plans := make([]*actionPlan, len(actions))
	filterIDs := map[int64]struct{}{}
	rangeIDs := map[int64]struct{}{}
	hasRange := false
	for i, a := range actions {
		p, err := buildPlan(reader, a)
		if err != nil {
			return nil, err
		}
		plans[i] = p
		for _, g := range p.gates {
			switch t := g.(type) {
			case *gnode.Filter:
				filterIDs[t.ID()] = struct{}{}
			case *gnode.Range:
				rangeIDs[t.ID()] = struct{}{}
				hasRange = true
			}
		}
	}

	// A Range node anywhere in the graph forces sequential execution
	// (spec.md §4.5, invariant 9): the builder already rejects Range
	// construction while parallel mode is active, so this is a
	// belt-and-suspenders re-check at run time.
	slots := 1
	if !hasRange {
		slots = cfg.Slots
		if slots < 1 {
			slots = 1
		}
	}

	trace.runStart(slots, n)

	fIDs := setKeys(filterIDs)
	rIDs := setKeys(rangeIDs)
	states := make([]*slotState, slots)
	for i := range states {
		states[i] = newSlotState(i, fIDs, rIDs, actions)
	}

	tasks := partition(n, slots, cfg.TaskRows)

	var runErr error
	if slots == 1 {
		runErr = runSequential(reader, plans, states[0], tasks, trace)
	} else {
		runErr = runParallel(reader, plans, states, tasks, trace)
	}
	trace.runDone(runErr)
	if runErr != nil {
		return nil, runErr
	}

	for _, a := range actions {
		perSlot := make([]any, slots)
		for i, st := range states {
			perSlot[i] = st.actions[a.ID()]
		}
		merged, err := a.Op.Merge(perSlot)
		if err != nil {
			return nil, fmt.Errorf("rowgraph: merging action result: %w", err)
		}
		result.Actions[a.ID()] = merged
	}
	for id := range filterIDs {
		var c Counter
		for _, st := range states {
			fc := st.filters[id]
			c.Pass += fc.Pass
			c.Total += fc.Total
		}
		result.Filters[id] = c
	}
	return result, nil
}

func setKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func partition(n, slots, taskRows int) []task {
	if n <= 0 {
		return nil
	}
	if taskRows <= 0 {
		taskRows = (n + slots - 1) / slots
		if taskRows < 1 {
			taskRows = 1
		}
	}
	tasks := make([]task, 0, (n+taskRows-1)/taskRows)
	for lo := 0; lo < n; lo += taskRows {
		hi := lo + taskRows
		if hi > n {
			hi = n
		}
		tasks = append(tasks, task{lo: lo, hi: hi})
	}
	return tasks
}

func runSequential(reader column.Reader, plans []*actionPlan, st *slotState, tasks []task, trace *Trace) error {
	for _, t := range tasks {
		trace.taskStart(st.id, t.lo, t.hi)
		stop, err := runTask(reader, plans, st, t)
		trace.taskDone(st.id, t.lo, t.hi)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

func runParallel(reader column.Reader, plans []*actionPlan, states []*slotState, tasks []task, trace *Trace) error {
	g, ctx := errgroup.WithContext(context.Background())
	ch := make(chan task)

	for _, st := range states {
		st := st
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case t, ok := <-ch:
					if !ok {
						return nil
					}
					trace.taskStart(st.id, t.lo, t.hi)
					_, err := runTask(reader, plans, st, t)
					trace.taskDone(st.id, t.lo, t.hi)
					if err != nil {
						return err
					}
				}
			}
		})
	}

	g.Go(func() error {
		defer close(ch)
		for _, t := range tasks {
			select {
			case <-ctx.Done():
				return nil
			case ch <- t:
			}
		}
		return nil
	})

	return g.Wait()
}

// runTask processes every row in t against every action plan, honoring
// per-row short-circuit and memoization. It always finishes the task, and
// reports stop=true if a Range on some plan's gate chain reached its
// configured stop during it, so no further task is dispatched
// (sequential mode only — parallel runs never contain a Range).
func runTask(reader column.Reader, plans []*actionPlan, st *slotState, t task) (stop bool, err error) {
	for row := t.lo; row < t.hi; row++ {
		st.cache.Reset()
		st.rangeTerminal = false
		for _, p := range plans {
			ok, err := evalGates(reader, st, p, row)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			values, err := p.resolveAll(reader, st.cache, st.id, row, p.action.Columns)
			if err != nil {
				return false, err
			}
			if err := p.action.Op.Consume(st.actions[p.action.ID()], values); err != nil {
				return false, fmt.Errorf("rowgraph: action consume: %w", err)
			}
		}
		if st.rangeTerminal {
			stop = true
		}
	}
	return stop, nil
}

// evalGates walks one action plan's Filter/Range chain for the current
// row, memoizing each gate's verdict in the slot's row cache so that
// other actions sharing the same ancestor evaluate it at most once.
func evalGates(reader column.Reader, st *slotState, p *actionPlan, row int) (bool, error) {
	for _, g := range p.gates {
		switch node := g.(type) {
		case *gnode.Filter:
			verdict, cached := st.cache.Verdict(node.ID())
			if !cached {
				args, err := p.resolveAll(reader, st.cache, st.id, row, node.Columns)
				if err != nil {
					return false, err
				}
				v, err := node.Predicate(args)
				if err != nil {
					return false, fmt.Errorf("rowgraph: filter %q: %w", node.Name, err)
				}
				verdict = v
				st.cache.SetVerdict(node.ID(), verdict)
				fc := st.filters[node.ID()]
				fc.Total++
				if verdict {
					fc.Pass++
				}
			}
			if !verdict {
				return false, nil
			}
		case *gnode.Range:
			admitted, cached := st.cache.Verdict(node.ID())
			if !cached {
				rc := st.ranges[node.ID()]
				admitted = node.Admits(int(rc.Seen))
				rc.Seen++
				if admitted {
					rc.Emitted++
				}
				st.cache.SetVerdict(node.ID(), admitted)
				if node.Terminal(int(rc.Seen)) {
					st.rangeTerminal = true
				}
			}
			if !admitted {
				return false, nil
			}
		}
	}
	return true, nil
}
