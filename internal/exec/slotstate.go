package exec

import (
	"rowgraph/internal/gnode"
	"rowgraph/internal/rowcache"
)

// slotState is the mutable state owned exclusively by one slot for the
// lifetime of a run (spec.md §5): a row cache cleared between rows, plus
// long-lived per-filter, per-range and per-action accumulators that
// persist across every task the slot processes. No locks guard any of
// this — only the worker holding the slot id ever touches it.
type slotState struct {
	id            int
	cache         *rowcache.Cache
	filters       map[int64]*Counter
	ranges        map[int64]*RangeCounter
	actions       map[int64]any
	rangeTerminal bool
}

func newSlotState(id int, filterIDs, rangeIDs []int64, actions []*gnode.Action) *slotState {
	s := &slotState{
		id:      id,
		cache:   rowcache.New(),
		filters: make(map[int64]*Counter, len(filterIDs)),
		ranges:  make(map[int64]*RangeCounter, len(rangeIDs)),
		actions: make(map[int64]any, len(actions)),
	}
	for _, id := range filterIDs {
		s.filters[id] = &Counter{}
	}
	for _, id := range rangeIDs {
		s.ranges[id] = &RangeCounter{}
	}
	for _, a := range actions {
		s.actions[a.ID()] = a.Op.NewSlotState(id)
	}
	return s
}
