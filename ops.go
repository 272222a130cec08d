package rowgraph

import (
	"fmt"

	"rowgraph/agg"
	"rowgraph/column"
	"rowgraph/sink"
)

// This file implements every concrete gnode.Op the Builder's action
// methods construct. Each follows the same three-method shape spec.md
// §5 mandates: a fresh per-slot accumulator, a per-row fold, and an
// ascending-slot-id merge to the final value.

func toFloat64(v any) (float64, bool) {
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

// countOp implements Count(): how many rows reached the action.
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

// reduceOp implements Reduce(fn, column, init): a per-slot left fold
// seeded with init, merged by folding the slots' own partials together
// starting from slot 0 — see DESIGN.md's "Reduce merge seeding" decision
// for why the merge does not re-seed with init.
type reduceOp[T any] struct {
	init T
	fn   func(T, T) T
}

func newReduceOp[T any](init T, fn func(T, T) T) *reduceOp[T] {
	return &reduceOp[T]{init: init, fn: fn}
}

func (r *reduceOp[T]) NewSlotState(int) any {
	v := r.init
	return &v
}

func (r *reduceOp[T]) Consume(state any, values []any) error {
	acc := state.(*T)
	v, ok := values[0].(T)
	if !ok {
		return fmt.Errorf("%w: reduce argument is not %T", ErrTypeMismatch, *acc)
	}
	*acc = r.fn(*acc, v)
	return nil
}

func (r *reduceOp[T]) Merge(states []any) (any, error) {
	if len(states) == 0 {
		return r.init, nil
	}
	acc := *(states[0].(*T))
	for _, s := range states[1:] {
		acc = r.fn(acc, *(s.(*T)))
	}
	return acc, nil
}

// takeOp implements Take[T](): collects every admitted row's column
// value, concatenated in ascending slot-id order at merge time (the
// Open Question decision recorded in DESIGN.md — not source-row order
// outside sequential mode).
type takeOp[T any] struct{}

func (takeOp[T]) NewSlotState(int) any {
	v := make([]T, 0)
	return &v
}

func (takeOp[T]) Consume(state any, values []any) error {
	s := state.(*[]T)
	v, ok := values[0].(T)
	if !ok {
		var zero T
		return fmt.Errorf("%w: take argument is not %T", ErrTypeMismatch, zero)
	}
	*s = append(*s, v)
	return nil
}

func (takeOp[T]) Merge(states []any) (any, error) {
	out := make([]T, 0)
	for _, s := range states {
		out = append(out, *(s.(*[]T))...)
	}
	return out, nil
}

// minMaxOp implements Min()/Max(): the numeric extremum of one column.
type minMaxOp struct {
	max bool
}

type minMaxState struct {
	val   float64
	valid bool
}

func (o *minMaxOp) NewSlotState(int) any { return &minMaxState{} }

func (o *minMaxOp) Consume(state any, values []any) error {
	st := state.(*minMaxState)
	f, ok := toFloat64(values[0])
	if !ok {
		return fmt.Errorf("%w: min/max argument is not numeric", ErrTypeMismatch)
	}
	if !st.valid || (o.max && f > st.val) || (!o.max && f < st.val) {
		st.val = f
		st.valid = true
	}
	return nil
}

func (o *minMaxOp) Merge(states []any) (any, error) {
	var result minMaxState
	for _, s := range states {
		st := s.(*minMaxState)
		if !st.valid {
			continue
		}
		if !result.valid || (o.max && st.val > result.val) || (!o.max && st.val < result.val) {
			result = *st
		}
	}
	return result.val, nil
}

// meanOp implements Mean(): the numeric average of one column across
// every row that reached the action.
type meanOp struct{}

type meanState struct {
	sum float64
	n   int64
}

func (meanOp) NewSlotState(int) any { return &meanState{} }

func (meanOp) Consume(state any, values []any) error {
	st := state.(*meanState)
	f, ok := toFloat64(values[0])
	if !ok {
		return fmt.Errorf("%w: mean argument is not numeric", ErrTypeMismatch)
	}
	st.sum += f
	st.n++
	return nil
}

func (meanOp) Merge(states []any) (any, error) {
	var sum float64
	var n int64
	for _, s := range states {
		st := s.(*meanState)
		sum += st.sum
		n += st.n
	}
	if n == 0 {
		return 0.0, nil
	}
	return sum / float64(n), nil
}

// foreachOp implements the instant Foreach(): fn runs once per admitted
// row, for its side effects, and the action carries no merged value.
type foreachOp struct {
	fn func([]any) error
}

func (o *foreachOp) NewSlotState(int) any { return nil }
func (o *foreachOp) Consume(_ any, values []any) error {
	return o.fn(values)
}
func (o *foreachOp) Merge([]any) (any, error) { return struct{}{}, nil }

// foreachSlotOp implements the instant ForeachSlot(): fn additionally
// receives the id of the slot that processed the row, so callers can
// keep their own slot-indexed side state.
type foreachSlotOp struct {
	fn func(slot int, args []any) error
}

func (o *foreachSlotOp) NewSlotState(slot int) any { return slot }
func (o *foreachSlotOp) Consume(state any, values []any) error {
	return o.fn(state.(int), values)
}
func (o *foreachSlotOp) Merge([]any) (any, error) { return struct{}{}, nil }

// fillOp implements Fill(aggregator, columns): each row's resolved
// column values are folded into a per-slot clone of an external
// agg.Aggregator (spec.md §6), merged pairwise at the end.
type fillOp struct {
	proto agg.Aggregator
}

func (o *fillOp) NewSlotState(int) any { return o.proto.Clone() }
func (o *fillOp) Consume(state any, values []any) error {
	if err := state.(agg.Aggregator).Fill(values); err != nil {
		return fmt.Errorf("%w: %s", ErrAggregatorBinding, err)
	}
	return nil
}
func (o *fillOp) Merge(states []any) (any, error) {
	if len(states) == 0 {
		return o.proto.Clone(), nil
	}
	result := states[0].(agg.Aggregator)
	for _, s := range states[1:] {
		if err := result.Merge(s.(agg.Aggregator)); err != nil {
			return nil, fmt.Errorf("rowgraph: merging aggregator: %w", err)
		}
	}
	return result, nil
}

// snapshotOp implements Snapshot(): each row's resolved column values
// are appended to an external sink.ColumnarSink (spec.md §6). Consume
// calls from all slots are serialized by the op's own mutex, so the
// sink's BindAddresses and AppendRow never run concurrently.
type snapshotOp struct {
	s       sink.ColumnarSink
	columns []string
	bound   map[int]bool
	mu      chan struct{} // 1-buffered mutex; AppendRow/BindAddresses may not be goroutine-safe
}

func newSnapshotOp(s sink.ColumnarSink, columns []string, kinds map[string]column.Kind) (*snapshotOp, error) {
	if err := s.Create(columns, kinds); err != nil {
		return nil, fmt.Errorf("rowgraph: snapshot: %w", err)
	}
	op := &snapshotOp{s: s, columns: columns, bound: map[int]bool{}, mu: make(chan struct{}, 1)}
	op.mu <- struct{}{}
	return op, nil
}

func (o *snapshotOp) NewSlotState(slot int) any { return slot }

func (o *snapshotOp) Consume(state any, values []any) error {
	slot := state.(int)
	<-o.mu
	defer func() { o.mu <- struct{}{} }()
	if !o.bound[slot] {
		if err := o.s.BindAddresses(slot, o.columns); err != nil {
			return fmt.Errorf("rowgraph: snapshot: binding slot %d: %w", slot, err)
		}
		o.bound[slot] = true
	}
	if err := o.s.AppendRow(slot, values); err != nil {
		return fmt.Errorf("rowgraph: snapshot: appending row: %w", err)
	}
	return nil
}

func (o *snapshotOp) Merge([]any) (any, error) {
	if err := o.s.FlushAndClose(); err != nil {
		return nil, fmt.Errorf("rowgraph: snapshot: flush: %w", err)
	}
	return struct{}{}, nil
}
