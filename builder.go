package rowgraph

import (
	"fmt"

	"rowgraph/agg"
	"rowgraph/column"
	"rowgraph/expr"
	"rowgraph/internal/gnode"
	"rowgraph/sink"
)

// Builder is a cursor on the graph: every method either appends a
// Filter/DerivedColumn/Range node and returns a new Builder scoped past
// it, or appends an Action node and returns a LazyResult (spec.md §3/§4.1);
// the instant actions Foreach, ForeachSlot and Snapshot return only an error.
// A Builder is immutable; each call produces a new one, so a single
// upstream Builder can be reused to fork multiple downstream branches.
type Builder struct {
	engine *Engine
	node   gnode.Node
}

func (b *Builder) visible() map[string]column.Kind { return b.node.VisibleColumns() }

func (b *Builder) checkColumns(columns []string) error {
	vis := b.visible()
	for _, c := range columns {
		if _, ok := vis[c]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// resolveColumns substitutes the Source's whole default column list when
// columns is empty, and fails with ErrMissingColumnSpec when the Source
// declares no default columns. A non-empty list is returned unchanged: a
// list shorter than the callable's arity is not completed from the default
// list. Filter, Define, Foreach, ForeachSlot, Fill and Snapshot route
// through this; the single-column and positional methods use resolveColumn.
func (b *Builder) resolveColumns(columns []string) ([]string, error) {
	if len(columns) > 0 {
		return columns, nil
	}
	defaults := gnode.Root(b.node).Default
	if len(defaults) == 0 {
		return nil, fmt.Errorf("%w: no columns given and Source declares no default columns", ErrMissingColumnSpec)
	}
	return defaults, nil
}

// resolveColumn is resolveColumns specialized to a single named column: an
// empty column name is completed from the Source's default list at index,
// so Min("")/Max("")/etc. mean "use the Source's index-th default column".
func (b *Builder) resolveColumn(column string, index int) (string, error) {
	if column != "" {
		return column, nil
	}
	defaults := gnode.Root(b.node).Default
	if index >= len(defaults) {
		return "", fmt.Errorf("%w: no column given and Source's default list has no entry at position %d", ErrMissingColumnSpec, index)
	}
	return defaults[index], nil
}

// Filter appends a row gate: pred receives one argument per entry in
// columns, in order. name is optional — pass "" to exclude this Filter
// from Report().
func (b *Builder) Filter(columns []string, pred func([]any) (bool, error), name string) (*Builder, error) {
	if pred == nil {
		return nil, fmt.Errorf("%w: nil predicate", ErrInvalidArgument)
	}
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return nil, err
	}
	if err := b.checkColumns(columns); err != nil {
		return nil, err
	}
	f := gnode.NewFilter(b.node, name, columns, pred)
	if err := b.engine.bookFilter(f); err != nil {
		return nil, err
	}
	return &Builder{engine: b.engine, node: f}, nil
}

// FilterExpr compiles expression against this Builder's visible columns
// using c, and appends the resulting predicate as a Filter.
func (b *Builder) FilterExpr(c expr.Compiler, expression string, name string) (*Builder, error) {
	fn, columns, err := c.CompileBool(expression, b.visible())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExpression, err)
	}
	return b.Filter(columns, fn, name)
}

// Define appends a derived column computed per row from prod, which
// receives one argument per entry in columns, in order. name must not
// collide with any column already visible at this Builder.
func (b *Builder) Define(name string, columns []string, kind column.Kind, prod func([]any) (any, error)) (*Builder, error) {
	if prod == nil {
		return nil, fmt.Errorf("%w: nil producer", ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty column name", ErrInvalidArgument)
	}
	if _, exists := b.visible()[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return nil, err
	}
	if err := b.checkColumns(columns); err != nil {
		return nil, err
	}
	d := gnode.NewDerivedColumn(b.node, name, columns, kind, prod)
	return &Builder{engine: b.engine, node: d}, nil
}

// DefineExpr compiles expression against this Builder's visible columns
// using c, and appends the result as a Define'd column of the given kind.
func (b *Builder) DefineExpr(c expr.Compiler, name string, kind column.Kind, expression string) (*Builder, error) {
	fn, columns, err := c.CompileValue(expression, b.visible(), kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExpression, err)
	}
	return b.Define(name, columns, kind, fn)
}

// Range appends a row-position gate over [start, stop) with the given
// stride (stop == 0 means unbounded). Range forbids multi-slot
// execution; it is rejected outright while the owning Engine is
// configured for parallel execution (spec.md §4.5 invariant 9).
func (b *Builder) Range(start, stop, stride int) (*Builder, error) {
	if start < 0 || stride < 1 || (stop != 0 && stop < start) {
		return nil, fmt.Errorf("%w: invalid range(%d, %d, %d)", ErrInvalidArgument, start, stop, stride)
	}
	if b.engine.opts.Parallel {
		return nil, fmt.Errorf("%w: Range is incompatible with parallel execution", ErrUnsupported)
	}
	r := gnode.NewRange(b.node, start, stop, stride)
	return &Builder{engine: b.engine, node: r}, nil
}

// Report returns the pass/total counters of every named Filter on the
// path from the Source to this Builder, triggering a run if needed.
func (b *Builder) Report() ([]FilterReport, error) {
	return b.engine.Report(b.node)
}

func newAction(b *Builder, columns []string, op gnode.Op, instant bool) (*gnode.Action, error) {
	if err := b.checkColumns(columns); err != nil {
		return nil, err
	}
	a := gnode.NewAction(b.node, columns, op, instant)
	if err := b.engine.book(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Count appends a Count action: the number of rows that reached it.
func (b *Builder) Count() (*LazyResult[int64], error) {
	a, err := newAction(b, nil, countOp{}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[int64]{engine: b.engine, actionID: a.ID()}, nil
}

// Reduce appends a Reduce action over column: each slot folds fn
// left-to-right starting from init; slot partials are then folded
// together (DESIGN.md's merge-seeding decision).
func Reduce[T any](b *Builder, column string, init T, fn func(acc, x T) T) (*LazyResult[T], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, []string{column}, newReduceOp(init, fn), false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[T]{engine: b.engine, actionID: a.ID()}, nil
}

// Take appends a Take action over column: every admitted row's value,
// concatenated in ascending slot-id order (not necessarily source-row
// order outside sequential execution — see DESIGN.md).
func Take[T any](b *Builder, column string) (*LazyResult[[]T], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, []string{column}, takeOp[T]{}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[[]T]{engine: b.engine, actionID: a.ID()}, nil
}

// Min appends a Min action: the smallest numeric value of column across
// every row that reached it.
func (b *Builder) Min(column string) (*LazyResult[float64], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, []string{column}, &minMaxOp{max: false}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[float64]{engine: b.engine, actionID: a.ID()}, nil
}

// Max appends a Max action.
func (b *Builder) Max(column string) (*LazyResult[float64], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, []string{column}, &minMaxOp{max: true}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[float64]{engine: b.engine, actionID: a.ID()}, nil
}

// Mean appends a Mean action: the numeric average of column.
func (b *Builder) Mean(column string) (*LazyResult[float64], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, []string{column}, meanOp{}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[float64]{engine: b.engine, actionID: a.ID()}, nil
}

// Foreach appends an instant action: fn runs once per admitted row for
// its side effects, and triggers the event loop immediately, draining
// every other currently pending lazy action alongside it.
func (b *Builder) Foreach(columns []string, fn func(args []any) error) error {
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return err
	}
	_, err = newAction(b, columns, &foreachOp{fn: fn}, true)
	return err
}

// ForeachSlot is Foreach, but fn additionally receives the id of the
// slot that processed the row.
func (b *Builder) ForeachSlot(columns []string, fn func(slot int, args []any) error) error {
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return err
	}
	_, err = newAction(b, columns, &foreachSlotOp{fn: fn}, true)
	return err
}

// Fill appends a Fill action: each admitted row's resolved columns are
// folded into a clone of proto (spec.md §6's external Aggregator).
func (b *Builder) Fill(proto agg.Aggregator, columns []string) (*LazyResult[agg.Aggregator], error) {
	if proto == nil {
		return nil, fmt.Errorf("%w: nil aggregator", ErrInvalidArgument)
	}
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return nil, err
	}
	a, err := newAction(b, columns, &fillOp{proto: proto}, false)
	if err != nil {
		return nil, err
	}
	return &LazyResult[agg.Aggregator]{engine: b.engine, actionID: a.ID()}, nil
}

// Histo1D appends a Fill action against a fresh agg.Histo1D: the
// distribution of one numeric column. finite=false lets the histogram's
// range auto-extend to admit out-of-range values instead of routing them
// to the under/overflow counters (spec.md §6). column may be "" to use
// the Source's first default column.
func (b *Builder) Histo1D(column string, nbins int, lo, hi float64, finite bool) (*LazyResult[agg.Aggregator], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto1D(nbins, lo, hi, finite), []string{column})
}

// Histo1DWeighted is Histo1D, but each row's count is scaled by wcol
// instead of 1 (ROOT's Histo1D(model, vName, wName) overload).
func (b *Builder) Histo1DWeighted(column string, nbins int, lo, hi float64, finite bool, wcol string) (*LazyResult[agg.Aggregator], error) {
	column, err := b.resolveColumn(column, 0)
	if err != nil {
		return nil, err
	}
	wcol, err = b.resolveColumn(wcol, 1)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto1DWeighted(nbins, lo, hi, finite), []string{column, wcol})
}

// Histo2D appends a Fill action against a fresh agg.Histo2D.
func (b *Builder) Histo2D(xcol string, xbins int, xlo, xhi float64, ycol string, ybins int, ylo, yhi float64) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, err := b.resolve2(xcol, ycol)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto2D(xbins, xlo, xhi, ybins, ylo, yhi), []string{xcol, ycol})
}

// Histo2DWeighted is Histo2D, but each row's count is scaled by wcol.
func (b *Builder) Histo2DWeighted(xcol string, xbins int, xlo, xhi float64, ycol string, ybins int, ylo, yhi float64, wcol string) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, err := b.resolve2(xcol, ycol)
	if err != nil {
		return nil, err
	}
	wcol, err = b.resolveColumn(wcol, 2)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto2DWeighted(xbins, xlo, xhi, ybins, ylo, yhi), []string{xcol, ycol, wcol})
}

// Histo3D appends a Fill action against a fresh agg.Histo3D.
func (b *Builder) Histo3D(xcol string, xbins int, xlo, xhi float64, ycol string, ybins int, ylo, yhi float64, zcol string, zbins int, zlo, zhi float64) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, zcol, err := b.resolve3(xcol, ycol, zcol)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto3D(xbins, xlo, xhi, ybins, ylo, yhi, zbins, zlo, zhi), []string{xcol, ycol, zcol})
}

// Histo3DWeighted is Histo3D, but each row's count is scaled by wcol.
func (b *Builder) Histo3DWeighted(xcol string, xbins int, xlo, xhi float64, ycol string, ybins int, ylo, yhi float64, zcol string, zbins int, zlo, zhi float64, wcol string) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, zcol, err := b.resolve3(xcol, ycol, zcol)
	if err != nil {
		return nil, err
	}
	wcol, err = b.resolveColumn(wcol, 3)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewHisto3DWeighted(xbins, xlo, xhi, ybins, ylo, yhi, zbins, zlo, zhi), []string{xcol, ycol, zcol, wcol})
}

// resolve2 and resolve3 apply resolveColumn positionally across 2 or 3
// column names in one call, for the multi-axis Histo/Profile helpers.
func (b *Builder) resolve2(a, c string) (string, string, error) {
	a, err := b.resolveColumn(a, 0)
	if err != nil {
		return "", "", err
	}
	c, err = b.resolveColumn(c, 1)
	if err != nil {
		return "", "", err
	}
	return a, c, nil
}

func (b *Builder) resolve3(a, c, d string) (string, string, string, error) {
	a, c, err := b.resolve2(a, c)
	if err != nil {
		return "", "", "", err
	}
	d, err = b.resolveColumn(d, 2)
	if err != nil {
		return "", "", "", err
	}
	return a, c, d, nil
}

// Profile1D appends a Fill action against a fresh agg.Profile1D: the
// mean of ycol as a function of xcol's bin.
func (b *Builder) Profile1D(xcol string, xbins int, xlo, xhi float64, ycol string) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, err := b.resolve2(xcol, ycol)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewProfile1D(xbins, xlo, xhi), []string{xcol, ycol})
}

// Profile2D appends a Fill action against a fresh agg.Profile2D.
func (b *Builder) Profile2D(xcol string, xbins int, xlo, xhi float64, ycol string, ybins int, ylo, yhi float64, zcol string) (*LazyResult[agg.Aggregator], error) {
	xcol, ycol, zcol, err := b.resolve3(xcol, ycol, zcol)
	if err != nil {
		return nil, err
	}
	return b.Fill(agg.NewProfile2D(xbins, xlo, xhi, ybins, ylo, yhi), []string{xcol, ycol, zcol})
}

// Snapshot appends an instant action that writes every admitted row's
// columns through s (spec.md §6's external ColumnarSink), then triggers
// the event loop immediately.
func (b *Builder) Snapshot(s sink.ColumnarSink, columns []string) error {
	columns, err := b.resolveColumns(columns)
	if err != nil {
		return err
	}
	kinds := b.visible()
	op, err := newSnapshotOp(s, columns, kinds)
	if err != nil {
		return err
	}
	_, err = newAction(b, columns, op, true)
	return err
}
