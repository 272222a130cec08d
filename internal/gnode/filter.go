package gnode

import "rowgraph/column"

// Predicate is the boxed shape every typed Filter callable is adapted
// into: one argument per declared column, boolean verdict.
type Predicate func(args []any) (bool, error)

// Filter is a row gate: a predicate over a declared column list. An
// empty Name disables Report()-ing for this filter.
type Filter struct {
	base
	Name      string
	Columns   []string
	Predicate Predicate
}

// NewFilter appends a Filter node as a child of parent.
func NewFilter(parent Node, name string, columns []string, pred Predicate) *Filter {
	f := &Filter{Name: name, Columns: columns, Predicate: pred}
	f.id = allocID()
	f.parent = parent
	f.visible = parent.VisibleColumns()
	parent.addChild()
	return f
}

func (f *Filter) Kind() Kind { return KindFilter }

// ColumnKinds resolves the declared column list's kinds from the node's
// visible set.
func (f *Filter) ColumnKinds() []column.Kind {
	kinds := make([]column.Kind, len(f.Columns))
	vis := f.VisibleColumns()
	for i, c := range f.Columns {
		kinds[i] = vis[c]
	}
	return kinds
}
