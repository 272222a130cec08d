package gnode

import "rowgraph/column"

// Producer is the boxed shape every typed Define callable is adapted
// into: one argument per declared column, one produced value.
type Producer func(args []any) (any, error)

// DerivedColumn is a column computed per row as a pure function of other
// visible columns, memoized within that row's evaluation.
type DerivedColumn struct {
	base
	Name     string
	Columns  []string
	Producer Producer
	Result   column.Kind
}

// NewDerivedColumn appends a DerivedColumn node as a child of parent. The
// caller must have already checked that name does not collide with any
// column visible at parent (spec.md §3 invariant).
func NewDerivedColumn(parent Node, name string, columns []string, result column.Kind, prod Producer) *DerivedColumn {
	d := &DerivedColumn{Name: name, Columns: columns, Producer: prod, Result: result}
	d.id = allocID()
	d.parent = parent
	d.visible = parent.VisibleColumns()
	d.visible[name] = result
	parent.addChild()
	return d
}

func (d *DerivedColumn) Kind() Kind { return KindDerived }
