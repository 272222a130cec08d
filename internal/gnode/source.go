package gnode

import "rowgraph/column"

// Source is the root of a graph: a row count N plus a Column Reader.
type Source struct {
	base
	Reader  column.Reader
	Default []string
}

// NewSource wraps a column.Reader as the root of a fresh graph.
func NewSource(r column.Reader) *Source {
	s := &Source{Reader: r, Default: r.DefaultColumns()}
	s.id = allocID()
	s.visible = r.Schema()
	return s
}

func (s *Source) Kind() Kind { return KindSource }

// RowCount returns N, the Source's row count.
func (s *Source) RowCount() int { return s.Reader.RowCount() }
