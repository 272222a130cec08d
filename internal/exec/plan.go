package exec

import (
	"fmt"

	"rowgraph/column"
	"rowgraph/internal/gnode"
	"rowgraph/internal/rowcache"
)

// actionPlan is the precomputed (once per Run, not per row) evaluation
// path for one Action: every Filter/Range/DerivedColumn node between the
// Source and the Action, in Source-first order, plus the column-name
// resolution table for that path.
type actionPlan struct {
	action  *gnode.Action
	gates   []gnode.Node // Filter and Range nodes, Source-first order
	derived map[string]*gnode.DerivedColumn
	handles map[string]column.Handle
}

func buildPlan(reader column.Reader, action *gnode.Action) (*actionPlan, error) {
	p := &actionPlan{
		action:  action,
		derived: make(map[string]*gnode.DerivedColumn),
		handles: make(map[string]column.Handle),
	}
	var referenced []string
	for _, n := range gnode.Ancestors(action) {
		switch t := n.(type) {
		case *gnode.Filter:
			p.gates = append(p.gates, n)
			referenced = append(referenced, t.Columns...)
		case *gnode.Range:
			p.gates = append(p.gates, n)
		case *gnode.DerivedColumn:
			p.derived[t.Name] = t
			referenced = append(referenced, t.Columns...)
		}
	}
	referenced = append(referenced, action.Columns...)

	// Bind every leaf (non-derived) column name exactly once, up front
	// and single-threaded, before any slot goroutine starts: Handles are
	// shared read-only across slots for the rest of the run, so lazily
	// binding inside the row loop would race on p.handles.
	for _, name := range referenced {
		if _, isDerived := p.derived[name]; isDerived {
			continue
		}
		if _, ok := p.handles[name]; ok {
			continue
		}
		h, err := reader.Bind(name, column.KindInvalid)
		if err != nil {
			return nil, fmt.Errorf("rowgraph: binding column %q: %w", name, err)
		}
		p.handles[name] = h
	}
	return p, nil
}

// resolve computes the value of column `name` at `row`, recursively
// resolving and memoizing DerivedColumn dependencies, or binding and
// reading straight from the Source reader.
func (p *actionPlan) resolve(reader column.Reader, cache *rowcache.Cache, slot, row int, name string) (any, error) {
	if dn, ok := p.derived[name]; ok {
		if v, ok := cache.Value(dn.ID()); ok {
			return v, nil
		}
		args := make([]any, len(dn.Columns))
		for i, c := range dn.Columns {
			v, err := p.resolve(reader, cache, slot, row, c)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		v, err := dn.Producer(args)
		if err != nil {
			return nil, fmt.Errorf("rowgraph: derived column %q: %w", dn.Name, err)
		}
		cache.SetValue(dn.ID(), v)
		return v, nil
	}
	h, ok := p.handles[name]
	if !ok {
		return nil, fmt.Errorf("rowgraph: column %q was not bound during plan construction", name)
	}
	return reader.Read(h, slot, row)
}

func (p *actionPlan) resolveAll(reader column.Reader, cache *rowcache.Cache, slot, row int, names []string) ([]any, error) {
	out := make([]any, len(names))
	for i, n := range names {
		v, err := p.resolve(reader, cache, slot, row, n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
