// Package expr defines the Expression Binding Bridge spec.md §6
// leaves pluggable — the ExpressionCompiler a Builder's string-expression
// Filter/Define overloads delegate to — plus a CEL-backed reference
// implementation.
package expr

import "rowgraph/column"

// Compiler turns a string expression over a set of named, typed columns
// into a boxed callable the graph can store on a Filter or
// DerivedColumn node. The returned columns slice is the column list the
// caller must record on that node — values are handed to the callable
// in exactly that order.
type Compiler interface {
	// CompileBool compiles expression into a boolean predicate usable by
	// Filter, closing over whichever of the visible columns it needs.
	CompileBool(expression string, visible map[string]column.Kind) (fn func([]any) (bool, error), columns []string, err error)
	// CompileValue compiles expression into a value producer usable by
	// Define, expected to evaluate to result's kind.
	CompileValue(expression string, visible map[string]column.Kind, result column.Kind) (fn func([]any) (any, error), columns []string, err error)
}
