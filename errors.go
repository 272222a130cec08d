package rowgraph

import "errors"

// Error kinds surfaced to callers. Use errors.Is against these sentinels;
// concrete errors are always wrapped with additional context via fmt.Errorf.
var (
	// Graph-construction errors: bad builder arguments, rejected immediately,
	// graph left unchanged.
	ErrInvalidArgument   = errors.New("rowgraph: invalid argument")
	ErrUnsupported       = errors.New("rowgraph: unsupported")
	ErrDuplicateColumn   = errors.New("rowgraph: duplicate column")
	ErrDuplicateFilter   = errors.New("rowgraph: duplicate filter name")
	ErrMissingColumnSpec = errors.New("rowgraph: missing column spec")
	ErrArityMismatch     = errors.New("rowgraph: arity mismatch")

	// Wiring errors: a callable/action references a column that doesn't
	// exist or has the wrong type, caught at registration time.
	ErrUnknownColumn = errors.New("rowgraph: unknown column")
	ErrTypeMismatch  = errors.New("rowgraph: type mismatch")

	// Expression-bridge errors, carrying the compiler's diagnostic.
	ErrExpression = errors.New("rowgraph: expression error")

	// Engine-lifecycle errors.
	ErrEngineGone = errors.New("rowgraph: engine released")

	// Runtime-contract errors surfaced at first row of a slot.
	ErrAggregatorBinding = errors.New("rowgraph: aggregator binding error")
)
