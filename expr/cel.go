package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/google/cel-go/common/types/ref"

	"rowgraph/column"
)

// errExpression is expr's own sentinel; the root package wraps it with
// rowgraph.ErrExpression when a Builder delegates to a Compiler.
var errExpression = errors.New("expr: expression error")

// CELCompiler adapts named, column.Kind-typed row columns into CEL
// variables and compiles/evaluates boolean or value expressions over
// them. Grounded almost verbatim on the teacher's rules.RulesEngine: the
// same cel.Env-plus-sync.Map-program-cache shape, generalized from a
// fixed {request, resource} document context to an arbitrary, per-call
// set of typed row columns — one cached *cel.Env per distinct column
// signature, since CEL environments are immutable once built.
type CELCompiler struct {
	envs sync.Map // map[string]*envEntry, keyed by sorted "name:kind,..." signature
}

type envEntry struct {
	env  *cel.Env
	prgs sync.Map // map[string]compiledExpr, keyed by expression text
}

// compiledExpr pairs a compiled program with the subset of the env's
// columns the expression actually references, so callers bind and pass
// only what's needed instead of every visible column.
type compiledExpr struct {
	prg     cel.Program
	columns []string
}

// NewCELCompiler returns a ready-to-use CELCompiler.
func NewCELCompiler() *CELCompiler { return &CELCompiler{} }

func (c *CELCompiler) CompileBool(expression string, visible map[string]column.Kind) (func([]any) (bool, error), []string, error) {
	prg, names, err := c.compile(expression, visible)
	if err != nil {
		return nil, nil, err
	}
	fn := func(args []any) (bool, error) {
		out, err := eval(prg, names, args)
		if err != nil {
			return false, err
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("expression %q did not evaluate to bool", expression)
		}
		return b, nil
	}
	return fn, names, nil
}

func (c *CELCompiler) CompileValue(expression string, visible map[string]column.Kind, result column.Kind) (func([]any) (any, error), []string, error) {
	prg, names, err := c.compile(expression, visible)
	if err != nil {
		return nil, nil, err
	}
	fn := func(args []any) (any, error) {
		out, err := eval(prg, names, args)
		if err != nil {
			return nil, err
		}
		v, err := toKind(out.Value(), result)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", expression, err)
		}
		return v, nil
	}
	return fn, names, nil
}

// compile returns the cached program for expression over visible's
// signature, plus the sorted column names the evaluator closure will
// expect arguments in.
func (c *CELCompiler) compile(expression string, visible map[string]column.Kind) (cel.Program, []string, error) {
	names := make([]string, 0, len(visible))
	for n := range visible {
		names = append(names, n)
	}
	sort.Strings(names)

	sig := signature(names, visible)
	entryAny, _ := c.envs.LoadOrStore(sig, &envEntry{})
	entry := entryAny.(*envEntry)

	if entry.env == nil {
		env, err := buildEnv(names, visible)
		if err != nil {
			return nil, nil, fmt.Errorf("expr: building CEL environment: %w", err)
		}
		entry.env = env
	}

	if v, ok := entry.prgs.Load(expression); ok {
		cached := v.(compiledExpr)
		return cached.prg, cached.columns, nil
	}

	ast, issues := entry.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, nil, fmt.Errorf("%w: %s", errExpression, issues.Err())
	}
	referenced := referencedColumns(ast, names, visible)
	prg, err := entry.env.Program(ast)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: program construction: %s", errExpression, err)
	}
	entry.prgs.Store(expression, compiledExpr{prg: prg, columns: referenced})
	return prg, referenced, nil
}

// referencedColumns narrows names to the subset expression's checked AST
// actually resolves as identifiers, via the AST's reference map (spec.md
// §4.7 step 1: identify the referenced subset before binding). If the AST
// carries no reference map for some reason, every visible column is kept
// rather than under-binding.
func referencedColumns(ast *cel.Ast, names []string, visible map[string]column.Kind) []string {
	checked, err := cel.AstToCheckedExpr(ast)
	if err != nil {
		return names
	}
	refs := checked.GetReferenceMap()
	if len(refs) == 0 {
		return names
	}
	used := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if n := ref.GetName(); n != "" {
			if _, ok := visible[n]; ok {
				used[n] = true
			}
		}
	}
	out := make([]string, 0, len(used))
	for _, n := range names {
		if used[n] {
			out = append(out, n)
		}
	}
	return out
}

func signature(names []string, visible map[string]column.Kind) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(visible[n].String())
		b.WriteByte(',')
	}
	return b.String()
}

func buildEnv(names []string, visible map[string]column.Kind) (*cel.Env, error) {
	varDecls := make([]*exprpb.Decl, 0, len(names))
	for _, n := range names {
		varDecls = append(varDecls, decls.NewVar(n, celType(visible[n])))
	}
	return cel.NewEnv(cel.Declarations(varDecls...))
}

func celType(k column.Kind) *exprpb.Type {
	switch k {
	case column.KindInt64:
		return decls.Int
	case column.KindFloat64:
		return decls.Double
	case column.KindString:
		return decls.String
	case column.KindBool:
		return decls.Bool
	case column.KindTime:
		return decls.Timestamp
	default:
		return decls.Dyn
	}
}

// eval zips args into the names-ordered variable map CEL expects and
// evaluates the cached program.
func eval(prg cel.Program, names []string, args []any) (ref.Val, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expr: expected %d column values, got %d", len(names), len(args))
	}
	vars := make(map[string]any, len(names))
	for i, n := range names {
		vars[n] = args[i]
	}
	out, _, err := prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("%w: eval: %s", errExpression, err)
	}
	return out, nil
}

func toKind(v any, k column.Kind) (any, error) {
	switch k {
	case column.KindInt64:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			return int64(n), nil
		}
	case column.KindFloat64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		}
	case column.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case column.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case column.KindTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("result kind %s does not match evaluated value %v (%T)", k, v, v)
}
