package expr

import (
	"testing"

	"rowgraph/column"
)

func TestCompileBoolEvaluatesOverNamedColumns(t *testing.T) {
	c := NewCELCompiler()
	visible := map[string]column.Kind{"x": column.KindInt64, "y": column.KindFloat64}

	fn, columns, err := c.CompileBool("x > 3 && y < 10.0", visible)
	if err != nil {
		t.Fatalf("CompileBool: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("columns = %v, want 2 entries", columns)
	}

	args := make([]any, len(columns))
	for i, name := range columns {
		switch name {
		case "x":
			args[i] = int64(5)
		case "y":
			args[i] = 2.0
		}
	}
	ok, err := fn(args)
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if !ok {
		t.Errorf("expected x=5,y=2.0 to satisfy x > 3 && y < 10.0")
	}
}

func TestCompileBoolCachesProgram(t *testing.T) {
	c := NewCELCompiler()
	visible := map[string]column.Kind{"x": column.KindInt64}

	fn1, _, err := c.CompileBool("x > 0", visible)
	if err != nil {
		t.Fatalf("CompileBool (1st): %v", err)
	}
	fn2, _, err := c.CompileBool("x > 0", visible)
	if err != nil {
		t.Fatalf("CompileBool (2nd): %v", err)
	}
	for _, fn := range []func([]any) (bool, error){fn1, fn2} {
		ok, err := fn([]any{int64(1)})
		if err != nil || !ok {
			t.Errorf("expected x=1 to satisfy x > 0, got ok=%v err=%v", ok, err)
		}
	}
}

func TestCompileBoolNarrowsToReferencedColumns(t *testing.T) {
	c := NewCELCompiler()
	visible := map[string]column.Kind{
		"x": column.KindInt64,
		"y": column.KindFloat64,
		"z": column.KindString,
	}

	_, columns, err := c.CompileBool("x > 3", visible)
	if err != nil {
		t.Fatalf("CompileBool: %v", err)
	}
	if len(columns) != 1 || columns[0] != "x" {
		t.Errorf("columns = %v, want only [x] — y and z are not referenced by the expression", columns)
	}
}

func TestCompileValueProducesTypedColumn(t *testing.T) {
	c := NewCELCompiler()
	visible := map[string]column.Kind{"x": column.KindInt64}

	fn, columns, err := c.CompileValue("x * 2", visible, column.KindInt64)
	if err != nil {
		t.Fatalf("CompileValue: %v", err)
	}
	args := []any{int64(21)}
	_ = columns
	v, err := fn(args)
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if v != int64(42) {
		t.Errorf("x*2 with x=21 = %v, want 42", v)
	}
}
