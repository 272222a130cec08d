// Package arrowcol adapts an in-memory Arrow record batch into a
// column.Reader, letting the engine consume Arrow-columnar data sources
// directly. Pure pack enrichment (apache/arrow/go is pulled in by the
// pack's cockroachdb/loki repos) — the teacher has no columnar reader of
// its own to adapt.
package arrowcol

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"

	"rowgraph/column"
)

// RecordReader wraps a single arrow.Record as a column.Reader. Records
// are immutable once built, so Read is safe for concurrent (slot, row)
// access without any locking.
type RecordReader struct {
	rec     arrow.Record
	schema  map[string]column.Kind
	byName  map[string]int
	order   []string
}

// New wraps rec. defaultCols, if non-nil, becomes DefaultColumns();
// otherwise every field in rec's schema is used, in schema order.
func New(rec arrow.Record, defaultCols []string) (*RecordReader, error) {
	schema := rec.Schema()
	r := &RecordReader{
		rec:    rec,
		schema: make(map[string]column.Kind, len(schema.Fields())),
		byName: make(map[string]int, len(schema.Fields())),
	}
	for i := 0; i < len(schema.Fields()); i++ {
		f := schema.Field(i)
		kind, err := fromArrowType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("arrowcol: field %q: %w", f.Name, err)
		}
		r.schema[f.Name] = kind
		r.byName[f.Name] = i
		r.order = append(r.order, f.Name)
	}
	if defaultCols != nil {
		r.order = defaultCols
	}
	return r, nil
}

func fromArrowType(t arrow.DataType) (column.Kind, error) {
	switch t.ID() {
	case arrow.INT64:
		return column.KindInt64, nil
	case arrow.FLOAT64:
		return column.KindFloat64, nil
	case arrow.STRING:
		return column.KindString, nil
	case arrow.BOOL:
		return column.KindBool, nil
	case arrow.TIMESTAMP:
		return column.KindTime, nil
	default:
		return column.KindInvalid, fmt.Errorf("unsupported arrow type %s", t.Name())
	}
}

func (r *RecordReader) Bind(name string, kind column.Kind) (column.Handle, error) {
	idx, ok := r.byName[name]
	if !ok {
		return column.Handle{}, &column.BindError{Column: name, Reason: "unknown column"}
	}
	actual := r.schema[name]
	if kind != column.KindInvalid && kind != actual {
		return column.Handle{}, &column.BindError{Column: name, Reason: "type mismatch: column is " + actual.String() + ", requested " + kind.String()}
	}
	return column.NewHandle(name, actual, idx), nil
}

// Read ignores slot — Arrow columns are read-only arrays, so every slot
// reads the same underlying buffer directly.
func (r *RecordReader) Read(h column.Handle, _ int, row int) (any, error) {
	col := r.rec.Column(h.Index())
	if row < 0 || row >= col.Len() {
		return nil, &column.BindError{Column: h.Name(), Reason: "row index out of range"}
	}
	if col.IsNull(row) {
		return nil, nil
	}
	switch h.Kind() {
	case column.KindInt64:
		return col.(*array.Int64).Value(row), nil
	case column.KindFloat64:
		return col.(*array.Float64).Value(row), nil
	case column.KindString:
		return col.(*array.String).Value(row), nil
	case column.KindBool:
		return col.(*array.Boolean).Value(row), nil
	case column.KindTime:
		ts := col.(*array.Timestamp).Value(row)
		return time.Unix(0, int64(ts)).UTC(), nil
	default:
		return nil, &column.BindError{Column: h.Name(), Reason: "unsupported kind"}
	}
}

func (r *RecordReader) RowCount() int { return int(r.rec.NumRows()) }

func (r *RecordReader) DefaultColumns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *RecordReader) Schema() map[string]column.Kind {
	out := make(map[string]column.Kind, len(r.schema))
	for k, v := range r.schema {
		out[k] = v
	}
	return out
}
