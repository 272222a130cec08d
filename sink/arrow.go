package sink

import (
	"fmt"
	"sync"
	"time"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/ipc"
	"github.com/apache/arrow/go/v11/arrow/memory"
	"github.com/spf13/afero"

	"rowgraph/column"
)

// ArrowIPCSink writes Snapshot's rows in the Arrow IPC stream format to
// a single file on an afero.Fs, one record batch per bound slot in
// ascending slot-id order, built independently so AppendRow needs no
// cross-slot lock.
type ArrowIPCSink struct {
	fs   afero.Fs
	path string
	pool memory.Allocator

	mu      sync.Mutex
	schema  *arrow.Schema
	columns []string
	slots   map[int]*slotBuilder
}

type slotBuilder struct {
	order   []string
	builder *array.RecordBuilder
}

// NewArrowIPCSink prepares a sink that will write to path on fs; the
// file is created and written when FlushAndClose is called.
func NewArrowIPCSink(fs afero.Fs, path string) *ArrowIPCSink {
	return &ArrowIPCSink{fs: fs, path: path, pool: memory.NewGoAllocator(), slots: make(map[int]*slotBuilder)}
}

func (s *ArrowIPCSink) Create(columns []string, kinds map[string]column.Kind) error {
	fields := make([]arrow.Field, len(columns))
	for i, name := range columns {
		dt, err := arrowType(kinds[name])
		if err != nil {
			return fmt.Errorf("sink: column %q: %w", name, err)
		}
		fields[i] = arrow.Field{Name: name, Type: dt}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = arrow.NewSchema(fields, nil)
	s.columns = columns
	return nil
}

func arrowType(k column.Kind) (arrow.DataType, error) {
	switch k {
	case column.KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case column.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case column.KindString:
		return arrow.BinaryTypes.String, nil
	case column.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case column.KindTime:
		return arrow.FixedWidthTypes.Timestamp_ns, nil
	default:
		return nil, fmt.Errorf("unsupported column kind %v", k)
	}
}

func (s *ArrowIPCSink) BindAddresses(slot int, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema == nil {
		return fmt.Errorf("sink: Create was not called before BindAddresses")
	}
	s.slots[slot] = &slotBuilder{order: columns, builder: array.NewRecordBuilder(s.pool, s.schema)}
	return nil
}

func (s *ArrowIPCSink) AppendRow(slot int, values []any) error {
	s.mu.Lock()
	sb, ok := s.slots[slot]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("sink: slot %d was not bound", slot)
	}
	for i, name := range sb.order {
		fieldIdx := s.fieldIndex(name)
		if err := appendValue(sb.builder.Field(fieldIdx), values[i]); err != nil {
			return fmt.Errorf("sink: column %q: %w", name, err)
		}
	}
	return nil
}

func (s *ArrowIPCSink) fieldIndex(name string) int {
	for i, n := range s.columns {
		if n == name {
			return i
		}
	}
	return -1
}

func appendValue(b array.Builder, v any) error {
	switch bb := b.(type) {
	case *array.Int64Builder:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("expected int64, got %T", v)
		}
		bb.Append(n)
	case *array.Float64Builder:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", v)
		}
		bb.Append(f)
	case *array.StringBuilder:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		bb.Append(str)
	case *array.BooleanBuilder:
		t, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		bb.Append(t)
	case *array.TimestampBuilder:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time, got %T", v)
		}
		bb.Append(arrow.Timestamp(t.UnixNano()))
	default:
		return fmt.Errorf("unsupported builder type %T", b)
	}
	return nil
}

func (s *ArrowIPCSink) FlushAndClose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schema == nil {
		return fmt.Errorf("sink: Create was not called")
	}
	f, err := s.fs.Create(s.path)
	if err != nil {
		return fmt.Errorf("sink: creating %q: %w", s.path, err)
	}
	defer f.Close()

	w := ipc.NewWriter(f, ipc.WithSchema(s.schema), ipc.WithAllocator(s.pool))
	defer w.Close()

	maxSlot := -1
	for slot := range s.slots {
		if slot > maxSlot {
			maxSlot = slot
		}
	}
	for slot := 0; slot <= maxSlot; slot++ {
		sb, ok := s.slots[slot]
		if !ok {
			continue
		}
		rec := sb.builder.NewRecord()
		err := w.Write(rec)
		rec.Release()
		sb.builder.Release()
		if err != nil {
			return fmt.Errorf("sink: writing slot %d batch: %w", slot, err)
		}
	}
	return nil
}
