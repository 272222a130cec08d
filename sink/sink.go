// Package sink defines the external ColumnarSink contract Snapshot()
// writes through (spec.md §6), plus an Arrow IPC reference
// implementation over an afero.Fs. Grounded on the rest of the example
// pack's apache/arrow/go and spf13/afero usage — the teacher has no
// on-disk columnar writer of its own (bundoc's storage layer is a
// mutable B+Tree page store, not an append-only columnar format), so
// this package enriches from the pack rather than adapting the teacher.
package sink

import "rowgraph/column"

// ColumnarSink is the external Snapshot destination the engine writes
// through. Implementations own their own on-disk layout and any
// cross-slot serialization AppendRow needs.
type ColumnarSink interface {
	// Create opens the sink for a column set with known kinds, before
	// any slot starts writing.
	Create(columns []string, kinds map[string]column.Kind) error
	// BindAddresses prepares slot to begin writing rows in the given
	// column order; called once per slot, before that slot's first
	// AppendRow.
	BindAddresses(slot int, columns []string) error
	// AppendRow writes one row's resolved values, in the column order
	// BindAddresses was called with for that slot.
	AppendRow(slot int, values []any) error
	// FlushAndClose finalizes the sink after every slot has finished.
	FlushAndClose() error
}
