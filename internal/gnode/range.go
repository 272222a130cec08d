package gnode

// Range is a stateful row gate: admits rows whose 0-based position among
// rows that reached it (i.e. passed every Filter above it) satisfies
// `seen ∈ [start, stop) ∧ (seen-start) mod stride == 0`. Range forbids
// multi-slot execution; the builder enforces that at construction time.
type Range struct {
	base
	Start, Stop, Stride int
}

// NewRange appends a Range node as a child of parent.
func NewRange(parent Node, start, stop, stride int) *Range {
	r := &Range{Start: start, Stop: stop, Stride: stride}
	r.id = allocID()
	r.parent = parent
	r.visible = parent.VisibleColumns()
	parent.addChild()
	return r
}

func (r *Range) Kind() Kind { return KindRange }

// Admits reports whether seenIndex — the 0-based position of the current
// row among rows that have reached this Range — is admitted.
func (r *Range) Admits(seenIndex int) bool {
	if seenIndex < r.Start {
		return false
	}
	if r.Stop != 0 && seenIndex >= r.Stop {
		return false
	}
	return (seenIndex-r.Start)%r.Stride == 0
}

// Terminal reports whether seenCount — the number of rows that have now
// reached this Range, including the current one — has reached the
// Range's configured stop, signaling the engine to halt after the
// current task.
func (r *Range) Terminal(seenCount int) bool {
	return r.Stop != 0 && seenCount >= r.Stop
}
