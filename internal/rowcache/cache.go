// Package rowcache implements the per-slot, per-row memoization of
// filter verdicts and derived-column values described in spec.md
// §4.3/§4.4: "evaluated at most once per row". A Cache belongs to exactly
// one slot and is cleared between rows, never shared.
package rowcache

// Cache memoizes Filter verdicts and DerivedColumn values for the row
// currently being processed by one slot.
type Cache struct {
	verdicts map[int64]bool
	values   map[int64]any
}

// New returns an empty Cache, ready for the first row.
func New() *Cache {
	return &Cache{
		verdicts: make(map[int64]bool),
		values:   make(map[int64]any),
	}
}

// Verdict returns a Filter's cached verdict for the current row, and
// whether it was present (absent means "not yet evaluated for this
// row").
func (c *Cache) Verdict(nodeID int64) (bool, bool) {
	v, ok := c.verdicts[nodeID]
	return v, ok
}

// SetVerdict caches a Filter's verdict for the current row.
func (c *Cache) SetVerdict(nodeID int64, v bool) {
	c.verdicts[nodeID] = v
}

// Value returns a DerivedColumn's cached value for the current row, and
// whether it was present.
func (c *Cache) Value(nodeID int64) (any, bool) {
	v, ok := c.values[nodeID]
	return v, ok
}

// SetValue caches a DerivedColumn's value for the current row.
func (c *Cache) SetValue(nodeID int64, v any) {
	c.values[nodeID] = v
}

// Reset clears both maps, ending the lifetime of the current row's
// memoized state. Called by the engine between consecutive rows in a
// task.
func (c *Cache) Reset() {
	clear(c.verdicts)
	clear(c.values)
}
