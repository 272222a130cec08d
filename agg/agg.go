// Package agg defines the external Aggregator contract spec.md §6
// leaves pluggable, plus a reference set of histogram and profile
// aggregators. The contract is original to this module — the spec marks
// Aggregator an opaque collaborator supplied by the caller, so there is
// no teacher precedent to adapt; the reference implementations follow
// the same clone/fill/merge shape the contract itself mandates.
package agg

// Aggregator is a per-slot accumulator a Fill() action folds rows into.
// Implementations must tolerate concurrent Fill calls against distinct
// clones (one per slot) but never against the same clone from more than
// one goroutine.
type Aggregator interface {
	// Clone returns a fresh, independent, zero-valued accumulator of the
	// same configuration (bin edges, axis count, ...).
	Clone() Aggregator
	// Fill folds one row's resolved column values into the accumulator.
	Fill(values []any) error
	// HasFiniteLimits reports whether every axis has a fixed, predeclared
	// range. When false, axis auto-extension (widening bins to cover a
	// value outside the current range) is permitted during Fill.
	HasFiniteLimits() bool
	// Merge folds other's counts into the receiver in place.
	Merge(other Aggregator) error
}
