package tomasulo

import "github.com/sarchlab/tomsim/emu"

// RAT is the register alias table: a sparse map from register name to
// the reorder buffer entry that will produce its newest value. Absence
// means the committed register file holds the current value. A new
// issue overwrites any prior mapping for the same destination, which is
// how WAW hazards resolve without stalling.
type RAT struct {
	entries map[string]int
}

// NewRAT creates an empty alias table.
func NewRAT() *RAT {
	return &RAT{entries: make(map[string]int)}
}

// Lookup returns the pending producer for a register, if any.
func (r *RAT) Lookup(name string) (int, bool) {
	idx, ok := r.entries[name]
	return idx, ok
}

// Set records that the register's newest value comes from the given
// reorder buffer entry. The zero register is never renamed.
func (r *RAT) Set(name string, robIndex int) {
	if name == "" || name == emu.ZeroRegister {
		return
	}
	r.entries[name] = robIndex
}

// ClearIf removes the mapping for a register only if it still points at
// the given reorder buffer entry. A later issue may have renamed the
// register again; that newer mapping must survive.
func (r *RAT) ClearIf(name string, robIndex int) {
	if idx, ok := r.entries[name]; ok && idx == robIndex {
		delete(r.entries, name)
	}
}

// Len returns the number of live mappings.
func (r *RAT) Len() int {
	return len(r.entries)
}

// Snapshot returns a copy of the mapping.
func (r *RAT) Snapshot() map[string]int {
	out := make(map[string]int, len(r.entries))
	for name, idx := range r.entries {
		out[name] = idx
	}
	return out
}

// Restore replaces the mapping with a snapshot taken earlier.
func (r *RAT) Restore(snapshot map[string]int) {
	r.entries = make(map[string]int, len(snapshot))
	for name, idx := range snapshot {
		r.entries[name] = idx
	}
}

// Clone returns an independent copy of the alias table.
func (r *RAT) Clone() *RAT {
	return &RAT{entries: r.Snapshot()}
}
