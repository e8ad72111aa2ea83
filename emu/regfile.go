// Package emu provides the architectural machine state: the committed
// register file and the word-addressed memory image.
package emu

import "sort"

// ZeroRegister is hardwired to zero. Reads always return 0 and writes
// are silently ignored, so the rename machinery never tracks it.
const ZeroRegister = "R0"

// RegFile is the committed architectural register file, keyed by
// register name. Only the commit stage writes it.
type RegFile struct {
	regs map[string]int64
}

// NewRegFile creates a register file with the given initial values.
// An initial value for the zero register is dropped.
func NewRegFile(initial map[string]int64) *RegFile {
	r := &RegFile{regs: make(map[string]int64, len(initial))}
	for name, value := range initial {
		if name == ZeroRegister {
			continue
		}
		r.regs[name] = value
	}
	return r
}

// Read returns the committed value of a register. Unwritten registers
// and the zero register read as 0.
func (r *RegFile) Read(name string) int64 {
	if name == "" || name == ZeroRegister {
		return 0
	}
	return r.regs[name]
}

// Write sets the committed value of a register. Writes to the zero
// register are ignored.
func (r *RegFile) Write(name string, value int64) {
	if name == "" || name == ZeroRegister {
		return
	}
	r.regs[name] = value
}

// Names returns the names of all written registers in sorted order.
func (r *RegFile) Names() []string {
	names := make([]string, 0, len(r.regs))
	for name := range r.regs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the register contents.
func (r *RegFile) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(r.regs))
	for name, value := range r.regs {
		out[name] = value
	}
	return out
}

// Clone returns an independent copy of the register file.
func (r *RegFile) Clone() *RegFile {
	return &RegFile{regs: r.Snapshot()}
}
