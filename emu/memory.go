package emu

import (
	"sort"

	"github.com/pkg/errors"
)

// WordSize is the memory access granularity in bytes.
const WordSize = 4

// Memory is a sparse word-addressed memory image shared by all loads
// and stores. Loads read it at execute time; stores write it at commit.
type Memory struct {
	words map[uint64]int64

	// strictAlign rejects accesses whose address is not word aligned.
	strictAlign bool
}

// NewMemory creates a memory image with the given initial contents and
// alignment enforcement enabled.
func NewMemory(initial map[uint64]int64) *Memory {
	m := &Memory{
		words:       make(map[uint64]int64, len(initial)),
		strictAlign: true,
	}
	for addr, value := range initial {
		m.words[addr] = value
	}
	return m
}

// SetStrictAlignment controls whether misaligned addresses fault.
func (m *Memory) SetStrictAlignment(strict bool) {
	m.strictAlign = strict
}

func (m *Memory) checkAlignment(addr uint64) error {
	if m.strictAlign && addr%WordSize != 0 {
		return errors.Errorf("misaligned memory access at address %d", addr)
	}
	return nil
}

// CheckAddress validates an address against the alignment policy
// without touching the contents.
func (m *Memory) CheckAddress(addr uint64) error {
	return m.checkAlignment(addr)
}

// ReadWord reads the word at addr. Unwritten words read as 0.
func (m *Memory) ReadWord(addr uint64) (int64, error) {
	if err := m.checkAlignment(addr); err != nil {
		return 0, errors.Wrap(err, "load")
	}
	return m.words[addr], nil
}

// WriteWord writes the word at addr.
func (m *Memory) WriteWord(addr uint64, value int64) error {
	if err := m.checkAlignment(addr); err != nil {
		return errors.Wrap(err, "store")
	}
	m.words[addr] = value
	return nil
}

// Addresses returns all written addresses in ascending order.
func (m *Memory) Addresses() []uint64 {
	addrs := make([]uint64, 0, len(m.words))
	for addr := range m.words {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Snapshot returns a copy of the memory contents.
func (m *Memory) Snapshot() map[uint64]int64 {
	out := make(map[uint64]int64, len(m.words))
	for addr, value := range m.words {
		out[addr] = value
	}
	return out
}

// Clone returns an independent copy of the memory image.
func (m *Memory) Clone() *Memory {
	return &Memory{words: m.Snapshot(), strictAlign: m.strictAlign}
}
