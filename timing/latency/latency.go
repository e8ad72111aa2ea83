// Package latency provides per-opcode execution timing for the
// cycle-level scheduling model.
package latency

import (
	"github.com/sarchlab/tomsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a latency table with default timing values.
func NewTable() *Table {
	return &Table{config: DefaultTimingConfig()}
}

// NewTableWithConfig creates a latency table with custom timing values.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{config: config}
}

// Latency returns the execution latency in cycles for the given opcode.
func (t *Table) Latency(op insts.Opcode) uint64 {
	switch op {
	case insts.OpADD, insts.OpSUB:
		return t.config.AddSubLatency
	case insts.OpMUL:
		return t.config.MultiplyLatency
	case insts.OpDIV:
		return t.config.DivideLatency
	case insts.OpLOAD:
		return t.config.LoadLatency
	case insts.OpSTORE:
		return t.config.StoreLatency
	case insts.OpBEQ, insts.OpBNE:
		return t.config.BranchLatency
	default:
		return 1
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
