// Package insts defines the instruction data model consumed by the
// out-of-order scheduling core. Instructions arrive from the front end
// already validated, with labels resolved into relative offsets.
package insts

import "fmt"

// Opcode identifies an operation.
type Opcode int

// Supported opcodes.
const (
	OpNOP Opcode = iota
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpLOAD
	OpSTORE
	OpBEQ
	OpBNE
)

var opcodeNames = map[Opcode]string{
	OpNOP:   "NOP",
	OpADD:   "ADD",
	OpSUB:   "SUB",
	OpMUL:   "MUL",
	OpDIV:   "DIV",
	OpLOAD:  "LOAD",
	OpSTORE: "STORE",
	OpBEQ:   "BEQ",
	OpBNE:   "BNE",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// ParseOpcode converts a mnemonic to an Opcode.
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == s {
			return op, true
		}
	}
	return OpNOP, false
}

// IsBranch reports whether the opcode is a conditional branch.
func (op Opcode) IsBranch() bool {
	return op == OpBEQ || op == OpBNE
}

// IsMemory reports whether the opcode accesses memory.
func (op Opcode) IsMemory() bool {
	return op == OpLOAD || op == OpSTORE
}

// WritesRegister reports whether the opcode produces a register result.
// Stores and branches write no register.
func (op Opcode) WritesRegister() bool {
	switch op {
	case OpADD, OpSUB, OpMUL, OpDIV, OpLOAD:
		return true
	default:
		return false
	}
}

// State is the lifecycle state of an instruction in the pipeline.
type State int

// Lifecycle states. Committed and Flushed are terminal.
const (
	StateIdle State = iota
	StateIssued
	StateExecuting
	StateReady
	StateWriteback
	StateCommitted
	StateFlushed
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateIssued:    "issued",
	StateExecuting: "executing",
	StateReady:     "ready",
	StateWriteback: "writeback",
	StateCommitted: "committed",
	StateFlushed:   "flushed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFlushed
}

// Instruction is one entry of the program. The identity fields (ID, Op,
// operands, Imm) are fixed at load time; the lifecycle fields are mutated
// by the pipeline as the instruction moves through it.
type Instruction struct {
	// ID is the position in the program, used as the program counter
	// value that fetches this instruction.
	ID int
	// Op is the operation.
	Op Opcode
	// Dest is the destination register name (empty for STORE, branches
	// and NOP).
	Dest string
	// Src1 is the first source register name. For STORE it names the
	// register holding the value to store; for branches the first
	// comparison operand.
	Src1 string
	// Src2 is the second source register name. For LOAD/STORE it names
	// the address base register (empty means base 0); for branches the
	// second comparison operand.
	Src2 string
	// Imm is the immediate. For LOAD/STORE it is the address offset; for
	// branches the label-relative offset from this instruction.
	Imm int64

	// Lifecycle fields, owned by the pipeline.
	State       State
	Speculative bool
	ROBIndex    int

	// Cycle timestamps, 0 until the event happens.
	IssueCycle     uint64
	ExecStartCycle uint64
	ExecEndCycle   uint64
	WritebackCycle uint64
	CommitCycle    uint64
}

func (i *Instruction) String() string {
	switch i.Op {
	case OpNOP:
		return "NOP"
	case OpLOAD:
		return fmt.Sprintf("LOAD %s,%d(%s)", i.Dest, i.Imm, i.Src2)
	case OpSTORE:
		return fmt.Sprintf("STORE %s,%d(%s)", i.Src1, i.Imm, i.Src2)
	case OpBEQ, OpBNE:
		return fmt.Sprintf("%s %s,%s,%+d", i.Op, i.Src1, i.Src2, i.Imm)
	default:
		return fmt.Sprintf("%s %s,%s,%s", i.Op, i.Dest, i.Src1, i.Src2)
	}
}

// Validate checks that the instruction is internally consistent.
func (i *Instruction) Validate() error {
	if _, ok := opcodeNames[i.Op]; !ok {
		return fmt.Errorf("instruction %d: unknown opcode %d", i.ID, int(i.Op))
	}
	if i.Op.WritesRegister() && i.Dest == "" {
		return fmt.Errorf("instruction %d (%s): missing destination register", i.ID, i.Op)
	}
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpDIV:
		if i.Src1 == "" || i.Src2 == "" {
			return fmt.Errorf("instruction %d (%s): missing source register", i.ID, i.Op)
		}
	case OpSTORE:
		if i.Src1 == "" {
			return fmt.Errorf("instruction %d (STORE): missing value register", i.ID)
		}
	case OpBEQ, OpBNE:
		if i.Src1 == "" || i.Src2 == "" {
			return fmt.Errorf("instruction %d (%s): missing comparison operand", i.ID, i.Op)
		}
	}
	return nil
}
