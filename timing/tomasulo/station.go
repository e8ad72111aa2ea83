package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomsim/insts"
)

// UnitClass identifies the operation class a reservation station or
// functional unit services.
type UnitClass int

// Operation classes.
const (
	UnitAddSub UnitClass = iota
	UnitMulDiv
	UnitLoad
	UnitStore
)

var unitClassNames = map[UnitClass]string{
	UnitAddSub: "addsub",
	UnitMulDiv: "muldiv",
	UnitLoad:   "load",
	UnitStore:  "store",
}

func (c UnitClass) String() string {
	if name, ok := unitClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UnitClass(%d)", int(c))
}

// ClassOf returns the unit class that executes the given opcode.
// Branches and NOP use the add/sub units.
func ClassOf(op insts.Opcode) UnitClass {
	switch op {
	case insts.OpMUL, insts.OpDIV:
		return UnitMulDiv
	case insts.OpLOAD:
		return UnitLoad
	case insts.OpSTORE:
		return UnitStore
	default:
		return UnitAddSub
	}
}

// ReservationStation holds one issued instruction while it waits for
// operands and a functional unit. A station is busy iff it holds
// exactly one in-flight instruction awaiting dispatch.
type ReservationStation struct {
	// ID is the station index, stable across the run.
	ID int
	// Class is the operation class this station feeds.
	Class UnitClass

	Busy bool
	Op   insts.Opcode
	// J and K are the two source operands (Vj/Qj and Vk/Qk).
	J Operand
	K Operand
	// DestTag is the reorder buffer index this instruction writes.
	DestTag int
	// InstID is the owning instruction.
	InstID int
}

// ReadyToDispatch reports whether both operands are resolved.
func (rs *ReservationStation) ReadyToDispatch() bool {
	return rs.Busy && rs.J.Resolved() && rs.K.Resolved()
}

// Clear frees the station.
func (rs *ReservationStation) Clear() {
	*rs = ReservationStation{ID: rs.ID, Class: rs.Class}
}

// capture replaces a pending operand matching the broadcast tag with
// the broadcast value.
func (rs *ReservationStation) capture(robIndex int, value int64) {
	if !rs.Busy {
		return
	}
	if tag, pending := rs.J.Tag(); pending && tag == robIndex {
		rs.J = ResolvedOperand(value)
	}
	if tag, pending := rs.K.Tag(); pending && tag == robIndex {
		rs.K = ResolvedOperand(value)
	}
}
