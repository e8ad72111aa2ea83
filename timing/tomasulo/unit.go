package tomasulo

import (
	"github.com/sarchlab/tomsim/insts"
)

// FunctionalUnit executes one operation class with a fixed latency.
// Operands are copied from the reservation station at dispatch and
// never re-read afterwards.
type FunctionalUnit struct {
	// ID is the unit index, stable across the run.
	ID int
	// Class is the operation class this unit executes.
	Class UnitClass

	Busy   bool
	InstID int
	Op     insts.Opcode
	// DestTag is the reorder buffer index the result belongs to.
	DestTag int
	// J and K are the captured operand values.
	J int64
	K int64

	// Remaining counts down to zero; Total is the full latency.
	Remaining uint64
	Total     uint64

	// Result holds the computed value once Remaining reaches zero.
	Result int64
	// Done marks a computed, not-yet-broadcast result.
	Done bool
	// Queued marks that the result is already on the broadcast queue.
	Queued bool

	// dispatchCycle is the cycle the unit was loaded; the countdown
	// skips that cycle so a latency-L operation completes exactly L
	// cycles after dispatch.
	dispatchCycle uint64
}

// Clear frees the unit.
func (fu *FunctionalUnit) Clear() {
	*fu = FunctionalUnit{ID: fu.ID, Class: fu.Class}
}
