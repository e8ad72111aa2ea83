// Package tomasulo implements the dynamic-scheduling core of a
// Tomasulo-style out-of-order pipeline: reservation stations,
// functional units, a reorder buffer, a register alias table, a common
// data bus, and branch speculation with checkpoint rollback.
package tomasulo

import "fmt"

// Operand is a source operand of a reservation station: either a
// resolved numeric value or a pending tag naming the reorder buffer
// entry that will produce it.
type Operand struct {
	pending bool
	value   int64
	tag     int
}

// ResolvedOperand returns an operand carrying a value.
func ResolvedOperand(value int64) Operand {
	return Operand{value: value}
}

// PendingOperand returns an operand waiting on a reorder buffer entry.
func PendingOperand(robIndex int) Operand {
	return Operand{pending: true, tag: robIndex}
}

// Resolved reports whether the operand carries a value.
func (o Operand) Resolved() bool {
	return !o.pending
}

// Value returns the operand value. Only meaningful when resolved.
func (o Operand) Value() int64 {
	return o.value
}

// Tag returns the pending producer's reorder buffer index and whether
// the operand is still pending.
func (o Operand) Tag() (int, bool) {
	return o.tag, o.pending
}

func (o Operand) String() string {
	if o.pending {
		return fmt.Sprintf("ROB#%d", o.tag)
	}
	return fmt.Sprintf("%d", o.value)
}
