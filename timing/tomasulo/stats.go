package tomasulo

// Statistics holds per-run performance counters.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Committed is the number of instructions retired.
	Committed uint64

	// IssueStalls counts cycles the issue stage could not admit an
	// instruction because the reorder buffer or every matching
	// reservation station was full.
	IssueStalls uint64
	// DataHazardStalls counts cycles at least one reservation station
	// held an instruction with an unresolved operand.
	DataHazardStalls uint64
	// StructuralStalls counts cycles at least one ready reservation
	// station found no free functional unit.
	StructuralStalls uint64
	// AnyStallCycles counts cycles in which any stall cause fired.
	AnyStallCycles uint64

	// Flushes is the number of misprediction recoveries.
	Flushes uint64
	// BranchesExecuted is the number of retired conditional branches
	// that were graded against a prediction.
	BranchesExecuted uint64
	// CorrectPredictions is the number of correctly predicted branches.
	CorrectPredictions uint64
	// Mispredictions is the number of mispredicted branches.
	Mispredictions uint64
}

// IPC returns committed instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Committed) / float64(s.Cycles)
}

// BranchAccuracy returns the fraction of correctly predicted branches,
// defined as 1.0 when no branches have executed.
func (s Statistics) BranchAccuracy() float64 {
	if s.BranchesExecuted == 0 {
		return 1.0
	}
	return float64(s.CorrectPredictions) / float64(s.BranchesExecuted)
}
