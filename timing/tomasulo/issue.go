package tomasulo

import (
	"github.com/sarchlab/tomsim/insts"
)

// issue attempts to admit the instruction at the program counter. The
// preconditions (a free reorder buffer slot and a free reservation
// station of the right class) are checked before anything is touched,
// so a structural stall leaves no state behind.
func (s *State) issue(stalls *stallFlags) {
	if s.pc < 0 || s.pc >= len(s.program) {
		return
	}
	inst := s.program[s.pc]
	if inst.State != insts.StateIdle {
		return
	}

	// Without speculation, nothing issues past an in-flight branch.
	if !s.speculation && len(s.checkpoints) > 0 {
		stalls.issue = true
		return
	}

	if s.rob.Full() {
		stalls.issue = true
		return
	}
	rs := s.freeStation(ClassOf(inst.Op))
	if rs == nil {
		stalls.issue = true
		return
	}

	entry := ROBEntry{
		InstID:       inst.ID,
		Kind:         commitKindOf(inst.Op),
		CheckpointID: -1,
	}
	if inst.Op.WritesRegister() {
		entry.Dest = inst.Dest
	}
	if inst.Op.IsMemory() {
		entry.Addr = s.addressBase(inst.Src2) + inst.Imm
	}
	if owner := s.newestCheckpoint(); owner != nil {
		entry.Speculative = true
		entry.CheckpointID = owner.ID
		inst.Speculative = true
	}

	robIdx := s.rob.Alloc(entry)
	if robIdx < 0 {
		// Unreachable: the Full check above holds the slot.
		stalls.issue = true
		return
	}

	rs.Busy = true
	rs.Op = inst.Op
	rs.DestTag = robIdx
	rs.InstID = inst.ID
	rs.J, rs.K = s.sourceOperands(inst)

	if inst.Op.WritesRegister() {
		s.rat.Set(inst.Dest, robIdx)
	}

	inst.State = insts.StateIssued
	inst.IssueCycle = s.cycle
	inst.ROBIndex = robIdx

	if inst.Op.IsBranch() {
		s.issueBranch(inst)
		return
	}
	s.pc++
}

// sourceOperands wires the two station operands for an instruction.
// Loads and stores use the address frozen in the reorder buffer entry;
// only a store's value operand can still be pending.
func (s *State) sourceOperands(inst *insts.Instruction) (j, k Operand) {
	switch inst.Op {
	case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpDIV,
		insts.OpBEQ, insts.OpBNE:
		return s.lookupOperand(inst.Src1), s.lookupOperand(inst.Src2)
	case insts.OpSTORE:
		return s.lookupOperand(inst.Src1), ResolvedOperand(0)
	default: // LOAD, NOP
		return ResolvedOperand(0), ResolvedOperand(0)
	}
}

// issueBranch creates the checkpoint for a conditional branch and
// redirects the program counter along the predicted path. With
// speculation disabled the prediction is fallthrough and the counter
// stays there until the branch commits.
func (s *State) issueBranch(inst *insts.Instruction) {
	target := inst.ID + int(inst.Imm)
	fallThrough := inst.ID + 1

	taken := false
	if s.speculation {
		taken = s.predictor.Predict(inst.ID)
	}

	cp := &Checkpoint{
		ID:              s.nextCheckpointID,
		BranchID:        inst.ID,
		PC:              inst.ID,
		RATSnapshot:     s.rat.Snapshot(),
		ROBTail:         s.rob.Tail(),
		PredictedTaken:  taken,
		PredictedTarget: target,
		FallthroughPC:   fallThrough,
	}
	s.nextCheckpointID++
	s.checkpoints = append(s.checkpoints, cp)

	if taken {
		s.pc = target
	} else {
		s.pc = fallThrough
	}
}

func commitKindOf(op insts.Opcode) CommitKind {
	switch op {
	case insts.OpLOAD:
		return KindLoad
	case insts.OpSTORE:
		return KindStore
	case insts.OpBEQ, insts.OpBNE:
		return KindBranch
	default:
		return KindALU
	}
}
