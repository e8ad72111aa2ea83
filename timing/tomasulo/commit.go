package tomasulo

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tomsim/insts"
)

// commit inspects only the reorder buffer head. An unready head, or a
// speculative head whose governing branch has not resolved, retires
// nothing this cycle. Retirement writes the committed register file or
// memory, and for branches decides between consuming the checkpoint
// and triggering a full flush.
func (s *State) commit() error {
	entry := s.rob.HeadEntry()
	if !entry.Busy || !entry.Ready {
		return nil
	}
	if entry.Speculative {
		if cp := s.checkpointByID(entry.CheckpointID); cp != nil && !cp.Resolved {
			return nil
		}
	}

	inst := s.program[entry.InstID]

	switch entry.Kind {
	case KindALU, KindLoad:
		if entry.Dest != "" {
			s.regFile.Write(entry.Dest, entry.Value)
			// A later issue may have renamed the register again; only
			// the mapping still pointing here is cleared.
			s.rat.ClearIf(entry.Dest, s.rob.Head())
		}
	case KindStore:
		if entry.Addr < 0 {
			return errors.Errorf("instruction %d (%s): store address %d is negative",
				inst.ID, inst, entry.Addr)
		}
		if err := s.memory.WriteWord(uint64(entry.Addr), entry.Value); err != nil {
			return errors.Wrapf(err, "instruction %d (%s)", inst.ID, inst)
		}
		if s.dcache != nil {
			s.dcache.Write(uint64(entry.Addr))
		}
	case KindBranch:
		s.commitBranch(entry, inst)
	}

	s.rob.FreeHead()
	inst.State = insts.StateCommitted
	inst.CommitCycle = s.cycle
	s.stats.Committed++

	return nil
}

func (s *State) commitBranch(entry *ROBEntry, inst *insts.Instruction) {
	cp := s.checkpointByBranch(inst.ID)
	if cp == nil || !cp.Resolved {
		return
	}

	s.predictor.Update(cp.PC, cp.ActualTaken)

	if !s.speculation {
		// No prediction to grade, only a PC redirect.
		if cp.ActualTaken {
			s.pc = cp.ActualTarget
		}
		s.dropCheckpoint(cp, false)
		return
	}

	s.stats.BranchesExecuted++

	if cp.Correct {
		s.stats.CorrectPredictions++
		s.despeculate(cp.ID)
		s.dropCheckpoint(cp, false)
		return
	}

	s.stats.Mispredictions++
	s.flush(cp)
	s.pc = cp.ActualTarget
}

// despeculate clears the speculative flag of everything owned by a
// correctly predicted, now-consumed checkpoint. Work owned by newer
// checkpoints stays speculative.
func (s *State) despeculate(checkpointID int) {
	for i := 0; i < s.rob.Capacity(); i++ {
		entry := s.rob.Entry(i)
		if entry.Busy && entry.Speculative && entry.CheckpointID == checkpointID {
			entry.Speculative = false
			entry.CheckpointID = -1
			s.program[entry.InstID].Speculative = false
		}
	}
}

// flush undoes the wrong-path work of a mispredicted branch: the alias
// table returns to the checkpoint snapshot, the reorder buffer tail
// rewinds past every entry issued after the branch, stations and units
// bound to speculative instructions are freed with their partial
// progress discarded, queued broadcasts from flushed producers are
// dropped, and the wrong-path instructions become flushed. This is the
// only way an instruction leaves the pipeline without committing.
func (s *State) flush(cp *Checkpoint) {
	s.rat.Restore(cp.RATSnapshot)
	s.rob.ResetTail(cp.ROBTail)

	// Producers older than the branch may have committed while it was
	// in flight; their snapshot mappings point at freed slots and must
	// not come back, or a later consumer would wait on a tag that never
	// broadcasts.
	for name, idx := range cp.RATSnapshot {
		if !s.rob.Entry(idx).Busy {
			s.rat.ClearIf(name, idx)
		}
	}

	for i := range s.stations {
		rs := &s.stations[i]
		if rs.Busy && s.wrongPath(rs.InstID, cp) {
			rs.Clear()
		}
	}
	for i := range s.units {
		fu := &s.units[i]
		if fu.Busy && s.wrongPath(fu.InstID, cp) {
			fu.Clear()
		}
	}

	kept := s.cdb[:0]
	for _, b := range s.cdb {
		if !s.wrongPath(b.instID, cp) {
			kept = append(kept, b)
		}
	}
	s.cdb = kept

	for _, inst := range s.program {
		if inst.Speculative && inst.ID > cp.BranchID &&
			inst.State != insts.StateIdle && !inst.State.Terminal() {
			inst.State = insts.StateFlushed
		}
	}

	s.dropCheckpoint(cp, true)
	s.stats.Flushes++
}

func (s *State) wrongPath(instID int, cp *Checkpoint) bool {
	return s.program[instID].Speculative && instID > cp.BranchID
}
