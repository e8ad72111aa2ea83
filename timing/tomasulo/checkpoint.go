package tomasulo

// Checkpoint captures the state needed to undo a predicted branch path:
// the alias table as it stood when the branch issued, the reorder
// buffer tail at that instant, and the prediction. It is created when a
// conditional branch issues, resolved when the branch finishes
// executing, and consumed when the branch commits (or earlier, by the
// flush of an older mispredicted branch).
type Checkpoint struct {
	ID int
	// BranchID is the owning branch instruction.
	BranchID int
	// PC is the branch's program position.
	PC int

	// RATSnapshot is the alias table at issue time.
	RATSnapshot map[string]int
	// ROBTail is the reorder buffer tail just past the branch's entry.
	ROBTail int

	PredictedTaken  bool
	PredictedTarget int
	FallthroughPC   int

	// Filled in when the branch executes.
	Resolved     bool
	ActualTaken  bool
	ActualTarget int
	Correct      bool
}

func (c *Checkpoint) clone() *Checkpoint {
	out := *c
	out.RATSnapshot = make(map[string]int, len(c.RATSnapshot))
	for name, idx := range c.RATSnapshot {
		out.RATSnapshot[name] = idx
	}
	return &out
}

// checkpointByID returns the outstanding checkpoint with the given id.
func (s *State) checkpointByID(id int) *Checkpoint {
	for _, cp := range s.checkpoints {
		if cp.ID == id {
			return cp
		}
	}
	return nil
}

// checkpointByBranch returns the outstanding checkpoint owned by the
// given branch instruction.
func (s *State) checkpointByBranch(instID int) *Checkpoint {
	for _, cp := range s.checkpoints {
		if cp.BranchID == instID {
			return cp
		}
	}
	return nil
}

// newestCheckpoint returns the most recently created outstanding
// checkpoint, or nil. Instructions issued now are speculative under it.
func (s *State) newestCheckpoint() *Checkpoint {
	if len(s.checkpoints) == 0 {
		return nil
	}
	return s.checkpoints[len(s.checkpoints)-1]
}

// dropCheckpoint removes a consumed checkpoint and every checkpoint
// created after it. Checkpoints resolve oldest-first, so removal is
// always a contiguous suffix.
func (s *State) dropCheckpoint(cp *Checkpoint, dropNewer bool) {
	for i, c := range s.checkpoints {
		if c.ID != cp.ID {
			continue
		}
		if dropNewer {
			s.checkpoints = s.checkpoints[:i]
		} else {
			s.checkpoints = append(s.checkpoints[:i], s.checkpoints[i+1:]...)
		}
		return
	}
}
