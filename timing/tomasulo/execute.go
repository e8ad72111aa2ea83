package tomasulo

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tomsim/insts"
)

// execute runs the two sub-phases of the execute stage: dispatch ready
// reservation stations to free functional units, then count down every
// running unit and compute results that reach zero. A unit loaded this
// cycle does not count down, so a latency-L operation turns ready
// exactly L cycles after dispatch.
func (s *State) execute(stalls *stallFlags) error {
	s.dispatch(stalls)
	return s.countdown()
}

func (s *State) dispatch(stalls *stallFlags) {
	for i := range s.stations {
		rs := &s.stations[i]
		if !rs.Busy {
			continue
		}
		inst := s.program[rs.InstID]
		if inst.State != insts.StateIssued {
			continue
		}
		if !rs.ReadyToDispatch() {
			stalls.data = true
			continue
		}
		fu := s.freeUnit(rs.Class)
		if fu == nil {
			stalls.structural = true
			continue
		}

		fu.Busy = true
		fu.InstID = rs.InstID
		fu.Op = rs.Op
		fu.DestTag = rs.DestTag
		fu.J = rs.J.Value()
		fu.K = rs.K.Value()
		fu.Total = s.opLatency(fu)
		fu.Remaining = fu.Total
		fu.dispatchCycle = s.cycle

		inst.State = insts.StateExecuting
		inst.ExecStartCycle = s.cycle

		rs.Clear()
	}
}

// opLatency returns the execute latency for the operation on the unit.
// With a data cache attached, loads take the hit/miss latency instead
// of the fixed load latency.
func (s *State) opLatency(fu *FunctionalUnit) uint64 {
	if s.dcache != nil && fu.Op == insts.OpLOAD {
		addr := s.rob.Entry(fu.DestTag).Addr
		if addr >= 0 {
			result := s.dcache.Read(uint64(addr))
			if result.Latency > 0 {
				return result.Latency
			}
		}
	}
	lat := s.latencies.Latency(fu.Op)
	if lat == 0 {
		lat = 1
	}
	return lat
}

func (s *State) countdown() error {
	for i := range s.units {
		fu := &s.units[i]
		if !fu.Busy || fu.Done || fu.dispatchCycle == s.cycle {
			continue
		}
		fu.Remaining--
		if fu.Remaining > 0 {
			continue
		}
		if err := s.complete(fu); err != nil {
			return err
		}
	}
	return nil
}

// complete computes the unit's result and marks the instruction ready.
// Branch completion also settles the owning checkpoint; the flush
// decision stays with commit.
func (s *State) complete(fu *FunctionalUnit) error {
	inst := s.program[fu.InstID]
	entry := s.rob.Entry(fu.DestTag)
	if !entry.Busy || entry.InstID != fu.InstID {
		return errors.Errorf(
			"functional unit %d finished instruction %d but reorder buffer slot %d no longer holds it",
			fu.ID, fu.InstID, fu.DestTag)
	}

	var result int64
	switch fu.Op {
	case insts.OpADD:
		result = fu.J + fu.K
	case insts.OpSUB:
		result = fu.J - fu.K
	case insts.OpMUL:
		result = fu.J * fu.K
	case insts.OpDIV:
		if fu.K == 0 {
			return errors.Errorf("instruction %d (%s): division by zero", inst.ID, inst)
		}
		result = fu.J / fu.K
	case insts.OpLOAD:
		value, err := s.loadWord(entry.Addr)
		if err != nil {
			return errors.Wrapf(err, "instruction %d (%s)", inst.ID, inst)
		}
		result = value
	case insts.OpSTORE:
		// The memory write waits for commit; the result is the value
		// to store. The frozen address faults here, not at commit.
		if err := s.checkStoreAddress(entry.Addr); err != nil {
			return errors.Wrapf(err, "instruction %d (%s)", inst.ID, inst)
		}
		result = fu.J
	case insts.OpBEQ, insts.OpBNE:
		taken := fu.J == fu.K
		if fu.Op == insts.OpBNE {
			taken = fu.J != fu.K
		}
		if taken {
			result = 1
		}
		s.resolveBranch(inst.ID, taken)
	}

	fu.Result = result
	fu.Done = true

	inst.State = insts.StateReady
	inst.ExecEndCycle = s.cycle

	return nil
}

func (s *State) loadWord(addr int64) (int64, error) {
	if addr < 0 {
		return 0, errors.Errorf("load address %d is negative", addr)
	}
	return s.memory.ReadWord(uint64(addr))
}

func (s *State) checkStoreAddress(addr int64) error {
	if addr < 0 {
		return errors.Errorf("store address %d is negative", addr)
	}
	return s.memory.CheckAddress(uint64(addr))
}

// resolveBranch settles the checkpoint owned by a branch with the
// actual outcome.
func (s *State) resolveBranch(branchID int, taken bool) {
	cp := s.checkpointByBranch(branchID)
	if cp == nil {
		return
	}
	cp.Resolved = true
	cp.ActualTaken = taken
	if taken {
		cp.ActualTarget = cp.PredictedTarget
	} else {
		cp.ActualTarget = cp.FallthroughPC
	}
	cp.Correct = cp.PredictedTaken == taken
}
