package tomasulo

import (
	"github.com/sarchlab/tomsim/insts"
)

// writeback models the common data bus. Every unit holding a computed,
// not-yet-queued result joins the broadcast queue; then exactly one
// entry (the oldest) broadcasts. Broadcasting writes the reorder
// buffer slot, wakes every station waiting on the tag, and frees the
// producing unit. The one-per-cycle limit is the shared-bus structural
// constraint.
func (s *State) writeback() {
	for i := range s.units {
		fu := &s.units[i]
		if fu.Busy && fu.Done && !fu.Queued {
			fu.Queued = true
			s.cdb = append(s.cdb, cdbEntry{
				robIndex: fu.DestTag,
				instID:   fu.InstID,
				value:    fu.Result,
				fuID:     fu.ID,
			})
		}
	}

	if len(s.cdb) == 0 {
		return
	}
	broadcast := s.cdb[0]
	s.cdb = s.cdb[1:]

	entry := s.rob.Entry(broadcast.robIndex)
	entry.Value = broadcast.value
	entry.Ready = true

	for i := range s.stations {
		s.stations[i].capture(broadcast.robIndex, broadcast.value)
	}

	fu := &s.units[broadcast.fuID]
	if fu.Busy && fu.InstID == broadcast.instID {
		fu.Clear()
	}

	inst := s.program[broadcast.instID]
	inst.State = insts.StateWriteback
	inst.WritebackCycle = s.cycle
}
