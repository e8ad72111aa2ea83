package tomasulo

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/cache"
	"github.com/sarchlab/tomsim/timing/latency"
)

// cdbEntry is one pending result on the common data bus queue.
type cdbEntry struct {
	robIndex int
	instID   int
	value    int64
	fuID     int
}

// StationCounts sets the number of reservation stations per class.
type StationCounts struct {
	AddSub int
	MulDiv int
	Load   int
	Store  int
}

// DefaultStationCounts returns the default station configuration.
func DefaultStationCounts() StationCounts {
	return StationCounts{AddSub: 3, MulDiv: 2, Load: 3, Store: 3}
}

// DefaultROBCapacity is the default reorder buffer size.
const DefaultROBCapacity = 8

// Option is a functional option for configuring the machine state.
type Option func(*State)

// WithROBCapacity sets the reorder buffer capacity.
func WithROBCapacity(capacity int) Option {
	return func(s *State) {
		s.rob = NewROB(capacity)
	}
}

// WithStationCounts sets the number of reservation stations per class.
func WithStationCounts(counts StationCounts) Option {
	return func(s *State) {
		s.stations = buildStations(counts)
	}
}

// WithPredictor sets the branch predictor.
func WithPredictor(p Predictor) Option {
	return func(s *State) {
		s.predictor = p
	}
}

// WithSpeculation enables or disables speculative issue past
// unresolved branches. When disabled, issue stalls until the in-flight
// branch commits.
func WithSpeculation(enabled bool) Option {
	return func(s *State) {
		s.speculation = enabled
	}
}

// WithLatencyTable sets a custom latency table.
func WithLatencyTable(table *latency.Table) Option {
	return func(s *State) {
		s.latencies = table
	}
}

// WithAlignmentCheck controls whether misaligned memory addresses
// fault at execute time.
func WithAlignmentCheck(strict bool) Option {
	return func(s *State) {
		s.memory.SetStrictAlignment(strict)
	}
}

// WithDataCache attaches a data cache model to the load path. Load
// latency then comes from the cache hit/miss outcome instead of the
// fixed load latency.
func WithDataCache(config cache.Config) Option {
	return func(s *State) {
		s.dcache = cache.New(config)
	}
}

// State is one complete, observable snapshot of the machine. Advance
// consumes a state and produces the next one; nothing else mutates it.
type State struct {
	program []*insts.Instruction

	regFile *emu.RegFile
	memory  *emu.Memory

	stations []ReservationStation
	units    []FunctionalUnit
	rob      *ROB
	rat      *RAT

	cdb []cdbEntry

	predictor        Predictor
	speculation      bool
	checkpoints      []*Checkpoint
	nextCheckpointID int

	latencies *latency.Table

	// dcache is an optional load-path timing model. It is shared, not
	// cloned: it affects only latency and statistics, never values.
	dcache *cache.Cache

	pc    int
	cycle uint64
	stats Statistics
}

// New builds the initial machine state for a program, an initial
// register file, and an initial memory image. The equivalent of a
// hardware reset.
func New(
	program []insts.Instruction,
	registers map[string]int64,
	memory map[uint64]int64,
	opts ...Option,
) (*State, error) {
	s := &State{
		regFile:     emu.NewRegFile(registers),
		memory:      emu.NewMemory(memory),
		stations:    buildStations(DefaultStationCounts()),
		units:       buildUnits(),
		rob:         NewROB(DefaultROBCapacity),
		rat:         NewRAT(),
		predictor:   NewBimodalPredictor(),
		speculation: true,
		latencies:   latency.NewTable(),
	}

	s.program = make([]*insts.Instruction, len(program))
	for i := range program {
		inst := program[i]
		if inst.ID != i {
			return nil, errors.Errorf(
				"instruction at position %d carries id %d", i, inst.ID)
		}
		if err := inst.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid program")
		}
		inst.State = insts.StateIdle
		inst.ROBIndex = -1
		s.program[i] = &inst
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func buildStations(counts StationCounts) []ReservationStation {
	var stations []ReservationStation
	add := func(class UnitClass, n int) {
		for i := 0; i < n; i++ {
			stations = append(stations, ReservationStation{
				ID:    len(stations),
				Class: class,
			})
		}
	}
	add(UnitAddSub, counts.AddSub)
	add(UnitMulDiv, counts.MulDiv)
	add(UnitLoad, counts.Load)
	add(UnitStore, counts.Store)
	return stations
}

// One structural unit per class; multi-issue width is a non-goal.
func buildUnits() []FunctionalUnit {
	classes := []UnitClass{UnitAddSub, UnitMulDiv, UnitLoad, UnitStore}
	units := make([]FunctionalUnit, len(classes))
	for i, class := range classes {
		units[i] = FunctionalUnit{ID: i, Class: class}
	}
	return units
}

// Advance produces the machine state one cycle after s. The input
// state is left untouched. Hazards stall silently; only hard faults
// (malformed address, division by zero) return an error.
func Advance(s *State) (*State, error) {
	next := s.Clone()
	if err := next.tick(); err != nil {
		return nil, err
	}
	return next, nil
}

// stallFlags records which hazard causes fired during one cycle.
type stallFlags struct {
	issue      bool
	data       bool
	structural bool
}

func (f stallFlags) any() bool {
	return f.issue || f.data || f.structural
}

// tick applies one clock edge. The stage order Commit -> Writeback ->
// Execute -> Issue makes the four simulated stages act on the state the
// previous cycle left behind: commit sees last cycle's broadcasts and
// can flush speculative producers before they broadcast, writeback
// frees units before dispatch looks for them, and a newly issued
// instruction cannot execute in its issue cycle.
func (s *State) tick() error {
	s.cycle++
	s.stats.Cycles++

	var stalls stallFlags

	if err := s.commit(); err != nil {
		return err
	}
	s.writeback()
	if err := s.execute(&stalls); err != nil {
		return err
	}
	s.issue(&stalls)

	if stalls.issue {
		s.stats.IssueStalls++
	}
	if stalls.data {
		s.stats.DataHazardStalls++
	}
	if stalls.structural {
		s.stats.StructuralStalls++
	}
	if stalls.any() {
		s.stats.AnyStallCycles++
	}

	return nil
}

// Clone returns a deep copy of the machine state. The data cache, a
// shared timing model, is the only pointer carried over.
func (s *State) Clone() *State {
	next := &State{
		regFile:          s.regFile.Clone(),
		memory:           s.memory.Clone(),
		rob:              s.rob.Clone(),
		rat:              s.rat.Clone(),
		predictor:        s.predictor.Clone(),
		speculation:      s.speculation,
		nextCheckpointID: s.nextCheckpointID,
		latencies:        s.latencies,
		dcache:           s.dcache,
		pc:               s.pc,
		cycle:            s.cycle,
		stats:            s.stats,
	}

	next.program = make([]*insts.Instruction, len(s.program))
	for i, inst := range s.program {
		copied := *inst
		next.program[i] = &copied
	}

	next.stations = make([]ReservationStation, len(s.stations))
	copy(next.stations, s.stations)
	next.units = make([]FunctionalUnit, len(s.units))
	copy(next.units, s.units)
	next.cdb = make([]cdbEntry, len(s.cdb))
	copy(next.cdb, s.cdb)

	next.checkpoints = make([]*Checkpoint, len(s.checkpoints))
	for i, cp := range s.checkpoints {
		next.checkpoints[i] = cp.clone()
	}

	return next
}

// Done reports whether the machine has drained: nothing is in flight
// and the program counter points past any issuable instruction.
func (s *State) Done() bool {
	if !s.rob.Empty() {
		return false
	}
	if s.pc < 0 || s.pc >= len(s.program) {
		return true
	}
	return s.program[s.pc].State.Terminal()
}

// PC returns the current program counter.
func (s *State) PC() int {
	return s.pc
}

// Cycle returns the current cycle number.
func (s *State) Cycle() uint64 {
	return s.cycle
}

// Stats returns the per-run counters.
func (s *State) Stats() Statistics {
	return s.stats
}

// Instructions returns a copy of every instruction with its current
// lifecycle state.
func (s *State) Instructions() []insts.Instruction {
	out := make([]insts.Instruction, len(s.program))
	for i, inst := range s.program {
		out[i] = *inst
	}
	return out
}

// Instruction returns a copy of the instruction with the given id.
func (s *State) Instruction(id int) insts.Instruction {
	return *s.program[id]
}

// Stations returns a copy of all reservation stations.
func (s *State) Stations() []ReservationStation {
	out := make([]ReservationStation, len(s.stations))
	copy(out, s.stations)
	return out
}

// Units returns a copy of all functional units.
func (s *State) Units() []FunctionalUnit {
	out := make([]FunctionalUnit, len(s.units))
	copy(out, s.units)
	return out
}

// ROBSnapshot returns a copy of the reorder buffer slots in storage
// order, plus the head and tail indices.
func (s *State) ROBSnapshot() (entries []ROBEntry, head, tail int) {
	return s.rob.Snapshot(), s.rob.Head(), s.rob.Tail()
}

// RATSnapshot returns a copy of the live register renames.
func (s *State) RATSnapshot() map[string]int {
	return s.rat.Snapshot()
}

// Checkpoints returns copies of the outstanding branch checkpoints,
// oldest first.
func (s *State) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(s.checkpoints))
	for i, cp := range s.checkpoints {
		out[i] = *cp.clone()
	}
	return out
}

// Registers returns a copy of the committed register file.
func (s *State) Registers() map[string]int64 {
	return s.regFile.Snapshot()
}

// MemorySnapshot returns a copy of the memory image.
func (s *State) MemorySnapshot() map[uint64]int64 {
	return s.memory.Snapshot()
}

// DataCache returns the attached data cache model, or nil.
func (s *State) DataCache() *cache.Cache {
	return s.dcache
}

func (s *State) freeStation(class UnitClass) *ReservationStation {
	for i := range s.stations {
		if s.stations[i].Class == class && !s.stations[i].Busy {
			return &s.stations[i]
		}
	}
	return nil
}

func (s *State) freeUnit(class UnitClass) *FunctionalUnit {
	for i := range s.units {
		if s.units[i].Class == class && !s.units[i].Busy {
			return &s.units[i]
		}
	}
	return nil
}

// lookupOperand resolves a source register to an operand: a pending tag
// when an in-flight producer exists and has not completed, the
// forwarded reorder buffer value when it has, and the committed
// register value otherwise.
func (s *State) lookupOperand(name string) Operand {
	if name == "" || name == emu.ZeroRegister {
		return ResolvedOperand(0)
	}
	if idx, ok := s.rat.Lookup(name); ok {
		entry := s.rob.Entry(idx)
		if entry.Ready {
			return ResolvedOperand(entry.Value)
		}
		return PendingOperand(idx)
	}
	return ResolvedOperand(s.regFile.Read(name))
}

// addressBase resolves the base register for an effective address at
// issue time. A pending producer that has not completed falls back to
// the committed value; the address is frozen either way.
func (s *State) addressBase(name string) int64 {
	op := s.lookupOperand(name)
	if op.Resolved() {
		return op.Value()
	}
	return s.regFile.Read(name)
}
