package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/cache"
	"github.com/sarchlab/tomsim/timing/tomasulo"
)

func alu(id int, op insts.Opcode, dest, src1, src2 string) insts.Instruction {
	return insts.Instruction{ID: id, Op: op, Dest: dest, Src1: src1, Src2: src2}
}

func load(id int, dest string, offset int64) insts.Instruction {
	return insts.Instruction{ID: id, Op: insts.OpLOAD, Dest: dest, Imm: offset}
}

func store(id int, src string, offset int64) insts.Instruction {
	return insts.Instruction{ID: id, Op: insts.OpSTORE, Src1: src, Imm: offset}
}

func branch(id int, op insts.Opcode, src1, src2 string, offset int64) insts.Instruction {
	return insts.Instruction{ID: id, Op: op, Src1: src1, Src2: src2, Imm: offset}
}

// run drives a fresh machine to completion and returns the final state.
func run(
	program []insts.Instruction,
	registers map[string]int64,
	memory map[uint64]int64,
	opts ...tomasulo.Option,
) *tomasulo.State {
	state, err := tomasulo.New(program, registers, memory, opts...)
	Expect(err).NotTo(HaveOccurred())

	engine := tomasulo.NewEngine(state)
	done, err := engine.Run(10000)
	Expect(err).NotTo(HaveOccurred())
	Expect(done).To(BeTrue())

	return engine.State()
}

var _ = Describe("Engine", func() {
	Describe("straight-line programs", func() {
		It("should run a dependent chain through to completion", func() {
			program := []insts.Instruction{
				load(0, "R1", 0),
				load(1, "R2", 4),
				alu(2, insts.OpADD, "R3", "R1", "R2"),
				alu(3, insts.OpMUL, "R4", "R3", "R1"),
				alu(4, insts.OpSUB, "R5", "R4", "R2"),
				store(5, "R5", 8),
			}
			memory := map[uint64]int64{0: 5, 4: 3}

			state := run(program, nil, memory)

			regs := state.Registers()
			Expect(regs["R1"]).To(Equal(int64(5)))
			Expect(regs["R2"]).To(Equal(int64(3)))
			Expect(regs["R3"]).To(Equal(int64(8)))
			Expect(regs["R4"]).To(Equal(int64(40)))
			Expect(regs["R5"]).To(Equal(int64(37)))
			Expect(state.MemorySnapshot()[8]).To(Equal(int64(37)))

			stats := state.Stats()
			Expect(stats.Committed).To(Equal(uint64(6)))
			Expect(stats.Flushes).To(Equal(uint64(0)))

			for _, inst := range state.Instructions() {
				Expect(inst.State).To(Equal(insts.StateCommitted))
			}
		})

		It("should leave stations, units and the reorder buffer empty", func() {
			program := []insts.Instruction{
				load(0, "R1", 0),
				alu(1, insts.OpADD, "R2", "R1", "R1"),
				store(2, "R2", 4),
			}

			state := run(program, nil, map[uint64]int64{0: 7})

			for _, rs := range state.Stations() {
				Expect(rs.Busy).To(BeFalse())
			}
			for _, fu := range state.Units() {
				Expect(fu.Busy).To(BeFalse())
			}
			entries, _, _ := state.ROBSnapshot()
			for _, entry := range entries {
				Expect(entry.Busy).To(BeFalse())
			}
			Expect(state.RATSnapshot()).To(BeEmpty())
			Expect(state.Checkpoints()).To(BeEmpty())
		})

		It("should hold each operation in execute for its full latency", func() {
			program := []insts.Instruction{
				load(0, "R1", 0),
				load(1, "R2", 4),
				alu(2, insts.OpADD, "R3", "R1", "R2"),
				alu(3, insts.OpMUL, "R4", "R3", "R1"),
				alu(4, insts.OpDIV, "R5", "R4", "R2"),
			}
			memory := map[uint64]int64{0: 5, 4: 3}

			state := run(program, nil, memory)

			duration := func(id int) uint64 {
				inst := state.Instruction(id)
				return inst.ExecEndCycle - inst.ExecStartCycle
			}
			Expect(duration(0)).To(Equal(uint64(3)))
			Expect(duration(2)).To(Equal(uint64(2)))
			Expect(duration(3)).To(Equal(uint64(4)))
			Expect(duration(4)).To(Equal(uint64(8)))
		})

		It("should commit in program order even when a younger result is ready first", func() {
			program := []insts.Instruction{
				alu(0, insts.OpMUL, "R1", "R2", "R3"),
				alu(1, insts.OpADD, "R4", "R2", "R3"),
			}
			registers := map[string]int64{"R2": 6, "R3": 7}

			state := run(program, registers, nil)

			first := state.Instruction(0)
			second := state.Instruction(1)
			Expect(second.ExecEndCycle).To(BeNumerically("<", first.ExecEndCycle))
			Expect(second.CommitCycle).To(BeNumerically(">", first.CommitCycle))
		})

		It("should commit a NOP without touching architectural state", func() {
			program := []insts.Instruction{
				{ID: 0, Op: insts.OpNOP},
			}
			registers := map[string]int64{"R1": 9}

			state := run(program, registers, nil)

			Expect(state.Stats().Committed).To(Equal(uint64(1)))
			Expect(state.Registers()).To(Equal(map[string]int64{"R1": 9}))
		})

		It("should keep the zero register hardwired to zero", func() {
			program := []insts.Instruction{
				alu(0, insts.OpADD, "R0", "R1", "R1"),
				alu(1, insts.OpADD, "R5", "R0", "R0"),
			}
			registers := map[string]int64{"R1": 21}

			state := run(program, registers, nil)

			regs := state.Registers()
			Expect(regs).NotTo(HaveKey("R0"))
			Expect(regs["R5"]).To(Equal(int64(0)))
		})
	})

	Describe("register renaming", func() {
		It("should resolve write-after-write through the newest mapping", func() {
			program := []insts.Instruction{
				alu(0, insts.OpADD, "R3", "R1", "R2"),
				alu(1, insts.OpADD, "R3", "R2", "R2"),
				alu(2, insts.OpADD, "R4", "R3", "R0"),
			}
			registers := map[string]int64{"R1": 1, "R2": 2}

			state := run(program, registers, nil)

			regs := state.Registers()
			Expect(regs["R3"]).To(Equal(int64(4)))
			Expect(regs["R4"]).To(Equal(int64(4)))
			Expect(state.RATSnapshot()).To(BeEmpty())
		})
	})

	Describe("hazard accounting", func() {
		It("should count issue stalls when the reorder buffer is small", func() {
			program := []insts.Instruction{
				alu(0, insts.OpADD, "R1", "R9", "R9"),
				alu(1, insts.OpADD, "R2", "R9", "R9"),
				alu(2, insts.OpADD, "R3", "R9", "R9"),
				alu(3, insts.OpADD, "R4", "R9", "R9"),
			}

			state, err := tomasulo.New(program, nil, nil,
				tomasulo.WithROBCapacity(2))
			Expect(err).NotTo(HaveOccurred())

			engine := tomasulo.NewEngine(state)
			for !engine.Done() {
				Expect(engine.Tick()).To(Succeed())
				entries, _, _ := engine.State().ROBSnapshot()
				occupied := 0
				for _, entry := range entries {
					if entry.Busy {
						occupied++
					}
				}
				Expect(occupied).To(BeNumerically("<=", 2))
				Expect(engine.State().Cycle()).To(BeNumerically("<", 1000))
			}

			Expect(engine.Stats().IssueStalls).To(BeNumerically(">", 0))
		})

		It("should count data hazard stalls on a dependent chain", func() {
			program := []insts.Instruction{
				alu(0, insts.OpMUL, "R1", "R2", "R3"),
				alu(1, insts.OpADD, "R4", "R1", "R2"),
			}
			registers := map[string]int64{"R2": 2, "R3": 3}

			state := run(program, registers, nil)

			Expect(state.Stats().DataHazardStalls).To(BeNumerically(">", 0))
		})

		It("should count structural stalls when loads contend for the unit", func() {
			program := []insts.Instruction{
				load(0, "R1", 0),
				load(1, "R2", 4),
			}

			state := run(program, nil, map[uint64]int64{0: 1, 4: 2})

			Expect(state.Stats().StructuralStalls).To(BeNumerically(">", 0))
			Expect(state.Registers()["R2"]).To(Equal(int64(2)))
		})
	})

	Describe("common data bus", func() {
		It("should broadcast at most one result per cycle", func() {
			program := []insts.Instruction{
				alu(0, insts.OpMUL, "R1", "R2", "R3"),
				load(1, "R4", 0),
			}
			registers := map[string]int64{"R2": 6, "R3": 7}

			state, err := tomasulo.New(program, registers, map[uint64]int64{0: 9})
			Expect(err).NotTo(HaveOccurred())

			for !state.Done() {
				next, err := tomasulo.Advance(state)
				Expect(err).NotTo(HaveOccurred())

				prevEntries, _, _ := state.ROBSnapshot()
				nextEntries, _, _ := next.ROBSnapshot()
				turnedReady := 0
				for i := range nextEntries {
					wasReady := prevEntries[i].Busy && prevEntries[i].Ready
					isReady := nextEntries[i].Busy && nextEntries[i].Ready
					if isReady && !wasReady {
						turnedReady++
					}
				}
				Expect(turnedReady).To(BeNumerically("<=", 1))

				state = next
				Expect(state.Cycle()).To(BeNumerically("<", 1000))
			}

			regs := state.Registers()
			Expect(regs["R1"]).To(Equal(int64(42)))
			Expect(regs["R4"]).To(Equal(int64(9)))
		})
	})

	Describe("Advance", func() {
		It("should leave the input state untouched", func() {
			program := []insts.Instruction{
				alu(0, insts.OpADD, "R1", "R2", "R2"),
			}
			registers := map[string]int64{"R2": 3}

			state, err := tomasulo.New(program, registers, nil)
			Expect(err).NotTo(HaveOccurred())

			next, err := tomasulo.Advance(state)
			Expect(err).NotTo(HaveOccurred())

			Expect(state.Cycle()).To(Equal(uint64(0)))
			Expect(next.Cycle()).To(Equal(uint64(1)))
			Expect(state.Instruction(0).State).To(Equal(insts.StateIdle))
			Expect(next.Instruction(0).State).To(Equal(insts.StateIssued))
		})
	})

	Describe("faults", func() {
		It("should fault on division by zero", func() {
			program := []insts.Instruction{
				alu(0, insts.OpDIV, "R1", "R2", "R3"),
			}
			registers := map[string]int64{"R2": 10, "R3": 0}

			state, err := tomasulo.New(program, registers, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = tomasulo.NewEngine(state).Run(100)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("division by zero"))
		})

		It("should fault on a misaligned load", func() {
			program := []insts.Instruction{
				load(0, "R1", 3),
			}

			state, err := tomasulo.New(program, nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = tomasulo.NewEngine(state).Run(100)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("misaligned"))
		})

		It("should allow misaligned accesses when the check is off", func() {
			program := []insts.Instruction{
				load(0, "R1", 3),
			}

			state := run(program, nil, nil,
				tomasulo.WithAlignmentCheck(false))

			Expect(state.Registers()["R1"]).To(Equal(int64(0)))
		})
	})

	Describe("data cache", func() {
		It("should charge miss latency cold and hit latency warm", func() {
			program := []insts.Instruction{
				load(0, "R1", 0),
				load(1, "R2", 0),
			}
			config := cache.DefaultL1DConfig()

			state := run(program, nil, map[uint64]int64{0: 5},
				tomasulo.WithDataCache(config))

			first := state.Instruction(0)
			second := state.Instruction(1)
			Expect(first.ExecEndCycle - first.ExecStartCycle).
				To(Equal(config.MissLatency))
			Expect(second.ExecEndCycle - second.ExecStartCycle).
				To(Equal(config.HitLatency))

			Expect(state.Registers()["R1"]).To(Equal(int64(5)))
			Expect(state.Registers()["R2"]).To(Equal(int64(5)))

			stats := state.DataCache().Stats()
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
		})
	})
})
