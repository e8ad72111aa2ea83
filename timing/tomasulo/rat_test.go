package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/timing/tomasulo"
)

var _ = Describe("RAT", func() {
	var rat *tomasulo.RAT

	BeforeEach(func() {
		rat = tomasulo.NewRAT()
	})

	It("should miss on an unmapped register", func() {
		_, ok := rat.Lookup("R1")
		Expect(ok).To(BeFalse())
	})

	It("should return the newest mapping after an overwrite", func() {
		rat.Set("R1", 3)
		rat.Set("R1", 5)

		idx, ok := rat.Lookup("R1")
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(5))
	})

	It("should never map the zero register", func() {
		rat.Set(emu.ZeroRegister, 3)
		_, ok := rat.Lookup(emu.ZeroRegister)
		Expect(ok).To(BeFalse())
	})

	Describe("ClearIf", func() {
		It("should clear a mapping that still points at the producer", func() {
			rat.Set("R1", 3)
			rat.ClearIf("R1", 3)

			_, ok := rat.Lookup("R1")
			Expect(ok).To(BeFalse())
		})

		It("should keep a mapping renamed by a younger producer", func() {
			rat.Set("R1", 3)
			rat.Set("R1", 5)
			rat.ClearIf("R1", 3)

			idx, ok := rat.Lookup("R1")
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(5))
		})
	})

	Describe("Snapshot and Restore", func() {
		It("should roll back to the snapshot state", func() {
			rat.Set("R1", 1)
			snapshot := rat.Snapshot()

			rat.Set("R1", 2)
			rat.Set("R2", 3)
			rat.Restore(snapshot)

			idx, ok := rat.Lookup("R1")
			Expect(ok).To(BeTrue())
			Expect(idx).To(Equal(1))
			_, ok = rat.Lookup("R2")
			Expect(ok).To(BeFalse())
			Expect(rat.Len()).To(Equal(1))
		})

		It("should not let later writes leak into the snapshot", func() {
			rat.Set("R1", 1)
			snapshot := rat.Snapshot()
			rat.Set("R1", 9)

			Expect(snapshot["R1"]).To(Equal(1))
		})
	})
})
