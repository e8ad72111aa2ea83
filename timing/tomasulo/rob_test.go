package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/timing/tomasulo"
)

var _ = Describe("ROB", func() {
	var rob *tomasulo.ROB

	BeforeEach(func() {
		rob = tomasulo.NewROB(4)
	})

	It("should start empty", func() {
		Expect(rob.Empty()).To(BeTrue())
		Expect(rob.Full()).To(BeFalse())
		Expect(rob.Occupancy()).To(Equal(0))
	})

	It("should allocate entries at consecutive tail slots", func() {
		Expect(rob.Alloc(tomasulo.ROBEntry{InstID: 0})).To(Equal(0))
		Expect(rob.Alloc(tomasulo.ROBEntry{InstID: 1})).To(Equal(1))
		Expect(rob.Occupancy()).To(Equal(2))
		Expect(rob.Head()).To(Equal(0))
		Expect(rob.Tail()).To(Equal(2))
	})

	It("should refuse allocation when full", func() {
		for i := 0; i < 4; i++ {
			Expect(rob.Alloc(tomasulo.ROBEntry{InstID: i})).To(Equal(i))
		}
		Expect(rob.Full()).To(BeTrue())
		Expect(rob.Alloc(tomasulo.ROBEntry{InstID: 4})).To(Equal(-1))
	})

	It("should free slots at the head and reuse them", func() {
		for i := 0; i < 4; i++ {
			rob.Alloc(tomasulo.ROBEntry{InstID: i})
		}
		rob.FreeHead()
		Expect(rob.Full()).To(BeFalse())
		Expect(rob.Head()).To(Equal(1))

		// The freed slot 0 is the new tail.
		Expect(rob.Alloc(tomasulo.ROBEntry{InstID: 4})).To(Equal(0))
		Expect(rob.Full()).To(BeTrue())
	})

	It("should wrap head and tail around the capacity", func() {
		for i := 0; i < 4; i++ {
			rob.Alloc(tomasulo.ROBEntry{InstID: i})
		}
		for i := 0; i < 4; i++ {
			rob.FreeHead()
		}
		Expect(rob.Empty()).To(BeTrue())
		Expect(rob.Head()).To(Equal(0))

		Expect(rob.Alloc(tomasulo.ROBEntry{InstID: 4})).To(Equal(0))
		Expect(rob.HeadEntry().InstID).To(Equal(4))
	})

	It("should rewind the tail past squashed entries", func() {
		for i := 0; i < 4; i++ {
			rob.Alloc(tomasulo.ROBEntry{InstID: i})
		}
		rob.ResetTail(1)

		Expect(rob.Occupancy()).To(Equal(1))
		Expect(rob.Tail()).To(Equal(1))
		Expect(rob.HeadEntry().InstID).To(Equal(0))
		Expect(rob.Entry(1).Busy).To(BeFalse())
		Expect(rob.Entry(3).Busy).To(BeFalse())
	})

	It("should clone without sharing entries", func() {
		rob.Alloc(tomasulo.ROBEntry{InstID: 7})
		clone := rob.Clone()
		rob.HeadEntry().Value = 42

		Expect(clone.HeadEntry().InstID).To(Equal(7))
		Expect(clone.HeadEntry().Value).To(Equal(int64(0)))
	})
})
