package tomasulo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/timing/tomasulo"
)

var _ = Describe("Statistics", func() {
	It("should compute IPC", func() {
		stats := tomasulo.Statistics{Cycles: 20, Committed: 6}
		Expect(stats.IPC()).To(BeNumerically("~", 0.3))
	})

	It("should report zero IPC before any cycle runs", func() {
		Expect(tomasulo.Statistics{}.IPC()).To(Equal(0.0))
	})

	It("should compute branch accuracy", func() {
		stats := tomasulo.Statistics{BranchesExecuted: 4, CorrectPredictions: 3}
		Expect(stats.BranchAccuracy()).To(BeNumerically("~", 0.75))
	})

	It("should report full accuracy with no branches", func() {
		Expect(tomasulo.Statistics{}.BranchAccuracy()).To(Equal(1.0))
	})
})
