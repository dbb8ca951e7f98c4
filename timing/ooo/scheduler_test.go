package ooo_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/cache"
	"github.com/sarchlab/o3sim/timing/depgraph"
	"github.com/sarchlab/o3sim/timing/ooo"
)

func parse(text string) []insts.Instruction {
	trace, err := insts.ParseTrace(strings.NewReader(text))
	Expect(err).NotTo(HaveOccurred())
	return trace
}

func dump(s *ooo.Scheduler) string {
	var buf bytes.Buffer
	s.DumpDependencies(&buf)
	return buf.String()
}

var _ = Describe("Scheduler", func() {
	var config ooo.Config

	BeforeEach(func() {
		config = ooo.DefaultConfig()
	})

	Describe("Config", func() {
		It("should accept the default config", func() {
			Expect(config.Validate()).To(Succeed())
		})

		It("should reject too few physical registers", func() {
			config.NumPhysRegs = insts.NumArchRegs
			Expect(config.Validate()).To(MatchError(ContainSubstring("num_phys_regs")))
		})

		It("should reject an unknown retract policy", func() {
			config.RetractPolicy = "sometimes"
			Expect(config.Validate()).To(MatchError(ContainSubstring("retract_policy")))
		})

		It("should reject a fetch queue narrower than fetch", func() {
			config.FetchQueueSize = 2
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	It("should commit an independent trace", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 alu x1 x2
			0x4 alu x3 x4
			0x8 alu x5 x6
			0xc alu x7 x8
		`))

		Expect(s.Run(0)).To(BeTrue())

		stats := s.Stats()
		Expect(stats.Instructions).To(Equal(uint64(4)))
		Expect(stats.Wakeups).To(BeZero())
		Expect(stats.CPI()).To(BeNumerically(">", 0))
		Expect(s.InFlight()).To(BeZero())
	})

	It("should wake a consumer when its producer writes back", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 mul x1 x2
			0x4 alu x3 x1
		`))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().Wakeups).To(Equal(uint64(1)))
		Expect(s.DependencyStats().NodesRemoved).To(Equal(uint64(1)))
	})

	It("should wake a consumer once per duplicate operand", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 mul x1 x2
			0x4 alu x3 x1 x1
		`))

		// Fetch, then dispatch.
		s.Tick()
		s.Tick()
		Expect(dump(s)).To(ContainSubstring("[sn:1] alu p32x2"))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().Wakeups).To(Equal(uint64(2)))
		Expect(s.DependencyStats().NodesRemoved).To(Equal(uint64(2)))
		Expect(dump(s)).To(ContainSubstring("0 occupied"))
	})

	It("should hold dispatch rather than exceed the reservation stations", func() {
		config.NumReservationStations = 2
		s := ooo.NewScheduler(config, parse(`
			0x0 div x1 x1
			0x4 div x1 x1
			0x8 div x1 x1
			0xc div x1 x1
			0x10 div x1 x1
			0x14 div x1 x1
		`))

		Expect(s.Run(0)).To(BeTrue())

		stats := s.Stats()
		Expect(stats.Instructions).To(Equal(uint64(6)))
		Expect(stats.StationFullStalls).To(BeNumerically(">", 0))
		Expect(stats.PeakTracked).To(BeNumerically("<=", 2))
	})

	It("should stall dispatch on a full ROB", func() {
		config.ROBSize = 2
		s := ooo.NewScheduler(config, parse(`
			0x0 div x1 x2
			0x4 alu x3 x4
			0x8 alu x5 x6
			0xc alu x7 x8
		`))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().ROBFullStalls).To(BeNumerically(">", 0))
		Expect(s.Stats().Instructions).To(Equal(uint64(4)))
	})

	It("should stall dispatch when no physical register is free", func() {
		config.NumPhysRegs = insts.NumArchRegs + 2
		s := ooo.NewScheduler(config, parse(`
			0x0 div x1 x2
			0x4 alu x3 x4
			0x8 alu x5 x6
			0xc alu x7 x8
		`))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().RegisterFullStalls).To(BeNumerically(">", 0))
		Expect(s.Stats().Instructions).To(Equal(uint64(4)))
	})

	It("should flush on a taken branch whose target is not in the BTB", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 alu x1 x2
			0x4 branch - x1 taken ->0x40
			0x40 alu x3 x1
		`))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().Flushes).To(Equal(uint64(1)))
		Expect(s.Stats().Branches).To(Equal(uint64(1)))
		Expect(s.PredictorStats().Correct).To(BeZero())
		Expect(s.PredictorStats().Mispredictions).To(Equal(uint64(1)))
	})

	It("should not flush once the BTB holds the taken target", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 alu x1 x2
			0x4 branch - x1 taken ->0x0
			0x0 alu x1 x2
			0x4 branch - x1 taken ->0x0
			0x0 alu x3 x1
		`))

		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats().Flushes).To(Equal(uint64(1)))
		Expect(s.Stats().Branches).To(Equal(uint64(2)))

		pred := s.PredictorStats()
		Expect(pred.Correct).To(Equal(uint64(1)))
		Expect(pred.Mispredictions).To(Equal(uint64(1)))
		Expect(pred.BTBHits).To(Equal(uint64(1)))
	})

	DescribeTable("squashing the wrong path of a mispredicted branch",
		func(policy depgraph.RetractPolicy) {
			config.RetractPolicy = policy
			s := ooo.NewScheduler(config, parse(`
				0x0 alu x1 x0
				0x4 branch - x1 nottaken
				0x8 div x6 x2
				0xc alu x7 x6 x6
				0x10 alu x8 x7
				0x14 alu x9 x8
			`))

			Expect(s.Run(0)).To(BeTrue())

			stats := s.Stats()
			Expect(stats.Flushes).To(Equal(uint64(1)))
			Expect(stats.Squashed).To(Equal(uint64(4)))
			Expect(stats.Fetched).To(Equal(uint64(10)))
			Expect(stats.Instructions).To(Equal(uint64(6)))
			Expect(stats.FetchStallCycles).To(Equal(uint64(12)))
			Expect(dump(s)).To(ContainSubstring("0 occupied"))
		},
		Entry("clearing the slot on retract", depgraph.RetractClearSlot),
		Entry("removing pending operands before retract", depgraph.RetractKeepCounters),
	)

	It("should time memory ops with the data cache", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 load x1 x2 @0x1000
			0x4 load x3 x2 @0x1008
			0x8 store - x1 @0x2000
		`), ooo.WithDCache(cache.DefaultL1DConfig()))

		Expect(s.Run(0)).To(BeTrue())

		stats := s.DCache().Stats()
		Expect(stats.Reads).To(Equal(uint64(2)))
		Expect(stats.Writes).To(Equal(uint64(1)))
		Expect(stats.Hits).To(Equal(uint64(1)))
	})

	It("should stop at the cycle limit", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 div x1 x1
			0x4 div x1 x1
		`))

		Expect(s.Run(3)).To(BeFalse())
		Expect(s.Stats().Cycles).To(Equal(uint64(3)))
		Expect(s.Done()).To(BeFalse())
	})

	It("should replay identically after reset", func() {
		s := ooo.NewScheduler(config, parse(`
			0x0 alu x1 x0
			0x4 branch - x1 nottaken
			0x8 mul x2 x1
			0xc alu x3 x2 x1
		`))

		Expect(s.Run(0)).To(BeTrue())
		first := s.Stats()

		s.Reset()
		Expect(s.Stats()).To(Equal(ooo.Statistics{}))
		Expect(s.Run(0)).To(BeTrue())
		Expect(s.Stats()).To(Equal(first))
	})
})
