package insts_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/insts"
)

var _ = Describe("Trace", func() {
	parse := func(text string) ([]insts.Instruction, error) {
		return insts.ParseTrace(strings.NewReader(text))
	}

	Describe("ParseTrace", func() {
		It("should parse an ALU micro-op", func() {
			trace, err := parse("0x1000 alu x3 x1 x2\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(trace).To(HaveLen(1))

			inst := trace[0]
			Expect(inst.PC).To(Equal(uint64(0x1000)))
			Expect(inst.Op).To(Equal(insts.OpALU))
			Expect(inst.Dst).To(Equal(uint8(3)))
			Expect(inst.Srcs).To(Equal([]uint8{1, 2}))
		})

		It("should keep repeated source registers", func() {
			trace, err := parse("0x1000 mul x4 x3 x3")
			Expect(err).NotTo(HaveOccurred())
			Expect(trace[0].Srcs).To(Equal([]uint8{3, 3}))
		})

		It("should parse loads and stores with addresses", func() {
			trace, err := parse(`
				0x1000 load x5 x4 @0x8000
				0x1004 store - x5 x4 @0x8008
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(trace).To(HaveLen(2))

			Expect(trace[0].Op).To(Equal(insts.OpLoad))
			Expect(trace[0].Addr).To(Equal(uint64(0x8000)))
			Expect(trace[1].Op).To(Equal(insts.OpStore))
			Expect(trace[1].HasDst()).To(BeFalse())
			Expect(trace[1].Srcs).To(Equal([]uint8{5, 4}))
		})

		It("should parse branch outcomes and targets", func() {
			trace, err := parse("0x1010 branch - x5 taken ->0x1000")
			Expect(err).NotTo(HaveOccurred())

			inst := trace[0]
			Expect(inst.IsBranch()).To(BeTrue())
			Expect(inst.Taken).To(BeTrue())
			Expect(inst.Target).To(Equal(uint64(0x1000)))
		})

		It("should skip comments and blank lines", func() {
			trace, err := parse("# header\n\n0x1000 nop - # trailing\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(trace).To(HaveLen(1))
			Expect(trace[0].Op).To(Equal(insts.OpNop))
		})

		DescribeTable("should reject malformed lines",
			func(line, message string) {
				_, err := parse("0x1000 nop -\n" + line)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("trace line 2"))
				Expect(err.Error()).To(ContainSubstring(message))
			},
			Entry("too short", "0x1004 alu", "expected at least"),
			Entry("bad pc", "pc alu x1", "bad pc"),
			Entry("unknown op", "0x1004 fma x1 x2", "unknown op"),
			Entry("register out of range", "0x1004 alu x32 x1", "bad register"),
			Entry("not a register", "0x1004 alu x1 r2", "bad register"),
			Entry("too many sources", "0x1004 alu x1 x2 x3 x4 x5", "more than 3"),
			Entry("load without address", "0x1004 load x1 x2", "without @address"),
			Entry("branch without outcome", "0x1004 branch - x1", "without taken"),
			Entry("store with destination", "0x1004 store x1 x2 @0x10", "store with destination"),
		)
	})

	Describe("WriteTrace", func() {
		It("should write what ParseTrace reads", func() {
			text := "0x1000 load x5 x4 @0x8000\n" +
				"0x1004 alu x6 x5 x5\n" +
				"0x1008 branch - x6 nottaken\n" +
				"0x100c store - x6 x4 @0x8008\n"

			trace, err := parse(text)
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(insts.WriteTrace(&buf, trace)).To(Succeed())
			Expect(buf.String()).To(Equal(text))
		})
	})
})
