package rename_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/insts"
	"github.com/sarchlab/o3sim/timing/rename"
)

var _ = Describe("Rename Table", func() {
	var (
		t   *rename.Table
		seq uint64
	)

	dyn := func(dst uint8, srcs ...uint8) *insts.DynInst {
		seq++
		return insts.NewDynInst(seq, int(seq), &insts.Instruction{
			Op:   insts.OpALU,
			Dst:  dst,
			Srcs: srcs,
		})
	}

	BeforeEach(func() {
		t = rename.NewTable(4, 6)
		seq = 0
	})

	It("should start with an identity mapping of ready registers", func() {
		for arch := uint8(0); arch < 4; arch++ {
			Expect(t.Lookup(arch)).To(Equal(int(arch)))
			Expect(t.IsReady(int(arch))).To(BeTrue())
		}
		Expect(t.FreeCount()).To(Equal(2))
		Expect(t.IsReady(4)).To(BeFalse())
	})

	It("should refuse fewer physical than architectural registers", func() {
		Expect(func() { rename.NewTable(4, 4) }).To(Panic())
	})

	It("should read sources before remapping the destination", func() {
		d := dyn(1, 1, 2)
		Expect(t.Rename(d)).To(Succeed())

		Expect(d.PhysSrcs).To(Equal([]int{1, 2}))
		Expect(d.PhysDst).To(Equal(4))
		Expect(d.PrevPhysDst).To(Equal(1))
		Expect(t.Lookup(1)).To(Equal(4))
		Expect(t.IsReady(4)).To(BeFalse())
	})

	It("should chain consumers onto the newest producer", func() {
		producer := dyn(2, 0)
		consumer := dyn(3, 2, 2)
		Expect(t.Rename(producer)).To(Succeed())
		Expect(t.Rename(consumer)).To(Succeed())

		Expect(consumer.PhysSrcs).To(Equal([]int{producer.PhysDst, producer.PhysDst}))
	})

	It("should report a stall when registers run out", func() {
		Expect(t.Rename(dyn(0))).To(Succeed())
		Expect(t.Rename(dyn(1))).To(Succeed())

		Expect(t.Rename(dyn(2))).To(MatchError(rename.ErrNoFreeReg))

		noDst := dyn(insts.NoReg, 1)
		Expect(t.Rename(noDst)).To(Succeed())
		Expect(noDst.PhysDst).To(Equal(-1))
	})

	It("should free the previous mapping on commit", func() {
		d := dyn(0)
		Expect(t.Rename(d)).To(Succeed())
		t.MarkReady(d.PhysDst)

		t.Commit(d)

		Expect(t.FreeCount()).To(Equal(2))
		Expect(t.IsReady(0)).To(BeFalse())
		Expect(t.Lookup(0)).To(Equal(d.PhysDst))
	})

	It("should restore mappings when rolling back youngest first", func() {
		older := dyn(1)
		younger := dyn(1)
		Expect(t.Rename(older)).To(Succeed())
		Expect(t.Rename(younger)).To(Succeed())
		Expect(t.FreeCount()).To(Equal(0))

		t.Rollback(younger)
		t.Rollback(older)

		Expect(t.Lookup(1)).To(Equal(1))
		Expect(t.FreeCount()).To(Equal(2))
		Expect(t.IsReady(1)).To(BeTrue())
	})

	It("should reset to the initial state", func() {
		Expect(t.Rename(dyn(0))).To(Succeed())
		t.Reset()

		Expect(t.Lookup(0)).To(Equal(0))
		Expect(t.FreeCount()).To(Equal(2))
	})
})
