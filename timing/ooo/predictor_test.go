package ooo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/o3sim/timing/ooo"
)

var _ = Describe("Predictor", func() {
	var p *ooo.Predictor

	BeforeEach(func() {
		p = ooo.NewPredictor(ooo.PredictorConfig{BHTSize: 16, BTBSize: 4})
	})

	It("should start weakly taken with an empty BTB", func() {
		pred := p.Predict(0x100)
		Expect(pred.Taken).To(BeTrue())
		Expect(pred.TargetKnown).To(BeFalse())
		Expect(p.Stats().BTBMisses).To(Equal(uint64(1)))
	})

	It("should flip to not taken after one not-taken outcome", func() {
		p.Update(0x100, false, 0, false)
		Expect(p.Predict(0x100).Taken).To(BeFalse())
	})

	It("should saturate so one surprise does not flip a strong counter", func() {
		p.Update(0x100, true, 0x200, true)
		p.Update(0x100, true, 0x200, true)
		p.Update(0x100, false, 0, false)

		Expect(p.Predict(0x100).Taken).To(BeTrue())
	})

	It("should remember the target of a taken branch", func() {
		p.Update(0x100, true, 0x240, false)

		pred := p.Predict(0x100)
		Expect(pred.TargetKnown).To(BeTrue())
		Expect(pred.Target).To(Equal(uint64(0x240)))
		Expect(p.Stats().BTBHits).To(Equal(uint64(1)))
	})

	It("should not return the target of an aliasing branch", func() {
		p.Update(0x100, true, 0x240, false)

		// 0x110 maps to the same BTB entry with 4 entries.
		Expect(p.Predict(0x110).TargetKnown).To(BeFalse())
	})

	It("should score the outcome seen at fetch and reset", func() {
		p.Update(0x100, true, 0x200, false)
		p.Update(0x100, false, 0, true)
		p.Update(0x100, true, 0x200, true)
		p.Update(0x100, true, 0x200, true)

		stats := p.Stats()
		Expect(stats.Correct).To(Equal(uint64(3)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Accuracy()).To(BeNumerically("~", 75.0, 0.01))

		p.Reset()
		Expect(p.Stats()).To(Equal(ooo.PredictorStats{}))
		Expect(p.Predict(0x100).TargetKnown).To(BeFalse())
	})

	It("should score a taken branch fetched without a target as mispredicted", func() {
		// The counter predicts taken, but the BTB was empty at fetch.
		p.Update(0x100, true, 0x200, false)

		Expect(p.Stats().Correct).To(BeZero())
		Expect(p.Stats().Mispredictions).To(Equal(uint64(1)))
	})

	DescribeTable("matching a prediction against the resolved branch",
		func(pred ooo.Prediction, taken bool, target uint64, want bool) {
			Expect(pred.Matches(taken, target)).To(Equal(want))
		},
		Entry("not taken, not taken",
			ooo.Prediction{}, false, uint64(0), true),
		Entry("not taken, taken",
			ooo.Prediction{}, true, uint64(0x40), false),
		Entry("taken without a target",
			ooo.Prediction{Taken: true}, true, uint64(0x40), false),
		Entry("taken with the right target",
			ooo.Prediction{Taken: true, Target: 0x40, TargetKnown: true}, true, uint64(0x40), true),
		Entry("taken with a stale target",
			ooo.Prediction{Taken: true, Target: 0x80, TargetKnown: true}, true, uint64(0x40), false),
		Entry("taken, not taken",
			ooo.Prediction{Taken: true, Target: 0x40, TargetKnown: true}, false, uint64(0), false),
	)

	It("should reject table sizes that are not powers of two", func() {
		Expect(ooo.DefaultPredictorConfig().Validate()).To(Succeed())
		Expect(ooo.PredictorConfig{BHTSize: 12, BTBSize: 4}.Validate()).
			To(MatchError(ContainSubstring("bht_size")))
		Expect(ooo.PredictorConfig{BHTSize: 16, BTBSize: 0}.Validate()).
			To(MatchError(ContainSubstring("btb_size")))
	})
})
