package ooo

import "fmt"

// PredictorConfig sizes the branch predictor tables.
type PredictorConfig struct {
	// BHTSize is the number of 2-bit counters. Must be a power of 2.
	BHTSize uint32 `json:"bht_size"`
	// BTBSize is the number of branch target entries. Must be a power of 2.
	BTBSize uint32 `json:"btb_size"`
}

// DefaultPredictorConfig returns a 1024-counter, 256-target predictor.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		BHTSize: 1024,
		BTBSize: 256,
	}
}

// Validate checks that both tables are non-empty powers of two.
func (c PredictorConfig) Validate() error {
	if c.BHTSize == 0 || c.BHTSize&(c.BHTSize-1) != 0 {
		return fmt.Errorf("predictor.bht_size must be a power of 2, got %d", c.BHTSize)
	}
	if c.BTBSize == 0 || c.BTBSize&(c.BTBSize-1) != 0 {
		return fmt.Errorf("predictor.btb_size must be a power of 2, got %d", c.BTBSize)
	}
	return nil
}

// PredictorStats holds statistics for the branch predictor.
type PredictorStats struct {
	Predictions uint64
	// Correct and Mispredictions score the fetch-time prediction of each
	// committed branch.
	Correct        uint64
	Mispredictions uint64
	BTBHits        uint64
	BTBMisses      uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s PredictorStats) Accuracy() float64 {
	total := s.Correct + s.Mispredictions
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total) * 100
}

// Prediction represents a branch prediction result.
type Prediction struct {
	Taken       bool
	Target      uint64
	TargetKnown bool
}

// Matches reports whether fetch would have followed the resolved path. A
// taken prediction is only right when the BTB also supplied the target.
func (p Prediction) Matches(taken bool, target uint64) bool {
	if !p.Taken {
		return !taken
	}
	return taken && p.TargetKnown && p.Target == target
}

// counter is a 2-bit saturating counter; 2 and 3 predict taken.
type counter uint8

const weaklyTaken counter = 2

func (c counter) taken() bool {
	return c >= 2
}

func (c counter) train(taken bool) counter {
	switch {
	case taken && c < 3:
		return c + 1
	case !taken && c > 0:
		return c - 1
	default:
		return c
	}
}

type btbEntry struct {
	valid  bool
	pc     uint64
	target uint64
}

// Predictor is a bimodal direction predictor with a branch target buffer.
type Predictor struct {
	bht   []counter
	btb   []btbEntry
	stats PredictorStats
}

// NewPredictor creates a predictor. The configuration must be valid.
func NewPredictor(config PredictorConfig) *Predictor {
	p := &Predictor{
		bht: make([]counter, config.BHTSize),
		btb: make([]btbEntry, config.BTBSize),
	}
	p.Reset()
	return p
}

func (p *Predictor) bhtIndex(pc uint64) int {
	return int((pc >> 2) & uint64(len(p.bht)-1))
}

func (p *Predictor) btbIndex(pc uint64) int {
	return int((pc >> 2) & uint64(len(p.btb)-1))
}

// Predict returns the direction and, if known, the target for pc.
func (p *Predictor) Predict(pc uint64) Prediction {
	p.stats.Predictions++

	pred := Prediction{Taken: p.bht[p.bhtIndex(pc)].taken()}

	entry := p.btb[p.btbIndex(pc)]
	if entry.valid && entry.pc == pc {
		pred.Target = entry.target
		pred.TargetKnown = true
		p.stats.BTBHits++
	} else {
		p.stats.BTBMisses++
	}

	return pred
}

// Update trains the predictor with a resolved branch. correct is the outcome
// of the prediction made when the branch was fetched.
func (p *Predictor) Update(pc uint64, taken bool, target uint64, correct bool) {
	if correct {
		p.stats.Correct++
	} else {
		p.stats.Mispredictions++
	}

	i := p.bhtIndex(pc)
	p.bht[i] = p.bht[i].train(taken)

	if taken {
		p.btb[p.btbIndex(pc)] = btbEntry{valid: true, pc: pc, target: target}
	}
}

// Stats returns the predictor statistics.
func (p *Predictor) Stats() PredictorStats {
	return p.stats
}

// Reset sets every counter to weakly taken and empties the BTB.
func (p *Predictor) Reset() {
	for i := range p.bht {
		p.bht[i] = weaklyTaken
	}
	clear(p.btb)
	p.stats = PredictorStats{}
}
