package tomasulo

// Predictor provides branch direction predictions. Implementations are
// consulted at issue and trained at commit with the actual outcome.
type Predictor interface {
	// Predict returns the predicted direction for the branch at pc.
	Predict(pc int) bool
	// Update trains the predictor with the actual outcome.
	Update(pc int, taken bool)
	// Clone returns an independent copy of the predictor state.
	Clone() Predictor
}

// AlwaysTaken is a fixed always-taken policy.
type AlwaysTaken struct{}

// Predict always returns taken.
func (AlwaysTaken) Predict(int) bool { return true }

// Update is a no-op for the fixed policy.
func (AlwaysTaken) Update(int, bool) {}

// Clone returns the policy itself; it carries no state.
func (p AlwaysTaken) Clone() Predictor { return p }

// AlwaysNotTaken is a fixed always-not-taken policy.
type AlwaysNotTaken struct{}

// Predict always returns not taken.
func (AlwaysNotTaken) Predict(int) bool { return false }

// Update is a no-op for the fixed policy.
func (AlwaysNotTaken) Update(int, bool) {}

// Clone returns the policy itself; it carries no state.
func (p AlwaysNotTaken) Clone() Predictor { return p }

// 2-bit saturating counter states.
const (
	StronglyNotTaken uint8 = 0
	WeaklyNotTaken   uint8 = 1
	WeaklyTaken      uint8 = 2
	StronglyTaken    uint8 = 3
)

// BimodalPredictor keeps a per-PC table of 2-bit saturating counters.
// A branch is predicted taken iff the counter's high bit is set.
// Counters start at weakly-not-taken.
type BimodalPredictor struct {
	counters map[int]uint8
}

// NewBimodalPredictor creates an empty bimodal predictor.
func NewBimodalPredictor() *BimodalPredictor {
	return &BimodalPredictor{counters: make(map[int]uint8)}
}

// Counter returns the 2-bit counter state for pc.
func (p *BimodalPredictor) Counter(pc int) uint8 {
	if c, ok := p.counters[pc]; ok {
		return c
	}
	return WeaklyNotTaken
}

// Predict returns taken iff the counter's high bit is set.
func (p *BimodalPredictor) Predict(pc int) bool {
	return p.Counter(pc) >= WeaklyTaken
}

// Update moves the counter one step toward the actual outcome,
// saturating at the range ends.
func (p *BimodalPredictor) Update(pc int, taken bool) {
	c := p.Counter(pc)
	if taken {
		if c < StronglyTaken {
			c++
		}
	} else {
		if c > StronglyNotTaken {
			c--
		}
	}
	p.counters[pc] = c
}

// Clone returns an independent copy of the predictor.
func (p *BimodalPredictor) Clone() Predictor {
	counters := make(map[int]uint8, len(p.counters))
	for pc, c := range p.counters {
		counters[pc] = c
	}
	return &BimodalPredictor{counters: counters}
}
