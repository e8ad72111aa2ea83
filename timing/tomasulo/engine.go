package tomasulo

// Engine drives a machine state cycle by cycle. It is the mutable
// convenience wrapper for callers that do not need the pure Advance
// form; both share the same per-cycle semantics.
type Engine struct {
	state *State
}

// NewEngine wraps an initial state.
func NewEngine(state *State) *Engine {
	return &Engine{state: state}
}

// State returns the current machine state.
func (e *Engine) State() *State {
	return e.state
}

// Tick applies one clock edge in place.
func (e *Engine) Tick() error {
	return e.state.tick()
}

// Run ticks until the machine drains or maxCycles elapse. Returns true
// if the machine drained.
func (e *Engine) Run(maxCycles uint64) (bool, error) {
	for i := uint64(0); i < maxCycles; i++ {
		if e.state.Done() {
			return true, nil
		}
		if err := e.state.tick(); err != nil {
			return false, err
		}
	}
	return e.state.Done(), nil
}

// Done reports whether the machine has drained.
func (e *Engine) Done() bool {
	return e.state.Done()
}

// Stats returns the per-run counters.
func (e *Engine) Stats() Statistics {
	return e.state.Stats()
}
