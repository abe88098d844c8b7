package flow

import "sync"

// SubmissionGuard enforces at most one in-flight order submission and
// discards responses that arrive after the submission was superseded.
// Each accepted submission is tagged with a generation; invalidating the
// guard bumps the generation so a late response no longer matches.
type SubmissionGuard struct {
	mu         sync.Mutex
	generation uint64
	inFlight   bool
}

// NewSubmissionGuard constructs an idle guard.
func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{}
}

// Begin starts a submission and returns its generation tag. It reports
// false while another submission is in flight.
func (g *SubmissionGuard) Begin() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return 0, false
	}
	g.generation++
	g.inFlight = true
	return g.generation, true
}

// Settle completes the submission with the given tag. It reports false
// for stale tags: responses from a superseded submission must not mutate
// state.
func (g *SubmissionGuard) Settle(generation uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight || generation != g.generation {
		return false
	}
	g.inFlight = false
	return true
}

// Invalidate supersedes any pending submission. The underlying request is
// not cancelled; its eventual response simply fails to settle.
func (g *SubmissionGuard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.inFlight = false
}

// InFlight reports whether a submission is pending.
func (g *SubmissionGuard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}
