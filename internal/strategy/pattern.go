package strategy

import (
	"math/rand"

	"github.com/uorlab/primeseek/internal/interfaces"
)

// patternAdvisor extrapolates from the recent failure buffer: when the last
// probes step by a constant delta it continues the arithmetic progression,
// otherwise it falls back to a random guess outside the buffer.
type patternAdvisor struct {
	rng      *rand.Rand
	failures failureRing
	logger   interfaces.Logger
}

// NewPattern returns the extrapolating advisor.
func NewPattern(seed int64, logger interfaces.Logger) (interfaces.Advisor, error) {
	return &patternAdvisor{rng: rand.New(rand.NewSource(seed)), logger: logger}, nil
}

func (a *patternAdvisor) Name() string { return "pattern" }

func (a *patternAdvisor) Next(rangeMax int) int {
	if rangeMax < 0 {
		return 0
	}
	recent := a.failures.recent()
	if delta, ok := constantDelta(recent); ok {
		next := recent[len(recent)-1] + delta
		// Wrap extrapolations back into range instead of clamping, so a
		// rising progression keeps moving.
		span := rangeMax + 1
		next = ((next % span) + span) % span
		if !a.failures.contains(next) {
			return next
		}
	}
	guess := a.rng.Intn(rangeMax + 1)
	for tries := 0; tries < failureRingSize && a.failures.contains(guess); tries++ {
		guess = a.rng.Intn(rangeMax + 1)
	}
	return guess
}

// constantDelta reports the common difference of the last three probes, if
// there is one and it is nonzero.
func constantDelta(vals []int) (int, bool) {
	if len(vals) < 3 {
		return 0, false
	}
	tail := vals[len(vals)-3:]
	d1 := tail[1] - tail[0]
	d2 := tail[2] - tail[1]
	if d1 != d2 || d1 == 0 {
		return 0, false
	}
	return d1, true
}

func (a *patternAdvisor) Observe(guess int, success bool) {
	if !success {
		a.failures.add(guess)
	}
}

func (a *patternAdvisor) Reset() {
	a.failures.reset()
}
