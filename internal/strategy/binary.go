package strategy

import (
	"github.com/uorlab/primeseek/internal/interfaces"
)

// binaryAdvisor enumerates the range in bisection order: it guesses the
// midpoint of the widest unexplored interval, splitting it on failure. With
// equality-only feedback this cannot discard halves, but it spreads probes
// evenly and never repeats a guess until the range is exhausted.
type binaryAdvisor struct {
	rangeMax  int
	intervals []interval
	last      interval
	hasLast   bool
	logger    interfaces.Logger
}

type interval struct{ lo, hi int }

// NewBinary returns the bisection advisor. The seed is unused; the order is
// fully determined by the range.
func NewBinary(_ int64, logger interfaces.Logger) (interfaces.Advisor, error) {
	return &binaryAdvisor{rangeMax: -1, logger: logger}, nil
}

func (a *binaryAdvisor) Name() string { return "binary" }

func (a *binaryAdvisor) Next(rangeMax int) int {
	if rangeMax < 0 {
		return 0
	}
	if rangeMax != a.rangeMax || len(a.intervals) == 0 {
		a.rangeMax = rangeMax
		a.intervals = []interval{{0, rangeMax}}
	}

	// Pop the widest interval and probe its midpoint.
	widest := 0
	for i, iv := range a.intervals {
		if iv.hi-iv.lo > a.intervals[widest].hi-a.intervals[widest].lo {
			widest = i
		}
	}
	iv := a.intervals[widest]
	a.intervals = append(a.intervals[:widest], a.intervals[widest+1:]...)
	a.last = iv
	a.hasLast = true
	return iv.lo + (iv.hi-iv.lo)/2
}

func (a *binaryAdvisor) Observe(guess int, success bool) {
	if success || !a.hasLast {
		a.intervals = nil
		a.hasLast = false
		return
	}
	// The midpoint is spent; keep searching both sides.
	if guess > a.last.lo {
		a.intervals = append(a.intervals, interval{a.last.lo, guess - 1})
	}
	if guess < a.last.hi {
		a.intervals = append(a.intervals, interval{guess + 1, a.last.hi})
	}
	a.hasLast = false
}

func (a *binaryAdvisor) Reset() {
	a.intervals = nil
	a.rangeMax = -1
	a.hasLast = false
}
