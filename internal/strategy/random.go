package strategy

import (
	"math/rand"

	"github.com/uorlab/primeseek/internal/interfaces"
)

// failureRingSize bounds the recent-failure memory shared by the advisors.
const failureRingSize = 8

// failureRing is a fixed-size circular buffer of recently failed guesses.
type failureRing struct {
	values [failureRingSize]int
	count  int
	next   int
}

func (r *failureRing) add(v int) {
	r.values[r.next] = v
	r.next = (r.next + 1) % failureRingSize
	if r.count < failureRingSize {
		r.count++
	}
}

func (r *failureRing) contains(v int) bool {
	for i := 0; i < r.count; i++ {
		if r.values[i] == v {
			return true
		}
	}
	return false
}

// recent returns the buffered failures, oldest first.
func (r *failureRing) recent() []int {
	out := make([]int, 0, r.count)
	if r.count < failureRingSize {
		for i := 0; i < r.count; i++ {
			out = append(out, r.values[i])
		}
		return out
	}
	for i := 0; i < failureRingSize; i++ {
		out = append(out, r.values[(r.next+i)%failureRingSize])
	}
	return out
}

func (r *failureRing) reset() {
	r.count = 0
	r.next = 0
}

// randomAdvisor guesses uniformly, steering away from recent failures.
type randomAdvisor struct {
	rng      *rand.Rand
	failures failureRing
	logger   interfaces.Logger
}

// NewRandom returns the uniform-guess advisor.
func NewRandom(seed int64, logger interfaces.Logger) (interfaces.Advisor, error) {
	return &randomAdvisor{rng: rand.New(rand.NewSource(seed)), logger: logger}, nil
}

func (a *randomAdvisor) Name() string { return "random" }

func (a *randomAdvisor) Next(rangeMax int) int {
	if rangeMax < 0 {
		return 0
	}
	span := rangeMax + 1
	guess := a.rng.Intn(span)
	// Re-roll a few times to dodge values that just failed; give up if the
	// range is saturated.
	for tries := 0; tries < failureRingSize && a.failures.contains(guess); tries++ {
		guess = a.rng.Intn(span)
	}
	return guess
}

func (a *randomAdvisor) Observe(guess int, success bool) {
	if !success {
		a.failures.add(guess)
	}
}

func (a *randomAdvisor) Reset() {
	a.failures.reset()
}
