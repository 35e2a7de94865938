package teacher

import (
	"math/rand"
)

// Sequence kinds used for sequence-type goals.
const (
	SeqArithmetic = "arithmetic"
	SeqGeometric  = "geometric"
	SeqFibonacci  = "fibonacci"
	SeqPrimes     = "primes"
)

var seqKinds = []string{SeqArithmetic, SeqGeometric, SeqFibonacci, SeqPrimes}

// smallPrimes feeds the primes sequence; targets are small so a static
// table is plenty.
var smallPrimes = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43}

// SequenceGenerator walks a family of integer sequences, handing out the
// next element as a goal target. When a sequence runs past the target range
// it wraps and a new sequence kind is started.
type SequenceGenerator struct {
	rng  *rand.Rand
	kind string
	pos  int
	a    int // first term
	d    int // step or ratio
}

// NewSequenceGenerator seeds the generator.
func NewSequenceGenerator(seed int64) *SequenceGenerator {
	g := &SequenceGenerator{rng: rand.New(rand.NewSource(seed))}
	g.restart()
	return g
}

func (g *SequenceGenerator) restart() {
	g.kind = seqKinds[g.rng.Intn(len(seqKinds))]
	g.pos = 0
	g.a = g.rng.Intn(4)
	g.d = 1 + g.rng.Intn(3)
}

// Kind returns the active sequence kind.
func (g *SequenceGenerator) Kind() string { return g.kind }

// Next produces the next sequence element folded into [0, rangeMax].
func (g *SequenceGenerator) Next(rangeMax int) int {
	if rangeMax < 1 {
		return 0
	}
	v := g.term(g.pos)
	g.pos++
	if g.pos >= 6 || v > 4*rangeMax {
		g.restart()
	}
	return v % (rangeMax + 1)
}

func (g *SequenceGenerator) term(n int) int {
	switch g.kind {
	case SeqArithmetic:
		return g.a + n*g.d
	case SeqGeometric:
		v := g.a + 1
		for i := 0; i < n; i++ {
			v *= g.d + 1
		}
		return v
	case SeqFibonacci:
		x, y := 1, 1
		for i := 0; i < n; i++ {
			x, y = y, x+y
		}
		return x
	case SeqPrimes:
		return smallPrimes[n%len(smallPrimes)]
	}
	return g.a
}
