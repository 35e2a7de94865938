// Package prime maintains the shared, extendable prime table that the UOR
// chunk codec and the VM are built on. Primes are addressed by index: the
// value at index 0 is 2, index 1 is 3, and so on. The table grows on demand
// and is safe for concurrent use.
package prime

import (
	"fmt"
	"math/big"
	"sync"
)

// Factor is a single prime-power component of a factored integer.
type Factor struct {
	Prime int64
	Exp   int
}

var (
	mu     sync.RWMutex
	primes = []int64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47}
	index  = map[int64]int{2: 0, 3: 1, 5: 2, 7: 3, 11: 4, 13: 5, 17: 6, 19: 7, 23: 8, 29: 9, 31: 10, 37: 11, 41: 12, 43: 13, 47: 14}
)

// IsPrime reports whether n is prime by trial division.
func IsPrime(n int64) bool {
	if n < 2 {
		return false
	}
	for d := int64(2); d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func extendLocked(toIndex int) {
	for len(primes) <= toIndex {
		candidate := primes[len(primes)-1] + 2
		for !IsPrime(candidate) {
			candidate += 2
		}
		index[candidate] = len(primes)
		primes = append(primes, candidate)
	}
}

// ExtendTo makes sure the table holds primes up to and including index i.
func ExtendTo(i int) {
	if i < 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	extendLocked(i)
}

// Prime returns the prime at index i, growing the table if needed.
func Prime(i int) int64 {
	if i < 0 {
		return 0
	}
	mu.RLock()
	if i < len(primes) {
		p := primes[i]
		mu.RUnlock()
		return p
	}
	mu.RUnlock()

	mu.Lock()
	extendLocked(i)
	p := primes[i]
	mu.Unlock()
	return p
}

// Index returns the table index of prime p. For primes not yet in the table
// it extends the table, as long as p really is prime; otherwise ok is false.
func Index(p int64) (idx int, ok bool) {
	mu.RLock()
	if i, found := index[p]; found {
		mu.RUnlock()
		return i, true
	}
	mu.RUnlock()

	if !IsPrime(p) {
		return 0, false
	}
	mu.Lock()
	defer mu.Unlock()
	for primes[len(primes)-1] < p {
		extendLocked(len(primes))
	}
	i, found := index[p]
	return i, found
}

// Count returns the number of primes currently in the table.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(primes)
}

// Factorize performs trial division of n against table primes, extending the
// table as required, and returns the prime-power factors in ascending prime
// order. n must be positive.
func Factorize(n *big.Int) ([]Factor, error) {
	if n == nil || n.Sign() <= 0 {
		return nil, fmt.Errorf("prime: cannot factor non-positive value")
	}
	rem := new(big.Int).Set(n)
	one := big.NewInt(1)
	var out []Factor

	for i := 0; rem.Cmp(one) > 0; i++ {
		p := Prime(i)
		pb := big.NewInt(p)

		// Remaining value is prime once p*p exceeds it.
		sq := new(big.Int).Mul(pb, pb)
		if sq.Cmp(rem) > 0 {
			if rem.IsInt64() {
				r := rem.Int64()
				if _, ok := Index(r); ok {
					out = append(out, Factor{Prime: r, Exp: 1})
					return out, nil
				}
			}
			return nil, fmt.Errorf("prime: remainder %s has no table prime factor", rem.String())
		}

		exp := 0
		q, m := new(big.Int), new(big.Int)
		for {
			q.QuoRem(rem, pb, m)
			if m.Sign() != 0 {
				break
			}
			rem.Set(q)
			exp++
		}
		if exp > 0 {
			out = append(out, Factor{Prime: p, Exp: exp})
		}
	}
	return out, nil
}
