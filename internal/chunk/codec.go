package chunk

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/uorlab/primeseek/internal/prime"
)

// Exponent conventions shared by the encoder, decoder and the VM's
// BUILD_CHUNK operation.
const (
	ExpOpcode   = 4
	ExpOperand  = 5
	ExpChecksum = 6
)

var (
	ErrCorrupt   = errors.New("chunk: checksum mismatch")
	ErrNotOpcode = errors.New("chunk: no opcode factor")
)

// Encode combines the given prime-power factors into a single chunk value.
// Duplicate primes are merged first. The checksum factor is
// prime(xor(index(p)*exp))^6, multiplied into the product; when the checksum
// prime coincides with a data prime the exponents stack.
func Encode(factors []prime.Factor) (*big.Int, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("chunk: cannot encode empty factor list")
	}

	merged := map[int64]int{}
	var order []int64
	for _, f := range factors {
		if f.Exp <= 0 {
			return nil, fmt.Errorf("chunk: non-positive exponent for prime %d", f.Prime)
		}
		if _, seen := merged[f.Prime]; !seen {
			order = append(order, f.Prime)
		}
		merged[f.Prime] += f.Exp
	}

	xor := 0
	for p, e := range merged {
		idx, ok := prime.Index(p)
		if !ok {
			return nil, fmt.Errorf("chunk: %d is not prime", p)
		}
		xor ^= idx * e
	}
	checksum := prime.Prime(xor)
	if _, seen := merged[checksum]; !seen {
		order = append(order, checksum)
	}
	merged[checksum] += ExpChecksum

	out := big.NewInt(1)
	tmp := new(big.Int)
	for _, p := range order {
		tmp.Exp(big.NewInt(p), big.NewInt(int64(merged[p])), nil)
		out.Mul(out, tmp)
	}
	return out, nil
}

// Decode peels the checksum factor off a chunk and returns the logical
// factors. The checksum candidate is the first factor with exponent >= 6;
// if its prime does not match the XOR of the remaining factors the chunk is
// reported as corrupt.
func Decode(c *big.Int) ([]prime.Factor, error) {
	if c == nil || c.Sign() <= 0 {
		return nil, fmt.Errorf("chunk: cannot decode non-positive value")
	}
	if c.Cmp(big.NewInt(1)) == 0 {
		return nil, fmt.Errorf("chunk: raw one has no factors")
	}
	raw, err := prime.Factorize(c)
	if err != nil {
		return nil, err
	}

	var candidate *prime.Factor
	var rest []prime.Factor
	for i := range raw {
		if raw[i].Exp >= ExpChecksum && candidate == nil {
			candidate = &raw[i]
			continue
		}
		rest = append(rest, raw[i])
	}
	if candidate == nil {
		// No factor can carry a checksum; treat raw factors as logical.
		return raw, nil
	}

	xor := 0
	for _, f := range rest {
		if idx, ok := prime.Index(f.Prime); ok {
			xor ^= idx * f.Exp
		}
	}
	if prime.Prime(xor) != candidate.Prime {
		return nil, fmt.Errorf("%w: value %s", ErrCorrupt, c.String())
	}

	var logical []prime.Factor
	if candidate.Exp > ExpChecksum {
		logical = append(logical, prime.Factor{Prime: candidate.Prime, Exp: candidate.Exp - ExpChecksum})
	}
	logical = append(logical, rest...)
	if len(logical) == 0 {
		return nil, fmt.Errorf("chunk: no logical factors in %s", c.String())
	}
	return logical, nil
}
