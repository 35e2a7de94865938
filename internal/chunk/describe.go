package chunk

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/uorlab/primeseek/internal/prime"
)

// Describe renders a chunk as a human-readable mnemonic for state displays
// and disassembly listings. It never fails: corrupt or unrecognized chunks
// are reported inline.
func Describe(c *big.Int) string {
	if c == nil || c.Sign() == 0 {
		return "RAW_ZERO (Error/Corrupt)"
	}
	if c.Cmp(big.NewInt(1)) == 0 {
		return "RAW_ONE (Likely NOP/Data)"
	}
	if c.Sign() < 0 {
		return fmt.Sprintf("INVALID_CHUNK (%s)", c.String())
	}

	logical, err := Decode(c)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			// Show the raw factorization; the checksum did not verify.
			raw, ferr := prime.Factorize(c)
			if ferr != nil {
				return fmt.Sprintf("DECODE_ERR (%s)", c.String())
			}
			return fmt.Sprintf("CORRUPT %s", factorString(raw))
		}
		return fmt.Sprintf("DECODE_ERR (%s)", c.String())
	}

	// PUSH(0) special form.
	if len(logical) == 1 && logical[0].Prime == int64(OpPush) && logical[0].Exp > ExpOperand {
		return "PUSH (idx: 0)"
	}

	if inst, err := Parse(c); err == nil {
		if inst.Op == OpPush {
			return fmt.Sprintf("PUSH (idx: %d)", inst.Operand)
		}
		return inst.Op.Name()
	}

	// Data chunk forms: a single cubed prime, or a position/value pair.
	if len(logical) == 1 && logical[0].Exp == 3 {
		if idx, ok := prime.Index(logical[0].Prime); ok {
			return fmt.Sprintf("DATA_P3 (val_idx:%d)", idx)
		}
		return fmt.Sprintf("DATA_P3_UNKNOWN_P (val:%d)", logical[0].Prime)
	}
	if len(logical) == 2 {
		a, b := logical[0], logical[1]
		var charP, posP int64
		switch {
		case a.Exp == 1 && b.Exp == 2:
			charP, posP = b.Prime, a.Prime
		case a.Exp == 2 && b.Exp == 1:
			charP, posP = a.Prime, b.Prime
		}
		if charP != 0 && posP != 0 {
			charIdx, ok1 := prime.Index(charP)
			posIdx, ok2 := prime.Index(posP)
			if ok1 && ok2 {
				return fmt.Sprintf("DATA_PAIR (pos:%d, val_idx:%d)", posIdx, charIdx)
			}
		}
		return fmt.Sprintf("DATA_PAIR_UNKNOWN_P (p1:%d, p2:%d)", a.Prime, b.Prime)
	}

	return fmt.Sprintf("CHUNK_UNRECOGNIZED (%s)", c.String())
}

func factorString(fs []prime.Factor) string {
	s := ""
	for i, f := range fs {
		if i > 0 {
			s += " * "
		}
		s += fmt.Sprintf("%d^%d", f.Prime, f.Exp)
	}
	return s
}
