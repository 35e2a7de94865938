// Package chunk implements the UOR instruction codec: every instruction or
// datum is a single integer formed as a product of prime powers. The opcode
// prime carries exponent 4, an optional operand prime carries exponent 5,
// raw data uses exponents 1-3, and a checksum factor (exponent 6) binds the
// rest together.
package chunk

import "github.com/uorlab/primeseek/internal/prime"

// Opcode is the prime value identifying an operation.
type Opcode int64

// Opcodes are assigned the first primes in declaration order; OpPush must be
// prime index 0 (the decoder depends on it when opcode and operand collapse
// onto the same prime).
var (
	OpPush        = Opcode(prime.Prime(0))  // 2
	OpAdd         = Opcode(prime.Prime(1))  // 3
	OpPrint       = Opcode(prime.Prime(2))  // 5
	OpHalt        = Opcode(prime.Prime(3))  // 7
	OpJump        = Opcode(prime.Prime(4))  // 11
	OpPokeChunk   = Opcode(prime.Prime(5))  // 13
	OpBuildChunk  = Opcode(prime.Prime(6))  // 17
	OpDup         = Opcode(prime.Prime(7))  // 19
	OpSwap        = Opcode(prime.Prime(8))  // 23
	OpDrop        = Opcode(prime.Prime(9))  // 29
	OpCall        = Opcode(prime.Prime(10)) // 31
	OpReturn      = Opcode(prime.Prime(11)) // 37
	OpPeekChunk   = Opcode(prime.Prime(12)) // 41
	OpFactorize   = Opcode(prime.Prime(13)) // 43
	OpGetPrime    = Opcode(prime.Prime(14)) // 47
	OpGetPrimeIdx = Opcode(prime.Prime(15)) // 53
	OpCompareEq   = Opcode(prime.Prime(16)) // 59
	OpJumpIfZero  = Opcode(prime.Prime(17)) // 61
	OpNop         = Opcode(prime.Prime(18)) // 67
	OpMod         = Opcode(prime.Prime(19)) // 71
	OpSub         = Opcode(prime.Prime(20)) // 73
	OpInput       = Opcode(prime.Prime(21)) // 79
	OpRandom      = Opcode(prime.Prime(22)) // 83
)

// Feedback values use the boolean prime indexes.
const (
	IdxFalse = 0 // failure feedback
	IdxTrue  = 1 // success feedback
)

var opNames = map[Opcode]string{
	OpPush:        "PUSH",
	OpAdd:         "ADD",
	OpPrint:       "PRINT",
	OpHalt:        "HALT",
	OpJump:        "JUMP",
	OpPokeChunk:   "POKE_CHUNK",
	OpBuildChunk:  "BUILD_CHUNK",
	OpDup:         "DUP",
	OpSwap:        "SWAP",
	OpDrop:        "DROP",
	OpCall:        "CALL",
	OpReturn:      "RETURN",
	OpPeekChunk:   "PEEK_CHUNK",
	OpFactorize:   "FACTORIZE",
	OpGetPrime:    "GET_PRIME",
	OpGetPrimeIdx: "GET_PRIME_IDX",
	OpCompareEq:   "COMPARE_EQ",
	OpJumpIfZero:  "JUMP_IF_ZERO",
	OpNop:         "NOP",
	OpMod:         "MOD",
	OpSub:         "SUB",
	OpInput:       "INPUT",
	OpRandom:      "RANDOM",
}

// Name returns the mnemonic for op, or a numeric fallback.
func (op Opcode) Name() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "UNKNOWN_OP"
}

// PrimeIndex returns the prime-table index of the opcode prime.
func (op Opcode) PrimeIndex() int {
	idx, _ := prime.Index(int64(op))
	return idx
}
