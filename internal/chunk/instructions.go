package chunk

import (
	"fmt"
	"math/big"

	"github.com/uorlab/primeseek/internal/prime"
)

func mustEncode(factors []prime.Factor) *big.Int {
	c, err := Encode(factors)
	if err != nil {
		// Constructors only ever pass table primes and positive exponents.
		panic(err)
	}
	return c
}

func opOnly(op Opcode) *big.Int {
	return mustEncode([]prime.Factor{{Prime: int64(op), Exp: ExpOpcode}})
}

// Push encodes PUSH with the prime at operandIdx as its operand.
func Push(operandIdx int) *big.Int {
	return mustEncode([]prime.Factor{
		{Prime: int64(OpPush), Exp: ExpOpcode},
		{Prime: prime.Prime(operandIdx), Exp: ExpOperand},
	})
}

func Add() *big.Int         { return opOnly(OpAdd) }
func Sub() *big.Int         { return opOnly(OpSub) }
func Print() *big.Int       { return opOnly(OpPrint) }
func Halt() *big.Int        { return opOnly(OpHalt) }
func Jump() *big.Int        { return opOnly(OpJump) }
func PokeChunk() *big.Int   { return opOnly(OpPokeChunk) }
func BuildChunk() *big.Int  { return opOnly(OpBuildChunk) }
func Dup() *big.Int         { return opOnly(OpDup) }
func Swap() *big.Int        { return opOnly(OpSwap) }
func Drop() *big.Int        { return opOnly(OpDrop) }
func Call() *big.Int        { return opOnly(OpCall) }
func Return() *big.Int      { return opOnly(OpReturn) }
func PeekChunk() *big.Int   { return opOnly(OpPeekChunk) }
func Factorize() *big.Int   { return opOnly(OpFactorize) }
func GetPrime() *big.Int    { return opOnly(OpGetPrime) }
func GetPrimeIdx() *big.Int { return opOnly(OpGetPrimeIdx) }
func CompareEq() *big.Int   { return opOnly(OpCompareEq) }
func JumpIfZero() *big.Int  { return opOnly(OpJumpIfZero) }
func Nop() *big.Int         { return opOnly(OpNop) }
func Mod() *big.Int         { return opOnly(OpMod) }
func Input() *big.Int       { return opOnly(OpInput) }
func Random() *big.Int      { return opOnly(OpRandom) }

// Instruction is the decoded form of an executable chunk.
type Instruction struct {
	Op Opcode

	// HasOperand is set for PUSH; Operand is the operand's prime index.
	HasOperand bool
	Operand    int
}

// Parse decodes a chunk into an Instruction. The special PUSH(0) form, where
// opcode and operand collapse onto prime 2 with exponent 9, is handled here.
func Parse(c *big.Int) (Instruction, error) {
	logical, err := Decode(c)
	if err != nil {
		return Instruction{}, err
	}

	// PUSH(0): single factor (2, opcode+operand exponents).
	if len(logical) == 1 && logical[0].Prime == int64(OpPush) && logical[0].Exp == ExpOpcode+ExpOperand {
		return Instruction{Op: OpPush, HasOperand: true, Operand: 0}, nil
	}

	var op Opcode
	opSeen := 0
	for _, f := range logical {
		if f.Exp == ExpOpcode {
			op = Opcode(f.Prime)
			opSeen++
		}
	}
	if opSeen == 0 {
		return Instruction{}, fmt.Errorf("%w: %s", ErrNotOpcode, c.String())
	}
	if opSeen > 1 {
		return Instruction{}, fmt.Errorf("chunk: ambiguous opcode in %s", c.String())
	}

	inst := Instruction{Op: op}
	if op == OpPush {
		for _, f := range logical {
			if f.Prime != int64(OpPush) && f.Exp == ExpOperand {
				idx, ok := prime.Index(f.Prime)
				if !ok {
					return Instruction{}, fmt.Errorf("chunk: operand %d not prime", f.Prime)
				}
				inst.HasOperand = true
				inst.Operand = idx
				break
			}
		}
		if !inst.HasOperand {
			return Instruction{}, fmt.Errorf("chunk: PUSH without operand in %s", c.String())
		}
	}
	return inst, nil
}

// PushOperand returns the operand prime index of a PUSH chunk.
func PushOperand(c *big.Int) (int, error) {
	inst, err := Parse(c)
	if err != nil {
		return 0, err
	}
	if inst.Op != OpPush {
		return 0, fmt.Errorf("chunk: %s is not PUSH", inst.Op.Name())
	}
	return inst.Operand, nil
}

// IsOp reports whether the chunk decodes to the given opcode.
func IsOp(c *big.Int, op Opcode) bool {
	inst, err := Parse(c)
	return err == nil && inst.Op == op
}
