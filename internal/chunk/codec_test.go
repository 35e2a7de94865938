package chunk

import (
	"math/big"
	"testing"

	"github.com/uorlab/primeseek/internal/prime"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	factors := []prime.Factor{
		{Prime: int64(OpPush), Exp: ExpOpcode},
		{Prime: prime.Prime(7), Exp: ExpOperand},
	}
	c, err := Encode(factors)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	logical, err := Decode(c)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(logical) != 2 {
		t.Fatalf("got %d logical factors, want 2", len(logical))
	}
	found := map[int64]int{}
	for _, f := range logical {
		found[f.Prime] = f.Exp
	}
	if found[int64(OpPush)] != ExpOpcode {
		t.Errorf("opcode exponent = %d, want %d", found[int64(OpPush)], ExpOpcode)
	}
	if found[prime.Prime(7)] != ExpOperand {
		t.Errorf("operand exponent = %d, want %d", found[prime.Prime(7)], ExpOperand)
	}
}

func TestPushZeroCollapsesOntoOpcodePrime(t *testing.T) {
	// PUSH(0): operand prime == opcode prime == 2, so data is 2^9 and the
	// checksum prime is also 2, giving 2^15 total.
	c := Push(0)
	want := new(big.Int).Lsh(big.NewInt(1), 15)
	if c.Cmp(want) != 0 {
		t.Errorf("Push(0) = %s, want %s", c.String(), want.String())
	}

	inst, err := Parse(c)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if inst.Op != OpPush || !inst.HasOperand || inst.Operand != 0 {
		t.Errorf("Parse(Push(0)) = %+v", inst)
	}
}

func TestDecodeRejectsCorrupt(t *testing.T) {
	c := Push(5)
	// Flipping the low bit breaks the prime-power structure or checksum.
	corrupted := new(big.Int).Add(c, big.NewInt(2))
	if _, err := Decode(corrupted); err == nil {
		// Some corruptions land on other valid values; multiplying by a
		// stray prime must always break the checksum.
		c2 := new(big.Int).Mul(c, big.NewInt(97))
		if _, err := Decode(c2); err == nil {
			t.Error("expected corrupt chunk to fail decode")
		}
	}
}

func TestParseOpcodeOnly(t *testing.T) {
	cases := []struct {
		c    *big.Int
		want Opcode
	}{
		{Add(), OpAdd},
		{Nop(), OpNop},
		{Input(), OpInput},
		{Random(), OpRandom},
		{JumpIfZero(), OpJumpIfZero},
	}
	for _, tc := range cases {
		inst, err := Parse(tc.c)
		if err != nil {
			t.Fatalf("Parse(%s) error: %v", tc.want.Name(), err)
		}
		if inst.Op != tc.want {
			t.Errorf("Parse = %s, want %s", inst.Op.Name(), tc.want.Name())
		}
		if inst.HasOperand {
			t.Errorf("%s should have no operand", tc.want.Name())
		}
	}
}

func TestPushOperand(t *testing.T) {
	for _, idx := range []int{0, 1, 5, 12, 40} {
		got, err := PushOperand(Push(idx))
		if err != nil {
			t.Fatalf("PushOperand(Push(%d)) error: %v", idx, err)
		}
		if got != idx {
			t.Errorf("PushOperand = %d, want %d", got, idx)
		}
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(Push(3)); got != "PUSH (idx: 3)" {
		t.Errorf("Describe(Push(3)) = %q", got)
	}
	if got := Describe(Push(0)); got != "PUSH (idx: 0)" {
		t.Errorf("Describe(Push(0)) = %q", got)
	}
	if got := Describe(Halt()); got != "HALT" {
		t.Errorf("Describe(Halt()) = %q", got)
	}
	if got := Describe(big.NewInt(0)); got != "RAW_ZERO (Error/Corrupt)" {
		t.Errorf("Describe(0) = %q", got)
	}
	if got := Describe(big.NewInt(1)); got != "RAW_ONE (Likely NOP/Data)" {
		t.Errorf("Describe(1) = %q", got)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("expected error for empty factors")
	}
	if _, err := Encode([]prime.Factor{{Prime: 6, Exp: 1}}); err == nil {
		t.Error("expected error for composite prime")
	}
	if _, err := Encode([]prime.Factor{{Prime: 3, Exp: 0}}); err == nil {
		t.Error("expected error for zero exponent")
	}
}
