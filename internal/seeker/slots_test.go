package seeker

import (
	"math/big"
	"testing"

	"github.com/uorlab/primeseek/internal/chunk"
)

func TestSafeToModify(t *testing.T) {
	p := NewSlotPlanner()
	if p.SafeToModify(AddrMain) {
		t.Error("main address must be protected")
	}
	if !p.SafeToModify(AddrSlot0) || !p.SafeToModify(AddrSlot1) {
		t.Error("slot addresses must be modifiable")
	}
	if p.SafeToModify(99) {
		t.Error("untracked address must not be modifiable")
	}
}

func TestNextTargetWraps(t *testing.T) {
	p := NewSlotPlanner()
	if got := p.NextTarget(AddrSlot0); got == nil || got.Address != AddrSlot1 {
		t.Errorf("after slot0: %+v", got)
	}
	if got := p.NextTarget(AddrSlot1); got == nil || got.Address != AddrSlot0 {
		t.Errorf("after slot1: %+v", got)
	}
	// Unknown address starts from the beginning.
	if got := p.NextTarget(50); got == nil || got.Address != AddrSlot0 {
		t.Errorf("after unknown: %+v", got)
	}
}

func TestSlotsToUpdateRanksWeakest(t *testing.T) {
	p := NewSlotPlanner()
	s0, s1 := p.Slots()[0], p.Slots()[1]
	s0.Record(true)
	s0.Record(true)
	s1.Record(false)
	s1.Record(true)

	picked := p.SlotsToUpdate(0)
	if len(picked) != 1 || picked[0].Address != s1.Address {
		t.Errorf("streak 0 picked %+v, want weakest slot %d", picked, s1.Address)
	}

	picked = p.SlotsToUpdate(2)
	if len(picked) != 2 {
		t.Errorf("streak 2 picked %d slots, want 2", len(picked))
	}

	// Never more slots than exist.
	if got := len(p.SlotsToUpdate(10)); got != 2 {
		t.Errorf("streak 10 picked %d slots", got)
	}
}

func TestSuccessHistoryBounded(t *testing.T) {
	s := NewModSlot(AddrSlot0)
	for i := 0; i < successHistoryCap+5; i++ {
		s.Record(i%2 == 0)
	}
	if len(s.SuccessHistory) != successHistoryCap {
		t.Errorf("history length %d, want %d", len(s.SuccessHistory), successHistoryCap)
	}
}

func TestModificationHistoryRing(t *testing.T) {
	p := NewSlotPlanner()
	for i := 0; i < modificationHistoryCap+7; i++ {
		p.RecordModification(AddrSlot0, chunk.Push(i%5))
	}
	hist := p.History()
	if len(hist) != modificationHistoryCap {
		t.Fatalf("history length %d, want %d", len(hist), modificationHistoryCap)
	}
	if hist[len(hist)-1].Mnemonic == "" {
		t.Error("missing mnemonic on recorded modification")
	}
	if p.Slots()[0].LastInstruction == nil {
		t.Error("slot last instruction not tracked")
	}
}

func TestRewriteOperand(t *testing.T) {
	program := []*big.Int{chunk.Push(9), chunk.Push(3), chunk.Nop(), chunk.Halt()}
	p := NewSlotPlanner()

	out, err := p.RewriteOperand(program, AddrSlot0, 7)
	if err != nil {
		t.Fatalf("RewriteOperand: %v", err)
	}
	if got, _ := chunk.PushOperand(out[AddrSlot0]); got != 7 {
		t.Errorf("operand = %d, want 7", got)
	}
	// Original untouched.
	if got, _ := chunk.PushOperand(program[AddrSlot0]); got != 3 {
		t.Errorf("source mutated: operand = %d", got)
	}

	if _, err := p.RewriteOperand(program, AddrMain, 1); err == nil {
		t.Error("expected refusal for protected address")
	}
	if _, err := p.RewriteOperand(program, AddrSlot1, 1); err == nil {
		t.Error("expected refusal for non-PUSH slot")
	}
}

func TestRewriteJumpTarget(t *testing.T) {
	program := []*big.Int{chunk.Push(9), chunk.Push(0), chunk.Halt()}
	p := NewSlotPlanner()
	out, err := p.RewriteJumpTarget(program, AddrSlot0, 2)
	if err != nil {
		t.Fatalf("RewriteJumpTarget: %v", err)
	}
	if got, _ := chunk.PushOperand(out[AddrSlot0]); got != 2 {
		t.Errorf("target = %d, want 2", got)
	}
	if _, err := p.RewriteJumpTarget(program, AddrSlot0, 40); err == nil {
		t.Error("expected out-of-range refusal")
	}
}
