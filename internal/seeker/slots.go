package seeker

import (
	"fmt"
	"math/big"

	"github.com/uorlab/primeseek/internal/chunk"
)

const (
	// successHistoryCap bounds the per-slot outcome history.
	successHistoryCap = 10
	// modificationHistoryCap bounds the shared modification ring.
	modificationHistoryCap = 20
)

// ModSlot tracks one program address the seeker is allowed to rewrite,
// together with the outcomes observed after each rewrite.
type ModSlot struct {
	Address         int
	LastInstruction *big.Int
	SuccessHistory  []bool
}

// NewModSlot returns a slot for the given address with empty history.
func NewModSlot(addr int) *ModSlot {
	return &ModSlot{Address: addr}
}

// Record appends an outcome, keeping only the most recent entries.
func (s *ModSlot) Record(success bool) {
	s.SuccessHistory = append(s.SuccessHistory, success)
	if len(s.SuccessHistory) > successHistoryCap {
		s.SuccessHistory = s.SuccessHistory[len(s.SuccessHistory)-successHistoryCap:]
	}
}

// RecentSuccesses counts successes in the last n recorded outcomes.
func (s *ModSlot) RecentSuccesses(n int) int {
	hist := s.SuccessHistory
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	count := 0
	for _, ok := range hist {
		if ok {
			count++
		}
	}
	return count
}

// Modification is one recorded rewrite of a slot address.
type Modification struct {
	Address  int
	Chunk    *big.Int
	Mnemonic string
}

// SlotPlanner owns the slot set and a ring of recent modifications. It is
// host-side bookkeeping that mirrors what the generated program does to
// itself, so sessions can report and rank slots.
type SlotPlanner struct {
	slots     []*ModSlot
	protected map[int]bool
	history   []Modification
}

// NewSlotPlanner builds a planner over the standard slot addresses, with
// the self-modified main address protected from planning.
func NewSlotPlanner() *SlotPlanner {
	return &SlotPlanner{
		slots:     []*ModSlot{NewModSlot(AddrSlot0), NewModSlot(AddrSlot1)},
		protected: map[int]bool{AddrMain: true},
	}
}

// Slots returns the tracked slots in address order.
func (p *SlotPlanner) Slots() []*ModSlot { return p.slots }

// SafeToModify reports whether an address may be rewritten: it must be a
// tracked slot and not protected.
func (p *SlotPlanner) SafeToModify(addr int) bool {
	if p.protected[addr] {
		return false
	}
	for _, s := range p.slots {
		if s.Address == addr {
			return true
		}
	}
	return false
}

// NextTarget picks the slot after the given address, wrapping around and
// skipping protected addresses.
func (p *SlotPlanner) NextTarget(after int) *ModSlot {
	if len(p.slots) == 0 {
		return nil
	}
	start := 0
	for i, s := range p.slots {
		if s.Address == after {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(p.slots); i++ {
		s := p.slots[(start+i)%len(p.slots)]
		if !p.protected[s.Address] {
			return s
		}
	}
	return nil
}

// SlotsToUpdate ranks slots by fewest recent successes and returns the
// 1 + failureStreak/2 weakest, capped at the slot count. Longer failure
// streaks justify touching more of the program at once.
func (p *SlotPlanner) SlotsToUpdate(failureStreak int) []*ModSlot {
	n := 1 + failureStreak/2
	if n > len(p.slots) {
		n = len(p.slots)
	}
	ranked := make([]*ModSlot, len(p.slots))
	copy(ranked, p.slots)
	// Insertion sort; the slot set is tiny.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0; j-- {
			if ranked[j].RecentSuccesses(successHistoryCap) < ranked[j-1].RecentSuccesses(successHistoryCap) {
				ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
			}
		}
	}
	return ranked[:n]
}

// RecordModification notes a rewrite in the shared ring and on the slot.
func (p *SlotPlanner) RecordModification(addr int, c *big.Int) {
	p.history = append(p.history, Modification{
		Address:  addr,
		Chunk:    new(big.Int).Set(c),
		Mnemonic: chunk.Describe(c),
	})
	if len(p.history) > modificationHistoryCap {
		p.history = p.history[len(p.history)-modificationHistoryCap:]
	}
	for _, s := range p.slots {
		if s.Address == addr {
			s.LastInstruction = new(big.Int).Set(c)
		}
	}
}

// History returns the recorded modifications, oldest first.
func (p *SlotPlanner) History() []Modification { return p.history }

// RewriteOperand returns a copy of the program with the PUSH operand at
// addr replaced. It refuses protected addresses and non-PUSH chunks.
func (p *SlotPlanner) RewriteOperand(program []*big.Int, addr, operand int) ([]*big.Int, error) {
	if addr < 0 || addr >= len(program) {
		return nil, fmt.Errorf("seeker: address %d out of range", addr)
	}
	if !p.SafeToModify(addr) {
		return nil, fmt.Errorf("seeker: address %d is not a modifiable slot", addr)
	}
	if _, err := chunk.PushOperand(program[addr]); err != nil {
		return nil, fmt.Errorf("seeker: address %d does not hold a PUSH: %w", addr, err)
	}
	out := make([]*big.Int, len(program))
	copy(out, program)
	out[addr] = chunk.Push(operand)
	p.RecordModification(addr, out[addr])
	return out, nil
}

// RewriteJumpTarget returns a copy of the program with the PUSH at addr
// retargeted to a new jump destination inside the program.
func (p *SlotPlanner) RewriteJumpTarget(program []*big.Int, addr, target int) ([]*big.Int, error) {
	if target < 0 || target >= len(program) {
		return nil, fmt.Errorf("seeker: jump target %d out of range", target)
	}
	return p.RewriteOperand(program, addr, target)
}
