// Package seeker generates the self-modifying goal-seeker chunk program and
// provides the host-side utilities for reasoning about its modification
// slots.
//
// The generated program loops forever: it pushes the current attempt value
// (address 0, rewritten by the program itself), routes it through two
// modification slots, prints the attempt, and asks the host for feedback.
// On failure it bumps its failure counter, possibly prints the stuck signal,
// derives the next attempt by a randomized modular step, rewrites address 0
// and both slots, and loops. On success it asks the host for a fresh probe
// value and loops; the slots keep whatever instructions the last failure
// wrote into them.
package seeker

import (
	"fmt"
	"math/big"

	"github.com/uorlab/primeseek/internal/chunk"
)

// Well-known program addresses.
const (
	AddrMain  = 0 // self-modified PUSH of the current attempt
	AddrSlot0 = 1 // modification slot 0
	AddrSlot1 = 2 // modification slot 1
)

// Instruction-type decision values carried on the VM stack, matching the
// uor_decision_build_* configuration indexes.
const (
	DecisionPush = 0
	DecisionAdd  = 1
	DecisionNop  = 2
)

// Config are the generation knobs, all expressed as prime indexes like the
// vm.indices configuration block.
type Config struct {
	// InitialAttempt seeds the PUSH at address 0. The session overwrites
	// it before the first step.
	InitialAttempt int

	// AttemptModulus bounds the search ring for the next-attempt step.
	AttemptModulus int

	// AttemptIncrement is added on top of the random offset; must be >= 1
	// so a failed value is never immediately retried.
	AttemptIncrement int

	// RandomOffsetMax is the exclusive bound for the random offset.
	RandomOffsetMax int

	// MaxFailuresBeforeStuck triggers the stuck signal when the session
	// failure counter reaches it exactly.
	MaxFailuresBeforeStuck int

	// StuckSignalValue is printed as the stuck signal.
	StuckSignalValue int
}

// DefaultConfig mirrors the shipped configuration file.
func DefaultConfig() Config {
	return Config{
		InitialAttempt:         1,
		AttemptModulus:         10,
		AttemptIncrement:       1,
		RandomOffsetMax:        3,
		MaxFailuresBeforeStuck: 3,
		StuckSignalValue:       99,
	}
}

func (c Config) validate() error {
	if c.InitialAttempt <= 0 {
		return fmt.Errorf("seeker: initial attempt must be positive")
	}
	if c.AttemptIncrement < 1 {
		return fmt.Errorf("seeker: attempt increment must be >= 1")
	}
	if c.AttemptModulus <= c.RandomOffsetMax-1+c.AttemptIncrement {
		// Otherwise the modular step could wrap onto the failed value and
		// retry it, which the avoid-retry rule forbids.
		return fmt.Errorf("seeker: modulus %d too small for offset range [%d,%d]",
			c.AttemptModulus, c.AttemptIncrement, c.RandomOffsetMax-1+c.AttemptIncrement)
	}
	if c.RandomOffsetMax < 1 {
		return fmt.Errorf("seeker: random offset max must be >= 1")
	}
	if c.MaxFailuresBeforeStuck < 1 {
		return fmt.Errorf("seeker: max failures before stuck must be >= 1")
	}
	return nil
}

// Program is a generated goal-seeker with its label table.
type Program struct {
	Chunks []*big.Int
	Labels map[string]int
}

// assembler collects chunks and resolves label placeholders, the way the
// original generator script did.
type assembler struct {
	chunks       []*big.Int
	labels       map[string]int
	placeholders []placeholder
}

type placeholder struct {
	addr  int
	label string
}

func (a *assembler) emit(c *big.Int) {
	a.chunks = append(a.chunks, c)
}

func (a *assembler) label(name string) {
	a.labels[name] = len(a.chunks)
}

// emitJumpPlaceholder appends a placeholder PUSH for a label and records it
// for later resolution.
func (a *assembler) emitJumpPlaceholder(label string) {
	a.chunks = append(a.chunks, chunk.Push(0))
	a.placeholders = append(a.placeholders, placeholder{addr: len(a.chunks) - 1, label: label})
}

func (a *assembler) resolve() error {
	for _, ph := range a.placeholders {
		target, ok := a.labels[ph.label]
		if !ok {
			return fmt.Errorf("seeker: undefined label %q", ph.label)
		}
		a.chunks[ph.addr] = chunk.Push(target)
	}
	return nil
}

// validateResolved makes sure no placeholder PUSH(0) survived resolution at
// a recorded placeholder address.
func (a *assembler) validateResolved() error {
	var unresolved []int
	for _, ph := range a.placeholders {
		operand, err := chunk.PushOperand(a.chunks[ph.addr])
		if err != nil || (operand == 0 && a.labels[ph.label] != 0) {
			unresolved = append(unresolved, ph.addr)
		}
	}
	if len(unresolved) > 0 {
		return fmt.Errorf("seeker: unresolved placeholders at %v", unresolved)
	}
	return nil
}

// Generate assembles the goal-seeker program.
func Generate(cfg Config) (*Program, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &assembler{labels: map[string]int{}}

	// The stack carry convention between iterations, bottom first:
	//   [sfc, lastPoked, lastSlot, lastInstrType]
	// Address 0 pushes the attempt on top of the carry.

	a.label("MAIN_EXECUTION_LOOP_START")
	a.emit(chunk.Push(cfg.InitialAttempt)) // 0: rewritten by host and by the program itself
	if len(a.chunks)-1 != AddrMain {
		return nil, fmt.Errorf("seeker: main loop address mismatch")
	}

	a.label("MODIFICATION_SLOT_0")
	a.emit(chunk.Nop()) // 1
	a.label("MODIFICATION_SLOT_1")
	a.emit(chunk.Nop()) // 2
	if a.labels["MODIFICATION_SLOT_0"] != AddrSlot0 || a.labels["MODIFICATION_SLOT_1"] != AddrSlot1 {
		return nil, fmt.Errorf("seeker: slot address mismatch")
	}

	// Print the attempt and fetch feedback.
	a.emit(chunk.Dup())
	a.emit(chunk.Print())
	a.label("REQUEST_FEEDBACK")
	a.emit(chunk.Input())
	a.emit(chunk.Push(chunk.IdxTrue))
	a.emit(chunk.CompareEq())
	a.emitJumpPlaceholder("HANDLE_FAILURE")
	a.emit(chunk.Swap())
	a.emit(chunk.JumpIfZero())

	// Success: clear the whole stack, fetch a fresh probe, rebuild address
	// 0, and restart with default slot bookkeeping.
	a.label("HANDLE_SUCCESS")
	a.emit(chunk.Drop()) // attempt
	a.emit(chunk.Drop()) // lastInstrType
	a.emit(chunk.Drop()) // lastSlot
	a.emit(chunk.Drop()) // lastPoked
	a.emit(chunk.Drop()) // sfc
	a.label("REQUEST_PROBE")
	a.emit(chunk.Input())
	a.emit(chunk.Push(0)) // reset failure counter
	a.emit(chunk.Swap())  // [sfc'=0, probe]
	a.emit(chunk.Dup())   // [sfc', probe(lastPoked'), probe(operand)]
	a.emitJumpPlaceholder("BUILD_AND_POKE_ADDR_0")
	a.emit(chunk.Call())             // pokes PUSH(probe) into address 0
	a.emit(chunk.Push(AddrSlot0))    // default lastSlot
	a.emit(chunk.Push(DecisionNop))  // default lastInstrType
	a.emit(chunk.Push(AddrMain))
	a.emit(chunk.Jump())

	// Failure: bump the counter, maybe print the stuck signal.
	a.label("HANDLE_FAILURE")
	a.emit(chunk.Drop()) // attempt
	a.emit(chunk.Drop()) // lastInstrType
	a.emit(chunk.Drop()) // lastSlot
	a.emit(chunk.Swap()) // [lastPoked, sfc]
	a.emit(chunk.Push(1))
	a.emit(chunk.Add())
	a.emit(chunk.Dup())
	a.emit(chunk.Push(cfg.MaxFailuresBeforeStuck))
	a.emit(chunk.CompareEq())
	a.emitJumpPlaceholder("CALCULATE_NEXT_ATTEMPT")
	a.emit(chunk.Swap())
	a.emit(chunk.JumpIfZero()) // not stuck yet
	a.label("PRINT_STUCK_SIGNAL")
	a.emit(chunk.Push(cfg.StuckSignalValue))
	a.emit(chunk.Print())

	// next = (lastPoked + random + increment) mod modulus. The offset is
	// always in [increment, randomOffsetMax-1+increment], so the failed
	// value can never come straight back.
	a.label("CALCULATE_NEXT_ATTEMPT")
	a.emit(chunk.Swap()) // [sfc', lastPoked]
	a.emit(chunk.Push(cfg.RandomOffsetMax))
	a.emit(chunk.Random())
	a.emit(chunk.Push(cfg.AttemptIncrement))
	a.emit(chunk.Add())
	a.emit(chunk.Add())
	a.emit(chunk.Push(cfg.AttemptModulus))
	a.emit(chunk.Mod())
	a.emit(chunk.Dup()) // [sfc', next(lastPoked'), next(operand)]
	a.emitJumpPlaceholder("BUILD_AND_POKE_ADDR_0")
	a.emit(chunk.Call())

	// Pick the slot to report and the instruction type to install.
	a.emit(chunk.Push(2))
	a.emit(chunk.Random())
	a.emit(chunk.Push(1))
	a.emit(chunk.Add()) // slot address 1 or 2
	a.emit(chunk.Push(3))
	a.emit(chunk.Random()) // decision 0..2
	a.emit(chunk.Dup())
	a.emit(chunk.Push(DecisionAdd))
	a.emit(chunk.CompareEq())
	a.emitJumpPlaceholder("IF_DECISION_NOT_ADD")
	a.emit(chunk.Swap())
	a.emit(chunk.JumpIfZero())

	// ADD decision: slots become PUSH(2); ADD, nudging every attempt by 2.
	a.emit(chunk.Drop())
	emitSlotPair(a, 2)
	a.emit(chunk.Push(DecisionAdd))
	a.emit(chunk.Push(AddrMain))
	a.emit(chunk.Jump())

	a.label("IF_DECISION_NOT_ADD")
	a.emit(chunk.Dup())
	a.emit(chunk.Push(DecisionNop))
	a.emit(chunk.CompareEq())
	a.emitJumpPlaceholder("IF_DECISION_NOT_NOP")
	a.emit(chunk.Swap())
	a.emit(chunk.JumpIfZero())

	// NOP decision: both slots cleared.
	a.emit(chunk.Drop())
	emitNopSlots(a)
	a.emit(chunk.Push(DecisionNop))
	a.emit(chunk.Push(AddrMain))
	a.emit(chunk.Jump())

	// PUSH decision (by exclusion): slots become PUSH(1); ADD.
	a.label("IF_DECISION_NOT_NOP")
	a.emit(chunk.Drop())
	emitSlotPair(a, 1)
	a.emit(chunk.Push(DecisionPush))
	a.emit(chunk.Push(AddrMain))
	a.emit(chunk.Jump())

	// Subroutine: pop an operand index, build PUSH(operand), poke it over
	// address 0, return. Entry stack: [..., operand].
	a.label("BUILD_AND_POKE_ADDR_0")
	a.emit(chunk.Push(chunk.ExpOperand))
	a.emit(chunk.Swap())
	a.emit(chunk.Push(chunk.ExpOpcode))
	a.emit(chunk.Push(chunk.OpPush.PrimeIndex()))
	a.emit(chunk.Push(2)) // pair count
	a.emit(chunk.BuildChunk())
	a.emit(chunk.Push(AddrMain))
	a.emit(chunk.PokeChunk())
	a.emit(chunk.Return())

	if err := a.resolve(); err != nil {
		return nil, err
	}
	if err := a.validateResolved(); err != nil {
		return nil, err
	}
	return &Program{Chunks: a.chunks, Labels: a.labels}, nil
}

// emitSlotPair installs PUSH(offset) into slot 0 and ADD into slot 1, a
// stack-neutral pair that shifts every subsequent attempt by offset.
func emitSlotPair(a *assembler, offset int) {
	// PUSH(offset) chunk for slot 0.
	a.emit(chunk.Push(chunk.ExpOperand))
	a.emit(chunk.Push(offset))
	a.emit(chunk.Push(chunk.ExpOpcode))
	a.emit(chunk.Push(chunk.OpPush.PrimeIndex()))
	a.emit(chunk.Push(2))
	a.emit(chunk.BuildChunk())
	a.emit(chunk.Push(AddrSlot0))
	a.emit(chunk.PokeChunk())
	// ADD chunk for slot 1.
	a.emit(chunk.Push(chunk.ExpOpcode))
	a.emit(chunk.Push(chunk.OpAdd.PrimeIndex()))
	a.emit(chunk.Push(1))
	a.emit(chunk.BuildChunk())
	a.emit(chunk.Push(AddrSlot1))
	a.emit(chunk.PokeChunk())
}

// emitNopSlots clears both modification slots.
func emitNopSlots(a *assembler) {
	for _, addr := range []int{AddrSlot0, AddrSlot1} {
		a.emit(chunk.Push(chunk.ExpOpcode))
		a.emit(chunk.Push(chunk.OpNop.PrimeIndex()))
		a.emit(chunk.Push(1))
		a.emit(chunk.BuildChunk())
		a.emit(chunk.Push(addr))
		a.emit(chunk.PokeChunk())
	}
}
