// Package vm executes UOR chunk programs on a small stack machine. Execution
// is cooperative: every Step runs a single instruction and reports the
// machine state, and OP_INPUT parks the machine until the host provides a
// value. This mirrors the step/provide-input protocol the HTTP API exposes.
package vm

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/uorlab/primeseek/internal/chunk"
	"github.com/uorlab/primeseek/internal/prime"
)

var (
	ErrHalted        = errors.New("vm: machine is halted")
	ErrAwaitingInput = errors.New("vm: machine is waiting for input")
	ErrNotAwaiting   = errors.New("vm: machine is not waiting for input")
	ErrBudget        = errors.New("vm: instruction budget exhausted")
)

// Machine is a single VM instance. It is not safe for concurrent use; the
// session layer serializes access.
type Machine struct {
	program   []*big.Int
	stack     []*big.Int
	callStack []int
	ip        int

	outputLog []string
	halted    bool
	failure   error
	waiting   bool

	executed int
	budget   int

	rng *rand.Rand
}

// StepResult is the state snapshot reported after each executed instruction,
// matching what the execution generator of the original backend yielded.
type StepResult struct {
	IP             int
	Stack          []*big.Int
	Output         string
	HasOutput      bool
	Halted         bool
	Err            string
	NeedsInput     bool
	MemoryModified bool
}

// Config carries the runtime knobs for a Machine.
type Config struct {
	// MaxInstructions caps executed instructions per step cycle; the host
	// calls ResetBudget when a new cycle begins. 0 means unlimited.
	MaxInstructions int

	// Seed seeds OP_RANDOM; 0 selects a time-based seed upstream.
	Seed int64
}

// New creates a Machine over a copy of program with the given initial stack
// of small integers.
func New(program []*big.Int, initialStack []int, cfg Config) *Machine {
	prog := make([]*big.Int, len(program))
	for i, c := range program {
		prog[i] = new(big.Int).Set(c)
	}
	stack := make([]*big.Int, 0, len(initialStack)+8)
	for _, v := range initialStack {
		stack = append(stack, big.NewInt(int64(v)))
	}
	return &Machine{
		program: prog,
		stack:   stack,
		budget:  cfg.MaxInstructions,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
}

// IP returns the current instruction pointer.
func (m *Machine) IP() int { return m.ip }

// Halted reports whether the machine has stopped.
func (m *Machine) Halted() bool { return m.halted }

// Waiting reports whether the machine is parked on OP_INPUT.
func (m *Machine) Waiting() bool { return m.waiting }

// Err returns the failure that stopped the machine, if any.
func (m *Machine) Err() error { return m.failure }

// OutputLog returns a copy of everything PRINT has emitted.
func (m *Machine) OutputLog() []string {
	out := make([]string, len(m.outputLog))
	copy(out, m.outputLog)
	return out
}

// LastOutput returns the most recent PRINT value, or "" if none.
func (m *Machine) LastOutput() string {
	if len(m.outputLog) == 0 {
		return ""
	}
	return m.outputLog[len(m.outputLog)-1]
}

// Stack returns a copy of the stack, bottom first.
func (m *Machine) Stack() []*big.Int {
	out := make([]*big.Int, len(m.stack))
	for i, v := range m.stack {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// Program returns a copy of program memory.
func (m *Machine) Program() []*big.Int {
	out := make([]*big.Int, len(m.program))
	for i, c := range m.program {
		out[i] = new(big.Int).Set(c)
	}
	return out
}

// ResetBudget starts a fresh step-cycle instruction budget. The session
// calls this once per cycle; without it the budget would act as a lifetime
// cap and kill healthy long-running programs.
func (m *Machine) ResetBudget() {
	m.executed = 0
}

// Executed returns the instruction count of the current step cycle.
func (m *Machine) Executed() int { return m.executed }

// Poke overwrites program memory at addr; the host uses this to install the
// initial PUSH(target) at address 0.
func (m *Machine) Poke(addr int, c *big.Int) error {
	if addr < 0 || addr >= len(m.program) {
		return fmt.Errorf("vm: poke address %d out of bounds", addr)
	}
	m.program[addr] = new(big.Int).Set(c)
	return nil
}

// Step executes one instruction. It fails fast when the machine is halted,
// errored, or waiting for input.
func (m *Machine) Step() (StepResult, error) {
	if m.failure != nil {
		return m.snapshot("", false, false), m.failure
	}
	if m.halted {
		return m.snapshot("", false, false), ErrHalted
	}
	if m.waiting {
		return m.snapshot("", false, false), ErrAwaitingInput
	}
	return m.exec()
}

// Provide resumes a machine parked on OP_INPUT with the given value and then
// executes the following instruction, mirroring the generator send semantics
// of the original backend.
func (m *Machine) Provide(value int) (StepResult, error) {
	if m.failure != nil {
		return m.snapshot("", false, false), m.failure
	}
	if !m.waiting {
		return m.snapshot("", false, false), ErrNotAwaiting
	}
	m.stack = append(m.stack, big.NewInt(int64(value)))
	m.waiting = false
	m.ip++
	if m.halted {
		return m.snapshot("", false, false), nil
	}
	return m.exec()
}

func (m *Machine) exec() (StepResult, error) {
	if m.budget > 0 && m.executed >= m.budget {
		m.fail(ErrBudget)
		return m.snapshot("", false, false), nil
	}
	if m.ip < 0 || m.ip >= len(m.program) {
		m.fail(fmt.Errorf("vm: instruction pointer %d out of bounds", m.ip))
		return m.snapshot("", false, false), nil
	}

	inst, err := chunk.Parse(m.program[m.ip])
	if err != nil {
		m.fail(fmt.Errorf("vm: invalid chunk at %d: %w", m.ip, err))
		return m.snapshot("", false, false), nil
	}
	m.executed++

	output := ""
	hasOutput := false
	memModified := false
	advance := true

	switch inst.Op {
	case chunk.OpNop:
		// nothing

	case chunk.OpHalt:
		m.halted = true
		advance = false

	case chunk.OpPush:
		m.push(big.NewInt(int64(inst.Operand)))

	case chunk.OpDup:
		v, err := m.pop()
		if err != nil {
			break
		}
		m.push(v)
		m.push(new(big.Int).Set(v))

	case chunk.OpSwap:
		b, err := m.pop()
		if err != nil {
			break
		}
		a, err := m.pop()
		if err != nil {
			break
		}
		m.push(b)
		m.push(a)

	case chunk.OpDrop:
		_, err = m.pop()

	case chunk.OpAdd, chunk.OpSub, chunk.OpMod:
		b, err2 := m.pop()
		if err2 != nil {
			break
		}
		a, err2 := m.pop()
		if err2 != nil {
			break
		}
		switch inst.Op {
		case chunk.OpAdd:
			m.push(new(big.Int).Add(a, b))
		case chunk.OpSub:
			m.push(new(big.Int).Sub(a, b))
		case chunk.OpMod:
			if b.Sign() == 0 {
				m.fail(fmt.Errorf("vm: modulus by zero at %d", m.ip))
				break
			}
			m.push(new(big.Int).Mod(a, b))
		}

	case chunk.OpCompareEq:
		b, err2 := m.pop()
		if err2 != nil {
			break
		}
		a, err2 := m.pop()
		if err2 != nil {
			break
		}
		if a.Cmp(b) == 0 {
			m.push(big.NewInt(chunk.IdxTrue))
		} else {
			m.push(big.NewInt(chunk.IdxFalse))
		}

	case chunk.OpPrint:
		v, err2 := m.pop()
		if err2 != nil {
			break
		}
		output = v.String()
		hasOutput = true
		m.outputLog = append(m.outputLog, output)

	case chunk.OpInput:
		// Park; Provide pushes the value and advances past this address.
		m.waiting = true
		advance = false

	case chunk.OpJump:
		t, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if t < 0 || t >= len(m.program) {
			m.fail(fmt.Errorf("vm: jump target %d out of bounds", t))
			break
		}
		m.ip = t
		advance = false

	case chunk.OpJumpIfZero:
		cond, err2 := m.pop()
		if err2 != nil {
			break
		}
		t, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if cond.Sign() == 0 {
			if t < 0 || t >= len(m.program) {
				m.fail(fmt.Errorf("vm: jump target %d out of bounds", t))
				break
			}
			m.ip = t
			advance = false
		}

	case chunk.OpCall:
		t, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if t < 0 || t >= len(m.program) {
			m.fail(fmt.Errorf("vm: call target %d out of bounds", t))
			break
		}
		m.callStack = append(m.callStack, m.ip+1)
		m.ip = t
		advance = false

	case chunk.OpReturn:
		if len(m.callStack) == 0 {
			m.fail(fmt.Errorf("vm: return with empty call stack at %d", m.ip))
			break
		}
		m.ip = m.callStack[len(m.callStack)-1]
		m.callStack = m.callStack[:len(m.callStack)-1]
		advance = false

	case chunk.OpRandom:
		max, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if max <= 0 {
			m.fail(fmt.Errorf("vm: random bound %d must be positive", max))
			break
		}
		m.push(big.NewInt(int64(m.rng.Intn(max))))

	case chunk.OpPokeChunk:
		addr, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		c, err2 := m.pop()
		if err2 != nil {
			break
		}
		if addr < 0 || addr >= len(m.program) {
			m.fail(fmt.Errorf("vm: poke address %d out of bounds", addr))
			break
		}
		m.program[addr] = c
		memModified = true

	case chunk.OpPeekChunk:
		addr, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if addr < 0 || addr >= len(m.program) {
			m.fail(fmt.Errorf("vm: peek address %d out of bounds", addr))
			break
		}
		m.push(new(big.Int).Set(m.program[addr]))

	case chunk.OpBuildChunk:
		m.buildChunk()

	case chunk.OpFactorize:
		c, err2 := m.pop()
		if err2 != nil {
			break
		}
		inst2, perr := chunk.Parse(c)
		if perr != nil {
			m.fail(fmt.Errorf("vm: factorize of invalid chunk: %w", perr))
			break
		}
		m.push(big.NewInt(int64(inst2.Op.PrimeIndex())))

	case chunk.OpGetPrime:
		i, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		if i < 0 {
			m.fail(fmt.Errorf("vm: negative prime index %d", i))
			break
		}
		m.push(big.NewInt(prime.Prime(i)))

	case chunk.OpGetPrimeIdx:
		p, err2 := m.popSmall()
		if err2 != nil {
			break
		}
		idx, ok := prime.Index(int64(p))
		if !ok {
			m.fail(fmt.Errorf("vm: %d is not prime", p))
			break
		}
		m.push(big.NewInt(int64(idx)))

	default:
		m.fail(fmt.Errorf("vm: unknown opcode %s at %d", inst.Op.Name(), m.ip))
	}

	if m.failure == nil && advance {
		m.ip++
	}

	res := m.snapshot(output, hasOutput, memModified)
	return res, nil
}

// buildChunk pops a pair count, then count (primeIdx, exponent) pairs, and
// pushes the encoded chunk.
func (m *Machine) buildChunk() {
	count, err := m.popSmall()
	if err != nil {
		return
	}
	if count <= 0 || count > 8 {
		m.fail(fmt.Errorf("vm: build_chunk pair count %d out of range", count))
		return
	}
	factors := make([]prime.Factor, 0, count)
	for i := 0; i < count; i++ {
		pIdx, err := m.popSmall()
		if err != nil {
			return
		}
		exp, err := m.popSmall()
		if err != nil {
			return
		}
		if pIdx < 0 || exp <= 0 {
			m.fail(fmt.Errorf("vm: build_chunk invalid pair (%d, %d)", pIdx, exp))
			return
		}
		factors = append(factors, prime.Factor{Prime: prime.Prime(pIdx), Exp: exp})
	}
	c, err2 := chunk.Encode(factors)
	if err2 != nil {
		m.fail(fmt.Errorf("vm: build_chunk: %w", err2))
		return
	}
	m.push(c)
}

func (m *Machine) push(v *big.Int) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pop() (*big.Int, error) {
	if len(m.stack) == 0 {
		err := fmt.Errorf("vm: stack underflow at %d", m.ip)
		m.fail(err)
		return nil, err
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) popSmall() (int, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() > int64(1<<31) || v.Int64() < -(1<<31) {
		err := fmt.Errorf("vm: value %s too large for address arithmetic", v.String())
		m.fail(err)
		return 0, err
	}
	return int(v.Int64()), nil
}

func (m *Machine) fail(err error) {
	if m.failure == nil {
		m.failure = err
	}
	m.halted = true
}

func (m *Machine) snapshot(output string, hasOutput, memModified bool) StepResult {
	errMsg := ""
	if m.failure != nil {
		errMsg = m.failure.Error()
	}
	return StepResult{
		IP:             m.ip,
		Stack:          m.Stack(),
		Output:         output,
		HasOutput:      hasOutput,
		Halted:         m.halted,
		Err:            errMsg,
		NeedsInput:     m.waiting,
		MemoryModified: memModified,
	}
}
