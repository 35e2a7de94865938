package vm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/uorlab/primeseek/internal/chunk"
)

func run(t *testing.T, m *Machine, steps int) StepResult {
	t.Helper()
	var res StepResult
	var err error
	for i := 0; i < steps; i++ {
		res, err = m.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Halted || res.NeedsInput {
			return res
		}
	}
	return res
}

func TestPushAddPrint(t *testing.T) {
	program := []*big.Int{
		chunk.Push(2),
		chunk.Push(3),
		chunk.Add(),
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	res := run(t, m, 5)
	if !res.Halted {
		t.Fatal("expected halt")
	}
	if got := m.LastOutput(); got != "5" {
		t.Errorf("output = %q, want \"5\"", got)
	}
}

func TestSubModCompare(t *testing.T) {
	program := []*big.Int{
		chunk.Push(9),
		chunk.Push(2),
		chunk.Sub(), // 7
		chunk.Push(5),
		chunk.Mod(), // 2
		chunk.Push(2),
		chunk.CompareEq(), // true -> 1
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	run(t, m, 9)
	if got := m.LastOutput(); got != "1" {
		t.Errorf("output = %q, want \"1\"", got)
	}
}

func TestJumpSkips(t *testing.T) {
	program := []*big.Int{
		chunk.Push(3), // target
		chunk.Jump(),
		chunk.Halt(), // skipped
		chunk.Push(7),
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	res := run(t, m, 6)
	if !res.Halted {
		t.Fatal("expected halt")
	}
	if got := m.LastOutput(); got != "7" {
		t.Errorf("output = %q, want \"7\"", got)
	}
}

func TestJumpIfZeroTakenAndNotTaken(t *testing.T) {
	// Condition zero: jump taken.
	program := []*big.Int{
		chunk.Push(4), // target
		chunk.Push(0), // condition
		chunk.JumpIfZero(),
		chunk.Halt(), // skipped
		chunk.Push(1),
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	run(t, m, 7)
	if got := m.LastOutput(); got != "1" {
		t.Errorf("taken: output = %q, want \"1\"", got)
	}

	// Condition non-zero: falls through to HALT.
	program[1] = chunk.Push(1)
	m = New(program, nil, Config{})
	res := run(t, m, 7)
	if !res.Halted || m.LastOutput() != "" {
		t.Errorf("not taken: halted=%v output=%q", res.Halted, m.LastOutput())
	}
}

func TestInputParksAndResumes(t *testing.T) {
	program := []*big.Int{
		chunk.Input(),
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})

	res, err := m.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if !res.NeedsInput {
		t.Fatal("expected needs-input")
	}

	// Stepping while parked is an error.
	if _, err := m.Step(); !errors.Is(err, ErrAwaitingInput) {
		t.Errorf("step while waiting: err = %v", err)
	}

	// Provide resumes and executes the PRINT.
	res, err = m.Provide(42)
	if err != nil {
		t.Fatalf("provide: %v", err)
	}
	if !res.HasOutput || res.Output != "42" {
		t.Errorf("resume output = %+v", res)
	}
}

func TestProvideWithoutWaiting(t *testing.T) {
	m := New([]*big.Int{chunk.Halt()}, nil, Config{})
	if _, err := m.Provide(1); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("err = %v, want ErrNotAwaiting", err)
	}
}

func TestPokeChunkSelfModifies(t *testing.T) {
	// Build PUSH(6) via BUILD_CHUNK and poke it over address 4, then run it.
	// BUILD_CHUNK pops count, then (primeIdx, exp) pairs; push order is
	// therefore exp, primeIdx per pair, count last.
	program := []*big.Int{
		chunk.Push(5),                            // exp for operand pair
		chunk.Push(6),                            // operand prime index
		chunk.Push(4),                            // exp for opcode pair
		chunk.Push(chunk.OpPush.PrimeIndex()),    // opcode prime index (0)
		chunk.Push(2),                            // pair count
		chunk.BuildChunk(),
		chunk.Push(8), // poke target
		chunk.PokeChunk(),
		chunk.Nop(), // address 8, gets overwritten
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})

	var sawPoke bool
	for i := 0; i < 12; i++ {
		res, err := m.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.MemoryModified {
			sawPoke = true
		}
		if res.Halted {
			break
		}
	}
	if !sawPoke {
		t.Error("expected a memory-modified step")
	}
	if m.Err() != nil {
		t.Fatalf("vm error: %v", m.Err())
	}
	if got := m.LastOutput(); got != "6" {
		t.Errorf("output = %q, want \"6\" (poked PUSH(6) executed)", got)
	}
}

func TestPeekChunkReadsProgram(t *testing.T) {
	program := []*big.Int{
		chunk.Push(3),
		chunk.PeekChunk(),
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	run(t, m, 4)
	if got := m.LastOutput(); got != chunk.Halt().String() {
		t.Errorf("output = %q, want raw HALT chunk %q", got, chunk.Halt().String())
	}
}

func TestCallReturn(t *testing.T) {
	program := []*big.Int{
		chunk.Push(4), // subroutine address
		chunk.Call(),
		chunk.Print(), // prints subroutine's pushed value after return
		chunk.Halt(),
		chunk.Push(9), // subroutine: push 9, return
		chunk.Return(),
	}
	m := New(program, nil, Config{})
	run(t, m, 6)
	if got := m.LastOutput(); got != "9" {
		t.Errorf("output = %q, want \"9\"", got)
	}
}

func TestGetPrimeAndIndex(t *testing.T) {
	program := []*big.Int{
		chunk.Push(4),       // index 4
		chunk.GetPrime(),    // 11
		chunk.GetPrimeIdx(), // back to 4
		chunk.Print(),
		chunk.Halt(),
	}
	m := New(program, nil, Config{})
	run(t, m, 5)
	if got := m.LastOutput(); got != "4" {
		t.Errorf("output = %q, want \"4\"", got)
	}
}

func TestRandomBounded(t *testing.T) {
	program := []*big.Int{
		chunk.Push(3),
		chunk.Random(),
		chunk.Print(),
		chunk.Halt(),
	}
	for seed := int64(1); seed <= 5; seed++ {
		m := New(program, nil, Config{Seed: seed})
		run(t, m, 4)
		got := m.LastOutput()
		if got != "0" && got != "1" && got != "2" {
			t.Errorf("seed %d: random output %q out of [0,3)", seed, got)
		}
	}
}

func TestStackUnderflowFails(t *testing.T) {
	m := New([]*big.Int{chunk.Add()}, nil, Config{})
	res, err := m.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res.Err == "" || m.Err() == nil {
		t.Error("expected underflow failure")
	}
	if _, err := m.Step(); err == nil {
		t.Error("expected error stepping a failed machine")
	}
}

func TestInstructionBudget(t *testing.T) {
	// Tight loop: PUSH 0, JUMP 0.
	program := []*big.Int{
		chunk.Push(0),
		chunk.Jump(),
	}
	m := New(program, nil, Config{MaxInstructions: 10})
	for i := 0; i < 20; i++ {
		res, _ := m.Step()
		if res.Halted {
			break
		}
	}
	if !errors.Is(m.Err(), ErrBudget) {
		t.Errorf("err = %v, want ErrBudget", m.Err())
	}
}

func TestResetBudgetStartsFreshCycle(t *testing.T) {
	// Tight loop: PUSH 0, JUMP 0.
	program := []*big.Int{
		chunk.Push(0),
		chunk.Jump(),
	}
	m := New(program, nil, Config{MaxInstructions: 10})

	// Many cycles, each under budget: the machine must keep running far
	// past what a lifetime cap would allow.
	for cycle := 0; cycle < 20; cycle++ {
		m.ResetBudget()
		for i := 0; i < 8; i++ {
			if _, err := m.Step(); err != nil {
				t.Fatalf("cycle %d step %d: %v", cycle, i, err)
			}
		}
	}
	if m.Err() != nil {
		t.Fatalf("machine failed across cycles: %v", m.Err())
	}

	// Without a reset the very same budget trips within one cycle.
	m.ResetBudget()
	for i := 0; i < 12; i++ {
		if res, _ := m.Step(); res.Halted {
			break
		}
	}
	if !errors.Is(m.Err(), ErrBudget) {
		t.Errorf("err = %v, want ErrBudget", m.Err())
	}
}

func TestInitialStackSeed(t *testing.T) {
	program := []*big.Int{chunk.Print(), chunk.Halt()}
	m := New(program, []int{7, 3}, Config{})
	run(t, m, 2)
	if got := m.LastOutput(); got != "3" {
		t.Errorf("output = %q, want top of seeded stack \"3\"", got)
	}
}
