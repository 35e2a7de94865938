// Package session orchestrates one goal-seeking run: a seeker program
// executing in a VM, an adaptive teacher assigning targets, an advisor
// proposing probes, and persistent attempt/snapshot recording.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uorlab/primeseek/internal/chunk"
	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/reflection"
	"github.com/uorlab/primeseek/internal/seeker"
	"github.com/uorlab/primeseek/internal/store"
	"github.com/uorlab/primeseek/internal/strategy"
	"github.com/uorlab/primeseek/internal/teacher"
	"github.com/uorlab/primeseek/internal/vm"
)

// Phase is the session's position in the feedback protocol.
type Phase string

const (
	PhaseRunning         Phase = "RUNNING"
	PhaseAwaitingAttempt Phase = "AWAITING_ATTEMPT_RESULT"
	PhaseSendTarget      Phase = "SEND_TARGET"
	PhaseFailed          Phase = "FAILED"
)

var (
	ErrWrongPhase = errors.New("session: input not expected in this phase")
	ErrFailed     = errors.New("session: machine failed")
)

// abandonFactor multiplies the struggle bound into the hard per-goal
// attempt cap after which the goal is swapped out.
const abandonFactor = 3

// Options tune a new session.
type Options struct {
	Seed     int64
	Strategy string
	// Manual defers input answers to ProvideInput calls instead of
	// answering the machine immediately.
	Manual bool
}

// Session is safe for concurrent use.
type Session struct {
	id      uuid.UUID
	cfg     *config.Config
	logger  interfaces.Logger
	st      *store.Store
	events  *eventHub
	created time.Time

	mu       sync.Mutex
	machine  *vm.Machine
	prog     *seeker.Program
	planner  *seeker.SlotPlanner
	advisor  interfaces.Advisor
	teach    *teacher.Teacher
	mem      *reflection.Memory
	manual   bool
	phase    Phase
	goal     teacher.Goal
	attempts int
	total    int
	goals    int

	feedbackAddr     int
	probeAddr        int
	outputsSeen      int
	slotChunks       map[int]*big.Int
	lastSnapshotHash string
	pendingFeedback  int
}

// New builds and seeds a session. The store may be nil for ephemeral runs.
func New(cfg *config.Config, st *store.Store, logger interfaces.Logger, opts Options) (*Session, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	id := uuid.New()
	logger = logger.With(interfaces.Field{Key: "session", Value: id.String()})

	adv, err := strategy.New(opts.Strategy, opts.Seed, logger)
	if err != nil {
		return nil, err
	}

	prog, err := seeker.Generate(seeker.Config{
		InitialAttempt:         1,
		AttemptModulus:         cfg.Seeker.AttemptModulus,
		AttemptIncrement:       cfg.Seeker.AttemptIncrement,
		RandomOffsetMax:        cfg.Seeker.RandomOffsetMax,
		MaxFailuresBeforeStuck: cfg.Seeker.MaxFailuresBeforeStuck,
		StuckSignalValue:       cfg.Teacher.StuckSignalValue,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:           id,
		cfg:          cfg,
		logger:       logger,
		st:           st,
		events:       newEventHub(),
		created:      time.Now().UTC(),
		prog:         prog,
		planner:      seeker.NewSlotPlanner(),
		advisor:      adv,
		teach:        teacher.New(cfg, opts.Seed, logger),
		mem:          reflection.NewMemory(0),
		manual:       opts.Manual,
		phase:        PhaseRunning,
		feedbackAddr: prog.Labels["REQUEST_FEEDBACK"],
		probeAddr:    prog.Labels["REQUEST_PROBE"],
		slotChunks:   map[int]*big.Int{},
	}

	s.goal = s.teach.NextGoal()
	probe := adv.Next(s.teach.Level().RangeMax)

	s.machine = vm.New(prog.Chunks,
		[]int{0, probe, seeker.AddrSlot0, seeker.DecisionNop},
		vm.Config{MaxInstructions: cfg.VM.MaxInstructions, Seed: opts.Seed})
	if err := s.machine.Poke(seeker.AddrMain, chunk.Push(probe)); err != nil {
		return nil, fmt.Errorf("session: seed probe: %w", err)
	}
	s.cacheWatched()

	ctx := context.Background()
	if st != nil {
		if err := st.CreateSession(ctx, id.String(), adv.Name(), s.teach.Difficulty()); err != nil {
			return nil, err
		}
		if _, err := st.SaveSnapshot(ctx, id.String(), s.listingLocked()); err != nil {
			return nil, err
		}
	}
	s.lastSnapshotHash = store.HashListing(s.listingLocked())

	logger.Info("session started",
		interfaces.Field{Key: "strategy", Value: adv.Name()},
		interfaces.Field{Key: "difficulty", Value: s.teach.Difficulty()},
		interfaces.Field{Key: "target", Value: s.goal.Target})
	s.emit(EventGoalAssigned, map[string]any{"goal": s.goal, "difficulty": s.teach.Difficulty()})
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Events returns the session's event stream.
func (s *Session) Events() <-chan Event { return s.events.ch }

// Close releases the event stream.
func (s *Session) Close() { s.events.close() }

// Step executes one VM instruction and runs the feedback protocol when the
// machine parks on an input request.
func (s *Session) Step(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.ResetBudget()
	if err := s.stepLocked(ctx); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

func (s *Session) stepLocked(ctx context.Context) error {
	if s.phase == PhaseFailed {
		return ErrFailed
	}
	if s.phase == PhaseAwaitingAttempt || s.phase == PhaseSendTarget {
		// Parked on input; manual sessions must call ProvideInput.
		if s.manual {
			return nil
		}
		return s.answerLocked(ctx)
	}

	res, err := s.machine.Step()
	if err != nil {
		s.fail(err)
		return err
	}
	return s.afterStep(ctx, res)
}

func (s *Session) afterStep(ctx context.Context, res vm.StepResult) error {
	if res.MemoryModified {
		s.noteModification(ctx)
	}
	if res.Halted {
		err := s.machine.Err()
		if err == nil {
			err = errors.New("session: program halted")
		}
		s.fail(err)
		return err
	}
	if res.NeedsInput {
		switch s.machine.IP() {
		case s.feedbackAddr:
			s.phase = PhaseAwaitingAttempt
			s.noteAttempt()
		case s.probeAddr:
			s.phase = PhaseSendTarget
		default:
			s.fail(fmt.Errorf("session: unexpected input request at %d", s.machine.IP()))
			return ErrFailed
		}
		if !s.manual {
			return s.answerLocked(ctx)
		}
	}
	return nil
}

// noteAttempt evaluates the freshly printed attempt and stages the feedback
// value; the answer is sent by answerLocked (immediately in auto mode).
func (s *Session) noteAttempt() {
	outputs := s.machine.OutputLog()
	fresh := outputs[s.outputsSeen:]
	s.outputsSeen = len(outputs)

	attempt := -1
	stuck := false
	stuckStr := strconv.Itoa(s.cfg.Teacher.StuckSignalValue)
	for i, out := range fresh {
		if i < len(fresh)-1 && out == stuckStr {
			stuck = true
		}
		if i == len(fresh)-1 {
			if v, err := strconv.Atoi(out); err == nil {
				attempt = v
			}
		}
	}

	s.attempts++
	s.total++
	success := attempt == s.goal.Target
	s.advisor.Observe(attempt, success)
	for _, slot := range s.planner.Slots() {
		if slot.LastInstruction != nil {
			slot.Record(success)
		}
	}

	if s.st != nil {
		rec := store.AttemptRecord{
			SessionID:  s.id.String(),
			GoalTarget: s.goal.Target,
			GoalKind:   s.goal.Kind,
			AttemptNo:  s.attempts,
			Value:      attempt,
			Success:    success,
			Stuck:      stuck,
		}
		if err := s.st.RecordAttempt(context.Background(), rec); err != nil {
			s.logger.Warn("attempt not recorded", interfaces.Field{Key: "error", Value: err.Error()})
		}
	}
	s.emit(EventAttempt, map[string]any{
		"value": attempt, "target": s.goal.Target, "attempt_no": s.attempts,
		"success": success, "stuck": stuck,
	})
	valence := -0.2
	if success {
		valence = 0.4
	}
	s.mem.Record(reflection.Experience{
		Kind: reflection.KindAttempt, Target: s.goal.Target, Value: attempt,
		Success: success, Difficulty: s.teach.Difficulty(),
		Valence: valence, Significance: 0.3,
		Content: map[string]any{
			"target": s.goal.Target, "value": attempt,
			"success": success, "difficulty": s.teach.Difficulty(),
		},
	})
	if stuck {
		s.emit(EventStuck, map[string]any{"attempt_no": s.attempts})
		s.mem.Record(reflection.Experience{
			Kind: reflection.KindStuck, Target: s.goal.Target,
			Difficulty: s.teach.Difficulty(),
			Valence:    -0.8, Significance: 0.7,
			Content: map[string]any{
				"target": s.goal.Target, "difficulty": s.teach.Difficulty(),
				"description": fmt.Sprintf("signalled stuck on target %d", s.goal.Target),
			},
		})
	}

	if success {
		outcome := s.teach.RecordOutcome(s.goal, s.attempts, true)
		s.emit(EventGoalReached, map[string]any{"goal": s.goal, "attempts": s.attempts})
		s.mem.Record(reflection.Experience{
			Kind: reflection.KindGoalReached, Target: s.goal.Target,
			Success: true, Difficulty: s.teach.Difficulty(),
			Valence: 0.8, Significance: 0.9,
			Content: map[string]any{
				"target": s.goal.Target, "attempts": s.attempts,
				"difficulty": s.teach.Difficulty(),
				"description": fmt.Sprintf("reached target %d after %d attempts",
					s.goal.Target, s.attempts),
			},
		})
		if outcome.DifficultyChanged {
			s.emit(EventDifficultyChange, map[string]any{"difficulty": outcome.Difficulty})
		}
		s.goals++
		s.nextGoal()
		s.pendingFeedback = s.cfg.VM.Indices.Success
		return
	}

	lvl := s.teach.Level()
	if s.attempts >= lvl.MaxAttemptsBeforeStruggle*abandonFactor {
		outcome := s.teach.RecordOutcome(s.goal, s.attempts, false)
		s.emit(EventGoalAbandoned, map[string]any{"goal": s.goal, "attempts": s.attempts})
		s.mem.Record(reflection.Experience{
			Kind: reflection.KindGoalAbandoned, Target: s.goal.Target,
			Difficulty: s.teach.Difficulty(),
			Valence:    -0.6, Significance: 0.8,
			Content: map[string]any{
				"target": s.goal.Target, "attempts": s.attempts,
				"difficulty": s.teach.Difficulty(),
				"description": fmt.Sprintf("walked away from target %d after %d attempts",
					s.goal.Target, s.attempts),
			},
		})
		if outcome.DifficultyChanged {
			s.emit(EventDifficultyChange, map[string]any{"difficulty": outcome.Difficulty})
		}
		s.nextGoal()
	}
	s.pendingFeedback = s.cfg.VM.Indices.Failure
}

func (s *Session) nextGoal() {
	s.goal = s.teach.NextGoal()
	s.attempts = 0
	s.advisor.Reset()
	s.emit(EventGoalAssigned, map[string]any{"goal": s.goal, "difficulty": s.teach.Difficulty()})
}

// answerLocked feeds the machine whatever the current phase calls for.
func (s *Session) answerLocked(ctx context.Context) error {
	var value int
	switch s.phase {
	case PhaseAwaitingAttempt:
		value = s.pendingFeedback
	case PhaseSendTarget:
		value = s.advisor.Next(s.teach.Level().RangeMax)
		s.emit(EventProbeSent, map[string]any{"probe": value})
	default:
		return ErrWrongPhase
	}
	res, err := s.machine.Provide(value)
	if err != nil {
		s.fail(err)
		return err
	}
	s.phase = PhaseRunning
	return s.afterStep(ctx, res)
}

// ProvideInput advances a parked machine in manual mode. The client's value
// is logged for the transcript but never forwarded: the machine receives the
// phase-appropriate answer (feedback index or fresh probe), exactly as in
// auto mode, so a misbehaving client cannot desync the feedback protocol.
func (s *Session) ProvideInput(ctx context.Context, value int) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingAttempt && s.phase != PhaseSendTarget {
		return s.stateLocked(), ErrWrongPhase
	}
	s.machine.ResetBudget()
	s.logger.Info("manual input received",
		interfaces.Field{Key: "value", Value: value},
		interfaces.Field{Key: "phase", Value: string(s.phase)})
	if err := s.answerLocked(ctx); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// RunAttempt steps until one more attempt has been evaluated, or until a
// manual session parks on an input request.
func (s *Session) RunAttempt(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.ResetBudget()
	start := s.total
	budget := s.cfg.VM.MaxInstructions
	if budget <= 0 {
		budget = 10000
	}
	for i := 0; i < budget; i++ {
		if err := ctx.Err(); err != nil {
			return s.stateLocked(), err
		}
		if err := s.stepLocked(ctx); err != nil {
			return s.stateLocked(), err
		}
		if s.total > start {
			return s.stateLocked(), nil
		}
		if s.manual && s.phase != PhaseRunning {
			return s.stateLocked(), nil
		}
	}
	return s.stateLocked(), fmt.Errorf("session: no attempt within %d steps", budget)
}

// RunGoals drives the session until n more goals complete.
func (s *Session) RunGoals(ctx context.Context, n int) (*State, error) {
	target := s.goalsCompleted() + n
	for s.goalsCompleted() < target {
		if _, err := s.RunAttempt(ctx); err != nil {
			return s.State(), err
		}
	}
	return s.State(), nil
}

// Reflect condenses the session's experience memory.
func (s *Session) Reflect() *reflection.Reflection {
	return s.mem.Reflect(time.Now().UTC())
}

// Recall returns stored experiences most similar to the probe.
func (s *Session) Recall(probe reflection.Experience, k int) []reflection.Experience {
	return s.mem.Recall(probe, k)
}

func (s *Session) goalsCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals
}

func (s *Session) fail(err error) {
	if s.phase == PhaseFailed {
		return
	}
	s.phase = PhaseFailed
	s.logger.Error("session failed", interfaces.Field{Key: "error", Value: err.Error()})
	s.emit(EventVMError, map[string]any{"error": err.Error()})
}

// cacheWatched remembers the watched program cells for change attribution.
func (s *Session) cacheWatched() {
	for _, addr := range []int{seeker.AddrMain, seeker.AddrSlot0, seeker.AddrSlot1} {
		s.slotChunks[addr] = new(big.Int).Set(s.machine.Program()[addr])
	}
}

// noteModification attributes a self-modification to the touched cells,
// snapshots the program when its listing hash moved, and updates planner
// bookkeeping.
func (s *Session) noteModification(ctx context.Context) {
	program := s.machine.Program()
	for addr, old := range s.slotChunks {
		if program[addr].Cmp(old) == 0 {
			continue
		}
		if addr != seeker.AddrMain {
			s.planner.RecordModification(addr, program[addr])
		}
		s.emit(EventProgramModified, map[string]any{
			"address": addr, "instruction": chunk.Describe(program[addr]),
		})
	}
	s.cacheWatched()

	listing := s.listingLocked()
	hash := store.HashListing(listing)
	if hash == s.lastSnapshotHash {
		return
	}
	s.lastSnapshotHash = hash
	if s.st != nil {
		if _, err := s.st.SaveSnapshot(ctx, s.id.String(), listing); err != nil {
			s.logger.Warn("snapshot not saved", interfaces.Field{Key: "error", Value: err.Error()})
		}
	}
}
