package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/uorlab/primeseek/internal/chunk"
	"github.com/uorlab/primeseek/internal/teacher"
)

// ProgramLine is one disassembled program cell.
type ProgramLine struct {
	Address  int    `json:"address"`
	Chunk    string `json:"chunk"`
	Mnemonic string `json:"mnemonic"`
}

// State is a full session snapshot for API responses.
type State struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	Phase          Phase         `json:"phase"`
	Strategy       string        `json:"strategy"`
	IP             int           `json:"ip"`
	Goal           teacher.Goal  `json:"goal"`
	Attempts       int           `json:"attempts"`
	TotalAttempts  int           `json:"total_attempts"`
	GoalsCompleted int           `json:"goals_completed"`
	Teacher        teacher.Stats `json:"teacher"`
	Stack          []string      `json:"stack"`
	Outputs        []string      `json:"outputs"`
	Program        []ProgramLine `json:"program"`
	SnapshotHash   string        `json:"snapshot_hash"`
	VMError        string        `json:"vm_error,omitempty"`
}

// State snapshots the session.
func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() *State {
	st := &State{
		ID:             s.id.String(),
		CreatedAt:      s.created,
		Phase:          s.phase,
		Strategy:       s.advisor.Name(),
		IP:             s.machine.IP(),
		Goal:           s.goal,
		Attempts:       s.attempts,
		TotalAttempts:  s.total,
		GoalsCompleted: s.goals,
		Teacher:        s.teach.Stats(),
		Outputs:        s.machine.OutputLog(),
		SnapshotHash:   s.lastSnapshotHash,
	}
	if err := s.machine.Err(); err != nil {
		st.VMError = err.Error()
	}
	for _, v := range s.machine.Stack() {
		st.Stack = append(st.Stack, v.String())
	}
	for addr, c := range s.machine.Program() {
		st.Program = append(st.Program, ProgramLine{
			Address:  addr,
			Chunk:    c.String(),
			Mnemonic: chunk.Describe(c),
		})
	}
	return st
}

// Listing renders the current program as a disassembly listing, the format
// snapshots are stored and diffed in.
func (s *Session) Listing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingLocked()
}

func (s *Session) listingLocked() string {
	var b strings.Builder
	for addr, c := range s.machine.Program() {
		fmt.Fprintf(&b, "%04d: %s\n", addr, chunk.Describe(c))
	}
	return b.String()
}
