// Package app wires sessions, storage, and background episode jobs behind
// a single orchestrator used by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/session"
	"github.com/uorlab/primeseek/internal/store"
)

var ErrSessionNotFound = errors.New("app: session not found")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

// JobEvent is one progress message on a job's event stream.
type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	GoalsCompleted int `json:"goals_completed,omitempty"`
	GoalsRequested int `json:"goals_requested,omitempty"`
	TotalAttempts  int `json:"total_attempts,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is a background episode run: a session driven until it completes a
// requested number of goals.
type Job struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Goals     int           `json:"goals"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	// Final session state once the job finishes.
	Result *session.State `json:"result,omitempty"`
}

// Orchestrator owns the live sessions and episode jobs.
type Orchestrator struct {
	cfg    *Config
	st     *store.Store
	logger interfaces.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config, store and logger. The store may be
// nil when persistence is disabled.
func NewOrchestrator(cfg *Config, st *store.Store, logger interfaces.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:        cfg,
		st:         st,
		logger:     logger,
		sessions:   map[string]*session.Session{},
		jobs:       map[string]*Job{},
		jobCancels: map[string]context.CancelFunc{},
	}
}

// CreateSession starts a new session and registers it.
func (o *Orchestrator) CreateSession(opts session.Options) (*session.Session, error) {
	st := o.st
	if o.cfg.DisableStore {
		st = nil
	}
	s, err := session.New(o.cfg.App, st, o.logger, opts)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.sessions[s.ID().String()] = s
	o.mu.Unlock()
	return s, nil
}

// GetSession returns a live session, or nil.
func (o *Orchestrator) GetSession(id string) *session.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[id]
}

// ListSessionStates snapshots all live sessions.
func (o *Orchestrator) ListSessionStates() []*session.State {
	o.mu.Lock()
	live := make([]*session.Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		live = append(live, s)
	}
	o.mu.Unlock()

	out := make([]*session.State, 0, len(live))
	for _, s := range live {
		out = append(out, s.State())
	}
	return out
}

// CloseSession drops a session from the registry and releases it.
func (o *Orchestrator) CloseSession(id string) error {
	o.mu.Lock()
	s, ok := o.sessions[id]
	delete(o.sessions, id)
	o.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Store exposes the underlying store; nil when persistence is disabled.
func (o *Orchestrator) Store() *store.Store {
	if o.cfg.DisableStore {
		return nil
	}
	return o.st
}

// StartEpisodeJob drives an existing session in the background until it
// completes the requested number of goals.
func (o *Orchestrator) StartEpisodeJob(ctx context.Context, sessionID string, goals int) (*Job, error) {
	s := o.GetSession(sessionID)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if goals < 1 {
		goals = 1
	}

	job := &Job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Goals:     goals,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}
	o.setJob(job)

	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(job.ID, cancel)

	o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})

	go o.runEpisode(jobCtx, job, s, goals)
	return job, nil
}

func (o *Orchestrator) runEpisode(ctx context.Context, job *Job, s *session.Session, goals int) {
	defer func() {
		o.jobsMu.Lock()
		if j, ok := o.jobs[job.ID]; ok {
			j.EndedAt = time.Now().UTC()
		}
		o.jobsMu.Unlock()
		o.deleteCancel(job.ID)

		// Close events channel so websocket loops can terminate cleanly.
		o.jobsMu.Lock()
		j := o.jobs[job.ID]
		o.jobsMu.Unlock()
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.setJobStatus(job.ID, JobRunning, "")
	o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

	start := s.State().GoalsCompleted
	for {
		st, err := s.RunAttempt(ctx)
		if err != nil {
			status := JobFailed
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				status = JobCanceled
			}
			o.setJobStatus(job.ID, status, err.Error())
			o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: status, Error: err.Error()})
			return
		}
		done := st.GoalsCompleted - start
		o.emitJobEvent(job.ID, JobEvent{
			JobID: job.ID, Type: JobEventProgress,
			GoalsCompleted: done, GoalsRequested: goals, TotalAttempts: st.TotalAttempts,
		})
		if done >= goals {
			o.jobsMu.Lock()
			if j, ok := o.jobs[job.ID]; ok {
				j.Status = JobDone
				j.Result = st
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventResult, Status: JobDone,
				GoalsCompleted: done, GoalsRequested: goals, TotalAttempts: st.TotalAttempts})
			return
		}
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobs[job.ID] = job
}

func (o *Orchestrator) setJobStatus(id string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[id]; ok {
		j.Status = status
		j.Error = errMsg
	}
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

// GetJob returns a job by id, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[id]
}

// ListJobs returns all known jobs.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	return out
}

// CancelJob cancels a running job, if any.
func (o *Orchestrator) CancelJob(id string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[id]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels all jobs and releases all sessions.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()
	for _, c := range cancels {
		c()
	}

	o.mu.Lock()
	sessions := make([]*session.Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.sessions = map[string]*session.Session{}
	o.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

// String implements fmt.Stringer for logging.
func (j *Job) String() string {
	return fmt.Sprintf("job %s session=%s goals=%d status=%s", j.ID, j.SessionID, j.Goals, j.Status)
}
