package app

import (
	"context"
	"testing"
	"time"

	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/session"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DisableStore = true
	o := NewOrchestrator(cfg, nil, interfaces.NewTestLogger(false))
	t.Cleanup(o.Close)
	return o
}

func TestCreateAndLookupSession(t *testing.T) {
	o := newOrchestrator(t)
	s, err := o.CreateSession(session.Options{Seed: 1})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if got := o.GetSession(s.ID().String()); got != s {
		t.Error("lookup returned different session")
	}
	states := o.ListSessionStates()
	if len(states) != 1 || states[0].ID != s.ID().String() {
		t.Errorf("states = %+v", states)
	}
	if err := o.CloseSession(s.ID().String()); err != nil {
		t.Errorf("CloseSession: %v", err)
	}
	if o.GetSession(s.ID().String()) != nil {
		t.Error("session still registered after close")
	}
	if err := o.CloseSession("missing"); err != ErrSessionNotFound {
		t.Errorf("missing close err = %v", err)
	}
}

func TestEpisodeJobCompletesGoals(t *testing.T) {
	o := newOrchestrator(t)
	s, err := o.CreateSession(session.Options{Seed: 17})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	job, err := o.StartEpisodeJob(context.Background(), s.ID().String(), 1)
	if err != nil {
		t.Fatalf("StartEpisodeJob: %v", err)
	}

	var last JobEvent
	deadline := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-job.Events:
			if !ok {
				if last.Type != JobEventResult {
					t.Fatalf("stream ended on %+v", last)
				}
				if got := o.GetJob(job.ID); got == nil || got.Status != JobDone || got.Result == nil {
					t.Fatalf("job after completion = %+v", got)
				}
				return
			}
			last = ev
		case <-deadline:
			t.Fatal("job did not finish")
		}
	}
}

func TestEpisodeJobUnknownSession(t *testing.T) {
	o := newOrchestrator(t)
	if _, err := o.StartEpisodeJob(context.Background(), "nope", 1); err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestCancelEpisodeJob(t *testing.T) {
	o := newOrchestrator(t)
	s, err := o.CreateSession(session.Options{Seed: 2})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	// A huge goal count keeps the job running long enough to cancel.
	job, err := o.StartEpisodeJob(context.Background(), s.ID().String(), 100000)
	if err != nil {
		t.Fatalf("StartEpisodeJob: %v", err)
	}
	o.CancelJob(job.ID)

	deadline := time.After(30 * time.Second)
	for {
		select {
		case _, ok := <-job.Events:
			if !ok {
				got := o.GetJob(job.ID)
				if got.Status != JobCanceled && got.Status != JobDone {
					t.Fatalf("status after cancel = %s", got.Status)
				}
				return
			}
		case <-deadline:
			t.Fatal("job did not stop after cancel")
		}
	}
}
