package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uorlab/primeseek/internal/app"
	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/server"
	"github.com/uorlab/primeseek/internal/session"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	dir := t.TempDir()
	appCfg := app.DefaultConfig()
	appCfg.App.Storage.Root = dir
	appCfg.App.Storage.Path = filepath.Join(dir, "primeseek.db")

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		AppConfig:  appCfg,
		Logger:     interfaces.NewTestLogger(false),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func createSession(t *testing.T, s http.Handler, body string) *session.State {
	t.Helper()
	rec := doJSON(t, s, "POST", "/api/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var st session.State
	decodeJSON(t, rec, &st)
	if st.ID == "" {
		t.Fatal("create session: empty id")
	}
	return &st
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/sessions", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

// ─── Sessions ──────────────────────────────────────────────────────────

func TestServer_CreateAndGetSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 7, "strategy": "random"}`)
	if st.Strategy != "random" {
		t.Errorf("strategy = %q, want random", st.Strategy)
	}

	rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: status %d", rec.Code)
	}
	var got session.State
	decodeJSON(t, rec, &got)
	if got.ID != st.ID {
		t.Errorf("get returned id %q, want %q", got.ID, st.ID)
	}

	rec = doJSON(t, s, "GET", "/api/sessions", "")
	var all []session.State
	decodeJSON(t, rec, &all)
	if len(all) != 1 {
		t.Errorf("list returned %d sessions, want 1", len(all))
	}
}

func TestServer_CreateSession_UnknownStrategy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/sessions", `{"strategy": "telepathy"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_CloseSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 3}`)
	if rec := doJSON(t, s, "DELETE", "/api/sessions/"+st.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("close: status %d", rec.Code)
	}
	if rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after close: status %d, want 404", rec.Code)
	}
}

func TestServer_GetSession_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/sessions/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ─── Control ───────────────────────────────────────────────────────────

func TestServer_RunAttempt(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 11}`)
	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("run: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var after session.State
	decodeJSON(t, rec, &after)
	if after.TotalAttempts < 1 {
		t.Errorf("total_attempts = %d, want >= 1", after.TotalAttempts)
	}
}

func TestServer_Step(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 5}`)
	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/step", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("step: status %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestServer_ProvideInput_ManualSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 9, "manual": true}`)

	// Step until the machine parks waiting for an answer.
	parked := false
	for i := 0; i < 200 && !parked; i++ {
		rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/step", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("step %d: status %d (body: %s)", i, rec.Code, rec.Body.String())
		}
		var cur session.State
		decodeJSON(t, rec, &cur)
		parked = cur.Phase != session.PhaseRunning
	}
	if !parked {
		t.Fatal("session never parked for input")
	}

	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/input", `{"value": 42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("input: status %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestServer_ProvideInput_WrongPhase(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 4, "manual": true}`)
	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/input", `{"value": 1}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// ─── Introspection ─────────────────────────────────────────────────────

func TestServer_AttemptsPersisted(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 21}`)
	for i := 0; i < 3; i++ {
		if rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/run", ""); rec.Code != http.StatusOK {
			t.Fatalf("run %d: status %d", i, rec.Code)
		}
	}

	rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID+"/attempts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("attempts: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var attempts []map[string]any
	decodeJSON(t, rec, &attempts)
	if len(attempts) < 3 {
		t.Errorf("persisted %d attempts, want >= 3", len(attempts))
	}
}

func TestServer_ProgramListing(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 2}`)
	rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID+"/program", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("program: status %d", rec.Code)
	}
	var out struct {
		ID      string                `json:"id"`
		Program []session.ProgramLine `json:"program"`
	}
	decodeJSON(t, rec, &out)
	if out.ID != st.ID || len(out.Program) == 0 {
		t.Errorf("program response = %+v", out)
	}
}

func TestServer_DiffRequiresParams(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 8}`)
	rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID+"/snapshots/diff", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_DiffUnknownSnapshotIs404(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 10}`)
	rec := doJSON(t, s, "GET",
		"/api/sessions/"+st.ID+"/snapshots/diff?base=deadbeef&head=cafebabe", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestServer_Reflection(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 13}`)
	if rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/run", ""); rec.Code != http.StatusOK {
		t.Fatalf("run: status %d", rec.Code)
	}
	rec := doJSON(t, s, "GET", "/api/sessions/"+st.ID+"/reflection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reflection: status %d", rec.Code)
	}
	var out map[string]any
	decodeJSON(t, rec, &out)
	if out["narrative"] == "" {
		t.Error("reflection has empty narrative")
	}
	if out["self_assessment"] == nil || out["metacognitive_depth"] == nil {
		t.Errorf("reflection missing assessment fields: %v", out)
	}
}

// ─── Strategies ────────────────────────────────────────────────────────

func TestServer_ListStrategies(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/strategies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("strategies: status %d", rec.Code)
	}
	var names []string
	decodeJSON(t, rec, &names)
	found := false
	for _, n := range names {
		if n == "random" {
			found = true
		}
	}
	if !found {
		t.Errorf("strategies %v missing random", names)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func TestServer_EpisodeJobLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 6}`)
	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/jobs", `{"goals": 1}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start job: status %d (body: %s)", rec.Code, rec.Body.String())
	}
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &job)
	if job.ID == "" {
		t.Fatal("start job: empty id")
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		rec = doJSON(t, s, "GET", "/api/jobs/"+job.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get job: status %d", rec.Code)
		}
		var cur struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		decodeJSON(t, rec, &cur)
		if cur.Status == "done" {
			break
		}
		if cur.Status == "failed" || cur.Status == "canceled" {
			t.Fatalf("job ended %s: %s", cur.Status, cur.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s after deadline", cur.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}

	rec = doJSON(t, s, "GET", "/api/jobs", "")
	var jobs []map[string]any
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Errorf("list jobs returned %d, want 1", len(jobs))
	}
}

func TestServer_StartJob_UnknownSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/sessions/nope/jobs", `{"goals": 1}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServer_CancelJob(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	st := createSession(t, s, `{"seed": 14}`)
	rec := doJSON(t, s, "POST", "/api/sessions/"+st.ID+"/jobs", `{"goals": 100000}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start job: status %d", rec.Code)
	}
	var job struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &job)

	if rec = doJSON(t, s, "DELETE", fmt.Sprintf("/api/jobs/%s", job.ID), ""); rec.Code != http.StatusAccepted {
		t.Fatalf("cancel: status %d", rec.Code)
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		rec = doJSON(t, s, "GET", "/api/jobs/"+job.ID, "")
		var cur struct {
			Status string `json:"status"`
		}
		decodeJSON(t, rec, &cur)
		if cur.Status == "canceled" || cur.Status == "done" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s after cancel", cur.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
