package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/session"
	"github.com/uorlab/primeseek/internal/store"
	"github.com/uorlab/primeseek/internal/strategy"
)

type createSessionRequest struct {
	Strategy string `json:"strategy,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
	Manual   bool   `json:"manual,omitempty"`
}

type provideInputRequest struct {
	Value int `json:"value"`
}

type startJobRequest struct {
	Goals int `json:"goals"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleCreateSession godoc
// @Summary Create a session
// @Description Starts a new goal-seeking session with an optional strategy and seed.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body createSessionRequest true "Session options"
// @Success 201 {object} session.State
// @Failure 400 {object} errorResponse
// @Router /api/sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.logger.Warn("bad create session body", interfaces.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	sess, err := s.orchestrator.CreateSession(session.Options{
		Strategy: req.Strategy,
		Seed:     req.Seed,
		Manual:   req.Manual,
	})
	if err != nil {
		s.logger.Warn("create session failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sess.State())
}

// handleListSessions godoc
// @Summary List sessions
// @Description Returns the state of every live session.
// @Tags sessions
// @Produce json
// @Success 200 {array} session.State
// @Router /api/sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListSessionStates())
}

// handleGetSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.State
// @Failure 404 {object} errorResponse
// @Router /api/sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// handleCloseSession godoc
// @Summary Close a session
// @Description Removes a session from the registry. Persisted history stays in the store.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204 "closed"
// @Failure 404 {object} errorResponse
// @Router /api/sessions/{id} [delete]
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.CloseSession(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStep godoc
// @Summary Step a session
// @Description Executes a single VM instruction, answering the feedback protocol as needed.
// @Tags control
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.State
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/sessions/{id}/step [post]
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	st, err := sess.Step(r.Context())
	if err != nil {
		s.logger.Warn("step failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleRun godoc
// @Summary Run one attempt
// @Description Drives the session until it completes exactly one attempt.
// @Tags control
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.State
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/sessions/{id}/run [post]
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	st, err := sess.RunAttempt(r.Context())
	if err != nil {
		s.logger.Warn("run attempt failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleProvideInput godoc
// @Summary Answer an input request
// @Description Supplies a value to a manual session parked on an input instruction.
// @Tags control
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body provideInputRequest true "Input value"
// @Success 200 {object} session.State
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/sessions/{id}/input [post]
func (s *Server) handleProvideInput(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var req provideInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	st, err := sess.ProvideInput(r.Context(), req.Value)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleGetProgram godoc
// @Summary Current program listing
// @Description Returns the session's live program, one chunk per address.
// @Tags introspection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.State
// @Failure 404 {object} errorResponse
// @Router /api/sessions/{id}/program [get]
func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	st := sess.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      st.ID,
		"program": st.Program,
	})
}

// handleListAttempts godoc
// @Summary Attempt history
// @Description Returns the persisted attempts for a session, oldest first.
// @Tags introspection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} store.AttemptRecord
// @Failure 404 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /api/sessions/{id}/attempts [get]
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	attempts, err := st.ListAttempts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Warn("list attempts failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// handleListSnapshots godoc
// @Summary Program snapshots
// @Description Returns the program snapshots taken whenever the session rewrote itself.
// @Tags introspection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} store.SnapshotRecord
// @Failure 503 {object} errorResponse
// @Router /api/sessions/{id}/snapshots [get]
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	snaps, err := st.ListSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Warn("list snapshots failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleDiffSnapshots godoc
// @Summary Diff two snapshots
// @Description Line diff between two program snapshots of the same session.
// @Tags introspection
// @Produce json
// @Param id path string true "Session ID"
// @Param base query string true "Base snapshot ID"
// @Param head query string true "Head snapshot ID"
// @Success 200 {object} store.SnapshotDiff
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /api/sessions/{id}/snapshots/diff [get]
func (s *Server) handleDiffSnapshots(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}
	base := r.URL.Query().Get("base")
	head := r.URL.Query().Get("head")
	if base == "" || head == "" {
		writeError(w, http.StatusBadRequest, "base and head query parameters are required")
		return
	}
	diff, err := st.DiffSnapshots(r.Context(), base, head)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// handleReflection godoc
// @Summary Session reflection
// @Description Summarizes the session's accumulated experience as patterns and a narrative.
// @Tags introspection
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} reflection.Reflection
// @Failure 404 {object} errorResponse
// @Router /api/sessions/{id}/reflection [get]
func (s *Server) handleReflection(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.Reflect())
}

// handleListStrategies godoc
// @Summary List advisor strategies
// @Produce json
// @Tags strategies
// @Success 200 {array} string
// @Router /api/strategies [get]
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, strategy.List())
}

// handleStartEpisodeJob godoc
// @Summary Start an episode job
// @Description Drives the session in the background until it completes the requested goals.
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body startJobRequest true "Goal count"
// @Success 202 {object} app.Job
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/sessions/{id}/jobs [post]
func (s *Server) handleStartEpisodeJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Goals == 0 {
		if n, err := strconv.Atoi(r.URL.Query().Get("goals")); err == nil {
			req.Goals = n
		}
	}

	job, err := s.orchestrator.StartEpisodeJob(r.Context(), chi.URLParam(r, "id"), req.Goals)
	if err != nil {
		s.logger.Warn("start episode job failed", interfaces.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// handleListJobs godoc
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /api/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListJobs())
}

// handleGetJob godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} errorResponse
// @Router /api/jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 202 {object} app.Job
// @Failure 404 {object} errorResponse
// @Router /api/jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.orchestrator.CancelJob(job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// handleSessionWS streams session events over a websocket until the client
// disconnects or the session closes its event stream.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sess := s.orchestrator.GetSession(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", interfaces.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	for ev := range sess.Events() {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("session websocket write failed", interfaces.Field{Key: "error", Value: err.Error()})
			return
		}
	}
}

// handleJobWS streams job events over a websocket. A write failure cancels
// the job since nobody is watching it anymore.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", interfaces.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("job websocket write failed", interfaces.Field{Key: "error", Value: err.Error()})
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}
