package server

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/uorlab/primeseek/internal/app"
	"github.com/uorlab/primeseek/internal/config"
	"github.com/uorlab/primeseek/internal/interfaces"
	"github.com/uorlab/primeseek/internal/logging"
	"github.com/uorlab/primeseek/internal/store"

	_ "github.com/uorlab/primeseek/docs/swagger" // swagger spec registration
)

// Server is the HTTP + WebSocket API surface for primeseek.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       interfaces.Logger
	st           *store.Store
}

// NewServer creates a new Server with its own Orchestrator.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}
	if cfg.AppConfig.App == nil {
		cfg.AppConfig.App = config.Default()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	var st *store.Store
	if !cfg.AppConfig.DisableStore {
		var err error
		st, err = store.Open(cfg.AppConfig.App.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
	}

	orch := app.NewOrchestrator(cfg.AppConfig, st, logger)

	r := chi.NewRouter()
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       r,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		st: st,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/sessions", s.optionsHandler("GET, POST"))
	r.Options("/api/sessions/{id}", s.optionsHandler("GET, DELETE"))
	r.Options("/api/sessions/{id}/step", s.optionsHandler("POST"))
	r.Options("/api/sessions/{id}/run", s.optionsHandler("POST"))
	r.Options("/api/sessions/{id}/input", s.optionsHandler("POST"))
	r.Options("/api/sessions/{id}/jobs", s.optionsHandler("POST"))
	r.Options("/api/jobs", s.optionsHandler("GET"))
	r.Options("/api/jobs/{jobID}", s.optionsHandler("GET, DELETE"))

	// Sessions
	r.Post("/api/sessions", s.handleCreateSession)
	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Delete("/api/sessions/{id}", s.handleCloseSession)

	// Session control
	r.Post("/api/sessions/{id}/step", s.handleStep)
	r.Post("/api/sessions/{id}/run", s.handleRun)
	r.Post("/api/sessions/{id}/input", s.handleProvideInput)

	// Session introspection
	r.Get("/api/sessions/{id}/program", s.handleGetProgram)
	r.Get("/api/sessions/{id}/attempts", s.handleListAttempts)
	r.Get("/api/sessions/{id}/snapshots", s.handleListSnapshots)
	r.Get("/api/sessions/{id}/snapshots/diff", s.handleDiffSnapshots)
	r.Get("/api/sessions/{id}/reflection", s.handleReflection)

	// Strategies
	r.Get("/api/strategies", s.handleListStrategies)

	// Episode jobs
	r.Post("/api/sessions/{id}/jobs", s.handleStartEpisodeJob)
	r.Get("/api/jobs", s.handleListJobs)
	r.Get("/api/jobs/{jobID}", s.handleGetJob)
	r.Delete("/api/jobs/{jobID}", s.handleCancelJob)

	// WebSockets for live streams
	r.Get("/ws/sessions/{id}", s.handleSessionWS)
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)

	// Interactive API docs
	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []interfaces.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, interfaces.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, interfaces.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and underlying resources.
func (s *Server) Close() {
	if s.orchestrator != nil {
		s.orchestrator.Close()
	}
	if s.st != nil {
		s.st.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}
