package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/engine"
)

// maxRequestBody bounds the accepted request size; submissions are capped
// well below this by the security validator anyway.
const maxRequestBody = 1 << 20

// Executor is the execution surface behind the HTTP handlers.
type Executor interface {
	Execute(ctx context.Context, req engine.Request) engine.Result
	Languages() []string
	Ready(ctx context.Context) bool
}

// Server is the REST transport for the execution engine.
type Server struct {
	logger   *zap.Logger
	executor Executor
	addr     string
	router   chi.Router
}

// New creates the REST server.
func New(cfg *config.Config, logger *zap.Logger, executor Executor) *Server {
	s := &Server{
		logger:   logger,
		executor: executor,
		addr:     fmt.Sprintf(":%d", cfg.Server.HTTPPort),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/execute", s.handleExecute)
		r.Get("/languages", s.handleLanguages)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts the HTTP server and blocks until it stops.
func (s *Server) Serve() error {
	s.logger.Info("starting REST server", zap.String("addr", s.addr))
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req engine.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.sendError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.sendError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	if req.Language == "" {
		s.sendError(w, "language is required", http.StatusBadRequest)
		return
	}
	if req.SourceCode == "" {
		s.sendError(w, "sourceCode is required", http.StatusBadRequest)
		return
	}

	result := s.executor.Execute(r.Context(), req)
	s.sendJSON(w, http.StatusOK, result)
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string][]string{
		"languages": s.executor.Languages(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.executor.Ready(r.Context()) {
		s.sendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, message string, status int) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// logRequests logs one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
