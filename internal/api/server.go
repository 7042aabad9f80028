package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caucus-labs/caucus/internal/analysis"
	"github.com/caucus-labs/caucus/internal/events"
	"github.com/caucus-labs/caucus/internal/registry"
	"github.com/caucus-labs/caucus/internal/session"
)

// Runner executes a requested session end to end and returns its report.
type Runner interface {
	RunSession(ctx context.Context, req events.SessionRequest) (*analysis.Report, error)
}

// ReportSource fetches the latest stored report for a session. A (nil, nil)
// return means the session has no report yet.
type ReportSource interface {
	LatestReport(ctx context.Context, sessionID string) (*analysis.Report, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	runner  Runner
	reports ReportSource
}

func NewServer(port int, runner Runner, reports ReportSource) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		runner:  runner,
		reports: reports,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/caucus/status", s.status)
	router.Post("/api/v1/sessions", s.runSession)
	router.Get("/api/v1/sessions/{sessionID}/report", s.sessionReport)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"service": "caucus",
		"status":  "ready",
	})
}

// runSession handles POST /api/v1/sessions. The session runs synchronously;
// the response is its full report.
func (s *Server) runSession(w http.ResponseWriter, r *http.Request) {
	var req events.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	report, err := s.runner.RunSession(r.Context(), req)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidWeight) || errors.Is(err, session.ErrInvalidSessionConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(report)
}

// sessionReport handles GET /api/v1/sessions/{sessionID}/report.
func (s *Server) sessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := s.reports.LatestReport(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no report for session "+sessionID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
