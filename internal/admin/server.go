// Package admin serves a small HTTP surface next to the game port: a health
// check and a stats snapshot for operators.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pvidal/battlegrid/internal/services/auth"
	"github.com/pvidal/battlegrid/internal/services/match"
	"github.com/pvidal/battlegrid/internal/services/session"
)

// Stats is the payload of GET /stats.
type Stats struct {
	Connected       int `json:"connected"`
	LoggedIn        int `json:"logged_in"`
	LiveMatches     int `json:"live_matches"`
	RegisteredUsers int `json:"registered_users"`
}

// Server is the admin HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger

	auth     *auth.Service
	sessions *session.Registry
	matches  *match.Registry
}

// New creates the admin server listening on addr.
func New(
	addr string,
	logger *slog.Logger,
	authService *auth.Service,
	sessions *session.Registry,
	matches *match.Registry,
) *Server {
	s := &Server{
		logger:   logger,
		auth:     authService,
		sessions: sessions,
		matches:  matches,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests. Blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("admin server listening", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	connected, loggedIn := s.sessions.Counts()
	stats := Stats{
		Connected:       connected,
		LoggedIn:        loggedIn,
		LiveMatches:     s.matches.Live(),
		RegisteredUsers: s.auth.UserCount(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.logger.Error("encoding stats failed", slog.String("error", err.Error()))
	}
}
