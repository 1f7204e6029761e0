package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"bridgit/internal/config"
	"bridgit/internal/logging"
	"bridgit/internal/pipeline"
	"bridgit/internal/resultstore"
)

// Server exposes the relay's HTTP surface: intake, stage callbacks, result
// reads and writes, and health.
type Server struct {
	bind   string
	token  string
	logger *slog.Logger
	pipe   *pipeline.Pipeline
	store  *resultstore.Store

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds the server. A nil store disables the result endpoints' store
// paths; they answer as if every session were still in flight.
func New(cfg *config.Config, pipe *pipeline.Pipeline, store *resultstore.Store, logger *slog.Logger) *Server {
	srv := &Server{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logger,
		pipe:   pipe,
		store:  store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transcribe", authMiddleware(srv.token, srv.handleTranscribe))
	mux.HandleFunc("/callbacks/translate", authMiddleware(srv.token, srv.handleTranslateCallback))
	mux.HandleFunc("/callbacks/synthesize", authMiddleware(srv.token, srv.handleSynthesizeCallback))
	mux.HandleFunc("/callbacks/identity", authMiddleware(srv.token, srv.handleIdentityCallback))
	mux.HandleFunc("/result/", authMiddleware(srv.token, srv.handleResult))
	mux.HandleFunc("/healthz", srv.handleHealth)
	srv.handler = mux

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler returns the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return fmt.Errorf("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, sessionID string) {
	body := map[string]string{"error": message}
	if sessionID != "" {
		body["sessionId"] = sessionID
	}
	s.writeJSON(w, status, body)
}

func (s *Server) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
