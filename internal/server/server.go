// Package server exposes the progression engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/logging"
	"github.com/nvandessel/lvlup/internal/progression"
	"github.com/nvandessel/lvlup/internal/ratelimit"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Config holds server settings.
type Config struct {
	// Addr is the listen address. Defaults to localhost:5000.
	Addr string

	// ModelPath is the 3D model served at /model.
	ModelPath string

	// Limits throttles requests per operation. Nil disables limiting.
	Limits ratelimit.Limits

	Logger *slog.Logger
}

// Server serves the stat API.
type Server struct {
	engine     *progression.Engine
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
	addr       string
}

// New creates a server backed by engine.
func New(engine *progression.Engine, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultAddr
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = constants.DefaultModelPath
	}
	return &Server{
		engine: engine,
		cfg:    cfg,
		logger: logging.OrDiscard(cfg.Logger),
	}
}

// Addr returns the address the server is listening on.
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /get_stats", s.handleStats)
	mux.HandleFunc("POST /update_stat", s.handleUpdate)
	mux.HandleFunc("GET /get_history", s.handleHistory)
	mux.HandleFunc("GET /model", s.handleModel)
	return s.logRequests(mux)
}

// ListenAndServe serves on the configured address and blocks until ctx is
// cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("serving stat API", "addr", ln.Addr().String(), "model", s.cfg.ModelPath)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
