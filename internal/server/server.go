// Package server exposes the line engine over HTTP.
//
// Endpoints:
//   - GET /lines/{n} - content of the 1-based line n, text/plain
//   - GET /health    - engine status
//   - GET /stats     - build and traffic counters
//
// Status mapping for /lines/{n}: 400 when n is not a positive integer,
// 413 when n is beyond the last line, 404 when the engine reports the
// line unavailable, 200 otherwise.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linewise/lineserve/internal/engine"
	"github.com/linewise/lineserve/internal/stats"
	"github.com/linewise/lineserve/internal/ui"
)

// DefaultPort is the port used when none is configured.
const DefaultPort = 8060

// Config describes a server instance.
type Config struct {
	Addr    string
	Engine  *engine.Engine
	Stats   *stats.Collector
	Version string
}

// Server serves line queries for one engine.
type Server struct {
	cfg    Config
	router *http.ServeMux
	srv    *http.Server
}

// New creates a Server. The engine must already be built.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = fmt.Sprintf("127.0.0.1:%d", DefaultPort)
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	s := &Server{
		cfg:    cfg,
		router: http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /lines/{n}", s.handleLine)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(),
	)(s.router)
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("server listening", "addr", s.cfg.Addr, "file", s.cfg.Engine.Path())
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	slog.Info("server shutting down")
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	s.cfg.Stats.AddRequests(1)

	raw := r.PathValue("n")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("line number %q must be a positive integer", raw))
		return
	}

	if n > s.cfg.Engine.LineCount() {
		s.cfg.Stats.AddNotFound(1)
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("line %d beyond end of file (%d lines)", n, s.cfg.Engine.LineCount()))
		return
	}

	line, err := s.cfg.Engine.GetLine(n)
	if err != nil {
		if errors.Is(err, engine.ErrLineNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("line %d not found", n))
			return
		}
		s.writeError(w, http.StatusInternalServerError, "line retrieval failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, line)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	File       string `json:"file"`
	FileBytes  int64  `json:"file_bytes"`
	Lines      int64  `json:"lines"`
	IndexMode  string `json:"index_mode"`
	ReadMethod string `json:"read_method"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	e := s.cfg.Engine
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    s.cfg.Version,
		File:       e.Path(),
		FileBytes:  e.Size(),
		Lines:      e.LineCount(),
		IndexMode:  e.Mode().String(),
		ReadMethod: e.ReadMethod(),
	})
}

// StatsResponse is the /stats payload.
type StatsResponse struct {
	Requests      int64  `json:"requests"`
	LinesServed   int64  `json:"lines_served"`
	NotFound      int64  `json:"not_found"`
	BytesServed   int64  `json:"bytes_served"`
	BytesScanned  int64  `json:"bytes_scanned"`
	LinesIndexed  int64  `json:"lines_indexed"`
	BuildDuration string `json:"build_duration"`
	Uptime        string `json:"uptime"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.cfg.Stats.Snapshot()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Requests:      snap.Requests,
		LinesServed:   snap.LinesServed,
		NotFound:      snap.NotFound,
		BytesServed:   snap.BytesServed,
		BytesScanned:  snap.BytesScanned,
		LinesIndexed:  snap.LinesIndexed,
		BuildDuration: ui.FormatDuration(snap.BuildDuration),
		Uptime:        ui.FormatDuration(snap.Uptime),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
