// Package health serves liveness and readiness probes over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency, reporting health and a short detail line.
type CheckFunc func(ctx context.Context) (healthy bool, detail string)

// report is the /health response body.
type report struct {
	Status    string           `json:"status"`
	Version   string           `json:"version,omitempty"`
	UptimeSec int64            `json:"uptime_seconds"`
	Checks    map[string]check `json:"checks,omitempty"`
}

type check struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Server exposes /live, /ready and /health on a dedicated port so probes
// stay reachable regardless of what the main workload is doing.
type Server struct {
	port      int
	version   string
	startedAt time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc

	listener net.Listener
	server   *http.Server
}

// NewServer creates a probe server for the given port.
func NewServer(port int, version string) *Server {
	return &Server{
		port:      port,
		version:   version,
		startedAt: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency probe. Registering the same name
// again replaces the previous probe. Checks may be registered after Start.
func (s *Server) RegisterCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = fn
}

// Start binds the port and begins serving probes. The bind happens
// synchronously so a port conflict surfaces here rather than in a goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/health", s.handleHealth)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("bind health port %d: %w", s.port, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = s.server.Serve(listener)
	}()

	return nil
}

// Addr returns the bound listen address, useful when port 0 was requested.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the probe server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) snapshot() map[string]CheckFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]CheckFunc, len(s.checks))
	for name, fn := range s.checks {
		out[name] = fn
	}
	return out
}

func (s *Server) runChecks(ctx context.Context) (map[string]check, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(map[string]check)
	healthy := true
	for name, fn := range s.snapshot() {
		ok, detail := fn(ctx)
		results[name] = check{Healthy: ok, Detail: detail}
		healthy = healthy && ok
	}
	return results, healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, healthy := s.runChecks(r.Context())

	rep := report{
		Status:    "ok",
		Version:   s.version,
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
		Checks:    results,
	}
	if !healthy {
		rep.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(rep)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, healthy := s.runChecks(r.Context()); !healthy {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ready")
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "alive")
}
