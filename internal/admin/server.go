// Package admin exposes a small JSON status endpoint over the counter
// store for local inspection.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"packetops-sim/internal/stats"
)

// Server serves read-only counter snapshots.
type Server struct {
	store    *stats.Store
	hostname string
	mux      *http.ServeMux
}

// NewServer creates a status server over the given store.
func NewServer(store *stats.Store, hostname string) *Server {
	s := &Server{store: store, hostname: hostname, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/totals", s.handleTotals)
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

// Handler returns the underlying mux, used by tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statsResponse struct {
	Hostname     string                 `json:"hostname"`
	PacketsIn    uint64                 `json:"packets_in"`
	PacketsOut   uint64                 `json:"packets_out"`
	Sources      []stats.EntityCounters `json:"sources"`
	Destinations []stats.EntityCounters `json:"destinations"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	in, out := s.store.Totals()
	resp := statsResponse{
		Hostname:     s.hostname,
		PacketsIn:    in,
		PacketsOut:   out,
		Sources:      s.store.SnapshotSources(),
		Destinations: s.store.SnapshotDestinations(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	in, out := s.store.Totals()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]uint64{"packets_in": in, "packets_out": out})
}
