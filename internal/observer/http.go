package observer

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// nodeNames are the five sub-device names the HTTP surface filters events
// by.
var nodeNames = []string{"north", "east", "south", "west", "center"}

// Server is the observer HTTP surface, built the way internal/api wraps
// *http.Server behind a functional-options constructor.
type Server struct {
	*http.Server

	cache *Cache

	mu    sync.Mutex
	nodes map[string]bool
}

// Option configures a Server at construction time.
type Option func(*Server)

// NewServer builds a Server backed by cache; call Option functions to wire
// the bind address, base context, and registry.
func NewServer(cache *Cache, options ...Option) *Server {
	s := &Server{Server: &http.Server{}, cache: cache, nodes: make(map[string]bool)}
	mux := http.NewServeMux()
	s.register(mux)
	s.Handler = mux
	for _, o := range options {
		o(s)
	}
	return s
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.Addr = addr }
}

// WithBaseContext binds ctx as the server's base context, so a cancelled
// parent context fails new accepts.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) { s.BaseContext = func(net.Listener) context.Context { return ctx } }
}

// WithMetricsRegistry exposes GET /metrics over reg, the same optional
// promhttp.Handler() wiring internal/api offers.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		mux, ok := s.Handler.(*http.ServeMux)
		if !ok {
			return
		}
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
}

// NoteNode records node as known, for GET /nodes.
func (s *Server) NoteNode(node string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node] = true
}

func (s *Server) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /nodes", s.handleListNodes)
	mux.HandleFunc("GET /nodes/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /nodes/{id}/events/{device}", s.handleEvents)
	mux.HandleFunc("GET /nodes/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /nodes/{id}/status/{device}", s.handleStatus)
	mux.HandleFunc("POST /clear", s.handleClear)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	writeJSON(w, ids)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	node := r.PathValue("id")
	device := r.PathValue("device")
	stream := Stream(r.URL.Query().Get("stream"))
	if stream == "" {
		stream = StreamEvents
	}

	lines := []string{}
	for _, d := range devicesFor(device) {
		for _, rec := range s.cache.List(node, d, stream) {
			lines = append(lines, FormatLine(rec, stream))
		}
	}
	writeJSON(w, lines)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	node := r.PathValue("id")
	device := r.PathValue("device")

	out := map[string]string{}
	for _, d := range devicesFor(device) {
		recs := s.cache.List(node, d, StreamStatus)
		if len(recs) == 0 {
			continue
		}
		out[d] = FormatLine(recs[len(recs)-1], StreamStatus)
	}
	writeJSON(w, out)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func devicesFor(device string) []string {
	if device == "" {
		return nodeNames
	}
	return []string{device}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
