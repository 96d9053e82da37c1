package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/registry"
	"github.com/hamed0406/netwatch/internal/status"
)

// Server exposes the status API consumed by dashboards and operators. The
// API is CORS-open because its consumers are browser dashboards served from
// other origins.
type Server struct {
	Logger   *zap.Logger
	Registry *registry.Registry
	Tracker  *status.Tracker
	Hub      *Hub
	Trigger  func() // requests an immediate probe cycle

	// Metrics serves GET /metrics when set (promhttp in production).
	Metrics http.Handler
	// RateLimit wraps the router when set.
	RateLimit func(http.Handler) http.Handler
}

func NewServer(l *zap.Logger, reg *registry.Registry, tracker *status.Tracker, hub *Hub, trigger func()) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Registry: reg, Tracker: tracker, Hub: hub, Trigger: trigger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	if s.RateLimit != nil {
		r.Use(s.RateLimit)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/status", s.handleStatus)
		api.Get("/targets", s.handleListTargets)
		api.Put("/targets", s.handleReplaceTargets)
		api.Post("/refresh", s.handleRefresh)
		if s.Hub != nil {
			api.Get("/status/ws", s.Hub.ServeWS)
		}
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.Tracker.Latest()
	if !ok {
		snap = s.pendingSnapshot()
	}
	writeJSON(w, http.StatusOK, snap)
}

// pendingSnapshot reports every enabled target as unknown until the first
// cycle lands. The daemon probes eagerly at startup, so this window is
// normally well under a second.
func (s *Server) pendingSnapshot() *domain.Snapshot {
	targets := s.Registry.Enabled()
	results := make([]domain.ProbeResult, len(targets))
	for i, t := range targets {
		results[i] = domain.ProbeResult{Name: t.Name, URL: t.URL, State: domain.StateUnknown}
	}
	return &domain.Snapshot{TakenAt: time.Now().UTC(), Results: results}
}

type targetPayload struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Enabled   *bool  `json:"enabled,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts := s.Registry.All()
	out := make([]targetPayload, len(ts))
	for i, t := range ts {
		enabled := t.Enabled
		out[i] = targetPayload{
			Name:      t.Name,
			URL:       t.URL,
			Enabled:   &enabled,
			TimeoutMS: int(t.Timeout / time.Millisecond),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": out})
}

// handleReplaceTargets swaps the whole target set. Validation failure leaves
// the running set untouched and reports every offending entry.
func (s *Server) handleReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Targets []targetPayload `json:"targets"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	ts := make([]domain.Target, len(payload.Targets))
	for i, p := range payload.Targets {
		enabled := true
		if p.Enabled != nil {
			enabled = *p.Enabled
		}
		timeout := time.Duration(p.TimeoutMS) * time.Millisecond
		if timeout <= 0 {
			timeout = domain.DefaultTimeout
		}
		ts[i] = domain.Target{Name: p.Name, URL: p.URL, Enabled: enabled, Timeout: timeout}
	}

	if err := s.Registry.Replace(ts); err != nil {
		s.Logger.Warn("targets_rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Logger.Info("targets_replaced", zap.Int("count", len(ts)))
	if s.Trigger != nil {
		s.Trigger()
	}
	writeJSON(w, http.StatusOK, map[string]int{"targets": len(ts)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.Trigger != nil {
		s.Trigger()
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
