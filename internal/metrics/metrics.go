package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Recorder exports cycle outcomes as Prometheus series. It implements the
// coordinator Listener. Per-target gauges are deleted when a target leaves
// the set so reloads do not strand stale series.
type Recorder struct {
	probesTotal      *prometheus.CounterVec
	targetUp         *prometheus.GaugeVec
	probeLatency     *prometheus.GaugeVec
	cyclesTotal      prometheus.Counter
	cycleDuration    prometheus.Histogram
	transitionsTotal *prometheus.CounterVec

	mu    sync.Mutex
	known map[string]bool
}

// NewRecorder registers the collectors on reg; pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		probesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_probes_total",
			Help: "Probe outcomes per target and state.",
		}, []string{"target", "state"}),
		targetUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netwatch_target_up",
			Help: "1 when the target's last probe was online, 0 otherwise.",
		}, []string{"target"}),
		probeLatency: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netwatch_probe_latency_ms",
			Help: "Latency of the last online probe in milliseconds.",
		}, []string{"target"}),
		cyclesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "netwatch_cycles_total",
			Help: "Completed probe cycles.",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "netwatch_cycle_duration_seconds",
			Help:    "Wall time of a full probe cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		transitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "netwatch_state_transitions_total",
			Help: "State changes between consecutive cycles.",
		}, []string{"target", "from", "to"}),
		known: make(map[string]bool),
	}
}

// OnCycle implements the coordinator Listener.
func (r *Recorder) OnCycle(_ context.Context, snap *domain.Snapshot, events []domain.ChangeEvent) {
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(snap.DurationMS / 1000)

	r.mu.Lock()
	current := make(map[string]bool, len(snap.Results))
	for _, res := range snap.Results {
		current[res.Name] = true
		r.probesTotal.WithLabelValues(res.Name, string(res.State)).Inc()
		up := 0.0
		if res.Online() {
			up = 1
		}
		r.targetUp.WithLabelValues(res.Name).Set(up)
		if res.LatencyMS != nil {
			r.probeLatency.WithLabelValues(res.Name).Set(*res.LatencyMS)
		}
	}
	for name := range r.known {
		if !current[name] {
			r.targetUp.DeleteLabelValues(name)
			r.probeLatency.DeleteLabelValues(name)
		}
	}
	r.known = current
	r.mu.Unlock()

	for _, e := range events {
		r.transitionsTotal.WithLabelValues(e.Name, string(e.From), string(e.To)).Inc()
	}
}
