package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/probe"
	"github.com/hamed0406/netwatch/internal/registry"
	"github.com/hamed0406/netwatch/internal/status"
)

// Listener receives every completed cycle together with the change events it
// produced. Listeners run on the coordinator goroutine; a slow listener
// delays the next cycle, not the probes.
type Listener interface {
	OnCycle(ctx context.Context, snap *domain.Snapshot, events []domain.ChangeEvent)
}

type Config struct {
	Interval      time.Duration // cycle period; 30s when unset
	RetryAttempts int           // per-target attempts per cycle; 3 when unset
	RetryBackoff  time.Duration // pause between attempts; zero is a valid choice
}

// cycleMargin pads the per-cycle deadline beyond the worst-case retry series.
const cycleMargin = 2 * time.Second

// Coordinator drives probe cycles: an eager pass at startup, then one per
// interval tick or TriggerNow kick. At most one cycle is ever in flight;
// signals arriving mid-cycle coalesce into a single follow-up.
type Coordinator struct {
	Logger    *zap.Logger
	Registry  *registry.Registry
	Tracker   *status.Tracker
	Listeners []Listener

	cfg     Config
	checker probe.Checker
	kick    chan struct{}
}

// New wraps checker in the retry policy from cfg. checker is the
// single-attempt prober, typically a probe.Mux.
func New(logger *zap.Logger, reg *registry.Registry, checker probe.Checker, tracker *status.Tracker, cfg Config, listeners ...Listener) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	return &Coordinator{
		Logger:    logger,
		Registry:  reg,
		Tracker:   tracker,
		Listeners: listeners,
		cfg:       cfg,
		checker:   &probe.Retrier{Inner: checker, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff},
		kick:      make(chan struct{}, 1),
	}
}

// TriggerNow requests an immediate cycle. Safe from any goroutine; requests
// made while a cycle is running coalesce into one.
func (c *Coordinator) TriggerNow() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	t := time.NewTicker(c.cfg.Interval)
	defer t.Stop()

	c.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("coordinator_stopped")
			return
		case <-t.C:
		case <-c.kick:
		}
		c.RunCycle(ctx)
	}
}

// RunCycle executes one full probe cycle: read the target set once, probe
// every target concurrently, join, publish. A cycle interrupted by ctx
// cancellation publishes nothing and returns nil; shutdown abandons in-flight
// probes instead of draining them.
func (c *Coordinator) RunCycle(ctx context.Context) *domain.Snapshot {
	targets := c.Registry.Enabled()
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, c.cycleDeadline(targets))
	defer cancel()

	results := make([]domain.ProbeResult, len(targets))
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt domain.Target) {
			defer wg.Done()
			results[i] = c.checker.Check(cctx, tgt)
		}(i, tgt)
	}
	wg.Wait()

	if ctx.Err() != nil {
		c.Logger.Info("cycle_abandoned", zap.Int("targets", len(targets)))
		return nil
	}

	snap := &domain.Snapshot{
		TakenAt:    time.Now().UTC(),
		DurationMS: time.Since(start).Seconds() * 1000,
		Results:    results,
	}
	events := c.Tracker.Publish(snap)

	online := 0
	for _, r := range results {
		if r.Online() {
			online++
			continue
		}
		c.Logger.Debug("probe_offline",
			zap.String("target", r.Name),
			zap.String("reason", r.Reason),
			zap.Int("attempts", r.Attempts),
		)
	}
	c.Logger.Info("cycle_done",
		zap.Int("targets", len(targets)),
		zap.Int("online", online),
		zap.Int("offline", len(targets)-online),
		zap.Int("changes", len(events)),
		zap.Float64("duration_ms", snap.DurationMS),
	)
	for _, e := range events {
		c.Logger.Info("state_changed",
			zap.String("target", e.Name),
			zap.String("from", string(e.From)),
			zap.String("to", string(e.To)),
		)
	}

	for _, l := range c.Listeners {
		l.OnCycle(ctx, snap, events)
	}
	return snap
}

// cycleDeadline bounds a whole cycle by the worst-case retry series of the
// slowest target plus a coordination margin.
func (c *Coordinator) cycleDeadline(targets []domain.Target) time.Duration {
	var maxTimeout time.Duration
	for _, t := range targets {
		if t.Timeout > maxTimeout {
			maxTimeout = t.Timeout
		}
	}
	attempts := time.Duration(c.cfg.RetryAttempts)
	return maxTimeout*attempts + c.cfg.RetryBackoff*(attempts-1) + cycleMargin
}
