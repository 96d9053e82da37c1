package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
}

// Alerter turns state transitions into notifications. Repeated DOWN alerts
// for a flapping target are suppressed inside Cooldown; recovery alerts
// bypass the cooldown so a bounce never goes unreported. Sends are
// best-effort and never affect probing.
type Alerter struct {
	logger   *zap.Logger
	notifier interface {
		Send(context.Context, string, string) error
	}
	cfg AlerterConfig

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewAlerter(
	logger *zap.Logger,
	notifier interface {
		Send(context.Context, string, string) error
	},
	cfg AlerterConfig,
) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Alerter{
		logger:   logger,
		notifier: notifier,
		cfg:      cfg,
		lastSent: make(map[string]time.Time),
	}
}

// OnCycle implements the coordinator Listener.
func (a *Alerter) OnCycle(ctx context.Context, snap *domain.Snapshot, events []domain.ChangeEvent) {
	if a.notifier == nil {
		return
	}
	for _, e := range events {
		res, _ := snap.Result(e.Name)

		switch e.To {
		case domain.StateOffline:
			if !a.cooled(e.Name, e.At) {
				a.logger.Debug("alert_suppressed", zap.String("target", e.Name))
				continue
			}
			if err := a.notifier.Send(ctx, "🔴 Target DOWN: "+e.Name, alertText(res)); err != nil {
				a.logger.Warn("alert_send_failed", zap.String("target", e.Name), zap.Error(err))
				continue
			}
			a.markSent(e.Name, e.At)
			a.logger.Info("alert_sent", zap.String("target", e.Name), zap.String("state", string(e.To)))

		case domain.StateOnline:
			if !a.cfg.AlertOnRecovery {
				continue
			}
			if err := a.notifier.Send(ctx, "🟢 Target RECOVERED: "+e.Name, alertText(res)); err != nil {
				a.logger.Warn("alert_send_failed", zap.String("target", e.Name), zap.Error(err))
				continue
			}
			a.logger.Info("alert_sent", zap.String("target", e.Name), zap.String("state", string(e.To)))
		}
	}
}

// cooled reports whether a DOWN alert for this target is outside the
// cooldown window.
func (a *Alerter) cooled(name string, at time.Time) bool {
	if a.cfg.Cooldown <= 0 {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	last, ok := a.lastSent[name]
	return !ok || at.Sub(last) >= a.cfg.Cooldown
}

func (a *Alerter) markSent(name string, at time.Time) {
	a.mu.Lock()
	a.lastSent[name] = at
	a.mu.Unlock()
}

func alertText(r domain.ProbeResult) string {
	latencyTxt := "n/a"
	if r.LatencyMS != nil {
		latencyTxt = fmt.Sprintf("%.0f ms", *r.LatencyMS)
	}
	statusTxt := "n/a"
	if r.StatusCode != nil {
		statusTxt = fmt.Sprintf("%d", *r.StatusCode)
	}
	reason := r.Reason
	if reason == "" {
		reason = "n/a"
	}
	return fmt.Sprintf(
		"URL: %s\nHTTP: %s\nLatency: %s\nReason: %s\nAttempts: %d\nChecked: %s",
		r.URL, statusTxt, latencyTxt, reason, r.Attempts, r.CheckedAt.Format(time.RFC3339),
	)
}
