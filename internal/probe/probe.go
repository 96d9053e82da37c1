package probe

import (
	"context"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Checker probes a single target once. Implementations never return an
// error: an unreachable endpoint is the data this system exists to report,
// so every failure mode folds into an offline result. Each checker bounds
// itself with the target's timeout; a hung probe is abandoned at that
// boundary.
type Checker interface {
	Check(ctx context.Context, target domain.Target) domain.ProbeResult
}

// Func adapts a plain function to the Checker interface.
type Func func(ctx context.Context, target domain.Target) domain.ProbeResult

func (f Func) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	return f(ctx, target)
}

func online(t domain.Target, latency time.Duration) domain.ProbeResult {
	ms := latency.Seconds() * 1000
	return domain.ProbeResult{
		Name:      t.Name,
		URL:       t.URL,
		State:     domain.StateOnline,
		LatencyMS: &ms,
		Attempts:  1,
		CheckedAt: time.Now().UTC(),
	}
}

func offline(t domain.Target, reason string) domain.ProbeResult {
	return domain.ProbeResult{
		Name:      t.Name,
		URL:       t.URL,
		State:     domain.StateOffline,
		Reason:    reason,
		Attempts:  1,
		CheckedAt: time.Now().UTC(),
	}
}
