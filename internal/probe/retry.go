package probe

import (
	"context"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Retrier re-runs a checker until it reports online or attempts run out.
// Tries are strictly sequential with Backoff between them, so a flaky target
// never sees a burst. The returned result carries the number of tries
// actually made.
type Retrier struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *Retrier) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var res domain.ProbeResult
	for i := 1; i <= attempts; i++ {
		res = r.Inner.Check(ctx, target)
		res.Attempts = i
		if res.State == domain.StateOnline || ctx.Err() != nil {
			return res
		}
		if i < attempts {
			select {
			case <-ctx.Done():
				return res
			case <-time.After(r.Backoff):
			}
		}
	}
	return res
}
