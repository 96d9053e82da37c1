package status

import (
	"sync"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Tracker retains the current and previous snapshot, nothing older. History
// belongs to whatever scrapes /metrics or the API; two snapshots are exactly
// what detecting a transition needs.
type Tracker struct {
	mu   sync.RWMutex
	prev *domain.Snapshot
	cur  *domain.Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Publish installs snap as the current snapshot and returns the state
// transitions relative to the one it replaced. The first publish is the
// baseline and returns no events.
func (t *Tracker) Publish(snap *domain.Snapshot) []domain.ChangeEvent {
	t.mu.Lock()
	prev := t.cur
	t.prev, t.cur = t.cur, snap
	t.mu.Unlock()
	return domain.Diff(prev, snap)
}

// Latest returns the most recent snapshot, or false before the first cycle
// completes.
func (t *Tracker) Latest() (*domain.Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur, t.cur != nil
}
