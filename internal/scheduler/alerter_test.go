package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
)

type memNotifier struct {
	mu    sync.Mutex
	fail  bool
	calls []struct{ title, text string }
}

func (m *memNotifier) Send(ctx context.Context, title, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, struct{ title, text string }{title, text})
	if m.fail {
		return errors.New("webhook unreachable")
	}
	return nil
}

func (m *memNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *memNotifier) last() struct{ title, text string } {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func alertSnap(at time.Time, state domain.State) *domain.Snapshot {
	reason := ""
	attempts := 1
	if state == domain.StateOffline {
		reason = "connection_refused"
		attempts = 3
	}
	return &domain.Snapshot{
		TakenAt: at,
		Results: []domain.ProbeResult{{
			Name:      "ollama",
			URL:       "http://localhost:11434",
			State:     state,
			Reason:    reason,
			Attempts:  attempts,
			CheckedAt: at,
		}},
	}
}

func transition(at time.Time, from, to domain.State) []domain.ChangeEvent {
	return []domain.ChangeEvent{{Name: "ollama", From: from, To: to, At: at}}
}

func TestAlerter_SendsOnDown(t *testing.T) {
	n := &memNotifier{}
	a := NewAlerter(zap.NewNop(), n, AlerterConfig{Cooldown: 5 * time.Minute})

	at := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	a.OnCycle(context.Background(), alertSnap(at, domain.StateOffline), transition(at, domain.StateOnline, domain.StateOffline))

	if n.count() != 1 {
		t.Fatalf("want 1 send, got %d", n.count())
	}
	got := n.last()
	if !strings.Contains(got.title, "DOWN") || !strings.Contains(got.title, "ollama") {
		t.Fatalf("title: %q", got.title)
	}
	for _, want := range []string{"http://localhost:11434", "connection_refused", "Attempts: 3"} {
		if !strings.Contains(got.text, want) {
			t.Fatalf("text missing %q:\n%s", want, got.text)
		}
	}
}

func TestAlerter_CooldownSuppressesFlapping(t *testing.T) {
	n := &memNotifier{}
	a := NewAlerter(zap.NewNop(), n, AlerterConfig{AlertOnRecovery: true, Cooldown: 5 * time.Minute})

	t0 := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	down := func(at time.Time) {
		a.OnCycle(context.Background(), alertSnap(at, domain.StateOffline), transition(at, domain.StateOnline, domain.StateOffline))
	}
	up := func(at time.Time) {
		a.OnCycle(context.Background(), alertSnap(at, domain.StateOnline), transition(at, domain.StateOffline, domain.StateOnline))
	}

	down(t0)                    // sent
	up(t0.Add(1 * time.Minute)) // recovery, bypasses cooldown
	down(t0.Add(2 * time.Minute))
	if n.count() != 2 {
		t.Fatalf("second DOWN inside the cooldown must be suppressed, got %d sends", n.count())
	}
	down(t0.Add(10 * time.Minute))
	if n.count() != 3 {
		t.Fatalf("DOWN after the cooldown must be sent, got %d sends", n.count())
	}
}

func TestAlerter_RecoveryAlertsCanBeDisabled(t *testing.T) {
	n := &memNotifier{}
	a := NewAlerter(zap.NewNop(), n, AlerterConfig{AlertOnRecovery: false})

	at := time.Now().UTC()
	a.OnCycle(context.Background(), alertSnap(at, domain.StateOnline), transition(at, domain.StateOffline, domain.StateOnline))
	if n.count() != 0 {
		t.Fatalf("recovery alerts are disabled, got %d sends", n.count())
	}
}

func TestAlerter_FailedSendDoesNotStartCooldown(t *testing.T) {
	n := &memNotifier{fail: true}
	a := NewAlerter(zap.NewNop(), n, AlerterConfig{Cooldown: 5 * time.Minute})

	t0 := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	a.OnCycle(context.Background(), alertSnap(t0, domain.StateOffline), transition(t0, domain.StateOnline, domain.StateOffline))

	n.mu.Lock()
	n.fail = false
	n.mu.Unlock()

	// Next DOWN transition lands inside the window, but nothing was
	// delivered yet, so it must go out.
	t1 := t0.Add(1 * time.Minute)
	a.OnCycle(context.Background(), alertSnap(t1, domain.StateOffline), transition(t1, domain.StateOnline, domain.StateOffline))

	if n.count() != 2 {
		t.Fatalf("want a retry after a failed delivery, got %d attempts", n.count())
	}
}

func TestAlerter_NilNotifierIsSafe(t *testing.T) {
	a := NewAlerter(zap.NewNop(), nil, AlerterConfig{})
	at := time.Now().UTC()
	a.OnCycle(context.Background(), alertSnap(at, domain.StateOffline), transition(at, domain.StateOnline, domain.StateOffline))
}
