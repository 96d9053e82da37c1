package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

func TestMux_DispatchesByScheme(t *testing.T) {
	var hit string
	m := NewMux()
	m.Register("http", Func(func(ctx context.Context, tg domain.Target) domain.ProbeResult {
		hit = "http"
		return online(tg, time.Millisecond)
	}))
	m.Register("tcp", Func(func(ctx context.Context, tg domain.Target) domain.ProbeResult {
		hit = "tcp"
		return online(tg, time.Millisecond)
	}))

	m.Check(context.Background(), domain.Target{Name: "a", URL: "tcp://db:5432", Timeout: time.Second})
	if hit != "tcp" {
		t.Fatalf("want tcp checker, hit %q", hit)
	}
	m.Check(context.Background(), domain.Target{Name: "b", URL: "HTTP://upper.example.com", Timeout: time.Second})
	if hit != "http" {
		t.Fatalf("scheme match must be case-insensitive, hit %q", hit)
	}
}

func TestMux_UnsupportedScheme(t *testing.T) {
	res := NewMux().Check(context.Background(), domain.Target{Name: "x", URL: "gopher://x", Timeout: time.Second})
	if res.Online() {
		t.Fatalf("want offline, got %+v", res)
	}
	if !strings.Contains(res.Reason, "unsupported scheme") {
		t.Fatalf("reason: got %q", res.Reason)
	}
}

func TestDefault_CoversRegistrySchemes(t *testing.T) {
	m := Default(false)
	for _, scheme := range []string{"http", "https", "tcp", "icmp"} {
		if _, ok := m.checkers[scheme]; !ok {
			t.Fatalf("default mux is missing %q", scheme)
		}
	}
}
