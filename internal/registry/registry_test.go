package registry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/netwatch/internal/domain"
)

func target(name, url string) domain.Target {
	return domain.Target{Name: name, URL: url, Enabled: true, Timeout: 3 * time.Second}
}

func TestRegistry_ReplaceAndRead(t *testing.T) {
	r := New()
	disabled := target("paused", "https://paused.example.com")
	disabled.Enabled = false

	set := []domain.Target{
		target("ollama", "http://localhost:11434"),
		disabled,
		target("db", "tcp://127.0.0.1:5432"),
		target("gw", "icmp://192.168.1.1"),
	}
	if err := r.Replace(set); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all := r.All()
	if len(all) != 4 {
		t.Fatalf("All: want 4 targets, got %d", len(all))
	}
	enabled := r.Enabled()
	if len(enabled) != 3 {
		t.Fatalf("Enabled: want 3 targets, got %d", len(enabled))
	}
	// Insertion order survives the enabled filter.
	if enabled[0].Name != "ollama" || enabled[1].Name != "db" || enabled[2].Name != "gw" {
		t.Fatalf("unexpected order: %+v", enabled)
	}
}

func TestRegistry_RejectedReplaceKeepsOldSet(t *testing.T) {
	r := New()
	if err := r.Replace([]domain.Target{target("a", "https://a.example.com")}); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	bad := []domain.Target{
		target("b", "https://b.example.com"),
		target("b", "https://b2.example.com"),
	}
	err := r.Replace(bad)
	if err == nil {
		t.Fatalf("expected duplicate-name error")
	}
	var ite *InvalidTargetError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTargetError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "duplicate name") {
		t.Fatalf("unexpected error: %v", err)
	}

	got := r.All()
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("old set should survive a rejected replace, got %+v", got)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	noTimeout := target("no-timeout", "https://x.example.com")
	noTimeout.Timeout = 0

	set := []domain.Target{
		target("ok", "https://ok.example.com"),
		target("", "https://anon.example.com"),
		target("ftp", "ftp://files.example.com"),
		target("portless", "tcp://db.example.com"),
		noTimeout,
	}
	err := Validate(set)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("want 4 aggregated errors, got %d: %v", got, err)
	}
}

func TestValidate_Rules(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.Target)
		wantErr string
	}{
		{"empty url", func(tg *domain.Target) { tg.URL = "  " }, "empty url"},
		{"no host", func(tg *domain.Target) { tg.URL = "http://" }, "no host"},
		{"bad scheme", func(tg *domain.Target) { tg.URL = "gopher://x" }, "unsupported scheme"},
		{"tcp without port", func(tg *domain.Target) { tg.URL = "tcp://db.internal" }, "needs a port"},
		{"zero timeout", func(tg *domain.Target) { tg.Timeout = 0 }, "timeout"},
		{"negative timeout", func(tg *domain.Target) { tg.Timeout = -time.Second }, "timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tg := target("t", "https://t.example.com")
			tc.mutate(&tg)
			err := Validate([]domain.Target{tg})
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegistry_ReadsAreCopies(t *testing.T) {
	r := New()
	in := []domain.Target{target("a", "https://a.example.com")}
	if err := r.Replace(in); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Mutating the input after Replace must not leak into the registry.
	in[0].URL = "https://changed.example.com"
	// Neither may mutating a returned copy.
	out := r.All()
	out[0].Name = "tampered"

	got := r.All()
	if got[0].Name != "a" || got[0].URL != "https://a.example.com" {
		t.Fatalf("registry state leaked: %+v", got[0])
	}
}
