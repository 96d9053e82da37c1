package probe

import (
	"context"
	"net/url"
	"strings"

	"github.com/hamed0406/netwatch/internal/domain"
)

// Mux routes each target to a checker by URL scheme.
type Mux struct {
	checkers map[string]Checker
}

func NewMux() *Mux {
	return &Mux{checkers: make(map[string]Checker)}
}

// Register binds a scheme to a checker. Call during wiring; registration is
// not synchronized with Check.
func (m *Mux) Register(scheme string, c Checker) {
	m.checkers[strings.ToLower(scheme)] = c
}

// Default returns a mux with the standard checkers bound: http and https on
// one shared HTTP client, tcp, and icmp.
func Default(pingPrivileged bool) *Mux {
	m := NewMux()
	httpc := NewHTTPChecker()
	m.Register("http", httpc)
	m.Register("https", httpc)
	m.Register("tcp", TCPChecker{})
	m.Register("icmp", PingChecker{Privileged: pingPrivileged})
	return m
}

func (m *Mux) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	u, err := url.Parse(target.URL)
	if err != nil {
		return offline(target, "unparseable url")
	}
	c, ok := m.checkers[strings.ToLower(u.Scheme)]
	if !ok {
		return offline(target, "unsupported scheme "+u.Scheme)
	}
	return c.Check(ctx, target)
}
