package registry

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/hamed0406/netwatch/internal/domain"
)

// supportedSchemes mirrors the checkers bound on the default probe mux.
var supportedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"tcp":   true,
	"icmp":  true,
}

// InvalidTargetError describes one rejected target in a proposed set.
type InvalidTargetError struct {
	Name   string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	if e.Name == "" {
		return "invalid target: " + e.Reason
	}
	return fmt.Sprintf("invalid target %q: %s", e.Name, e.Reason)
}

// Registry holds the active target set. The whole set swaps atomically on
// Replace, so a cycle reading it mid-swap sees either the old or the new set,
// never a mix.
type Registry struct {
	mu      sync.RWMutex
	targets []domain.Target
}

func New() *Registry {
	return &Registry{}
}

// Validate checks a proposed set and reports every problem at once, one
// InvalidTargetError per offending entry.
func Validate(targets []domain.Target) error {
	var err error
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			err = multierr.Append(err, &InvalidTargetError{Reason: "empty name"})
			continue
		}
		if seen[t.Name] {
			err = multierr.Append(err, &InvalidTargetError{Name: t.Name, Reason: "duplicate name"})
			continue
		}
		seen[t.Name] = true
		if e := validateTarget(t); e != nil {
			err = multierr.Append(err, e)
		}
	}
	return err
}

func validateTarget(t domain.Target) error {
	if t.Timeout <= 0 {
		return &InvalidTargetError{Name: t.Name, Reason: "timeout must be positive"}
	}
	if strings.TrimSpace(t.URL) == "" {
		return &InvalidTargetError{Name: t.Name, Reason: "empty url"}
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return &InvalidTargetError{Name: t.Name, Reason: "unparseable url"}
	}
	scheme := strings.ToLower(u.Scheme)
	if !supportedSchemes[scheme] {
		return &InvalidTargetError{Name: t.Name, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &InvalidTargetError{Name: t.Name, Reason: "url has no host"}
	}
	if scheme == "tcp" && u.Port() == "" {
		return &InvalidTargetError{Name: t.Name, Reason: "tcp url needs a port"}
	}
	return nil
}

// Replace validates and installs a new target set. On error the previous set
// stays active; a broken reload never disables monitoring.
func (r *Registry) Replace(targets []domain.Target) error {
	if err := Validate(targets); err != nil {
		return err
	}
	next := make([]domain.Target, len(targets))
	copy(next, targets)

	r.mu.Lock()
	r.targets = next
	r.mu.Unlock()
	return nil
}

// All returns a copy of the full set in insertion order.
func (r *Registry) All() []domain.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Enabled returns a copy of the enabled targets in insertion order. This is
// the point-in-time view a probe cycle works from.
func (r *Registry) Enabled() []domain.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Target, 0, len(r.targets))
	for _, t := range r.targets {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}
