package domain

import "time"

// State classifies reachability of a target.
type State string

const (
	StateUnknown State = "unknown" // no completed cycle has observed the target yet
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// DefaultTimeout bounds a single probe attempt when a target does not set
// its own.
const DefaultTimeout = 5 * time.Second

// Target is one monitored endpoint. Name is the unique key. The URL scheme
// selects the checker: http, https, tcp (host:port) or icmp.
type Target struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	Enabled bool          `json:"enabled"`
	Timeout time.Duration `json:"-"`
}

// ProbeResult is the outcome of probing one target in one cycle. LatencyMS is
// set only when the target was online. StatusCode is informational: any HTTP
// response counts as online, a 500 included, because the connection was
// established.
type ProbeResult struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	State      State     `json:"state"`
	LatencyMS  *float64  `json:"latency_ms,omitempty"`
	StatusCode *int      `json:"status_code,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Attempts   int       `json:"attempts"`
	CheckedAt  time.Time `json:"checked_at"`
}

func (r ProbeResult) Online() bool { return r.State == StateOnline }
