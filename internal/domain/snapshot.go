package domain

import "time"

// Snapshot is the immutable outcome of one probe cycle. Results keep the
// registry order of the probed targets regardless of completion order.
type Snapshot struct {
	TakenAt    time.Time     `json:"taken_at"`
	DurationMS float64       `json:"duration_ms"`
	Results    []ProbeResult `json:"results"`
}

// Result returns the entry for the named target. Target sets are small, a
// linear scan is fine.
func (s *Snapshot) Result(name string) (ProbeResult, bool) {
	if s == nil {
		return ProbeResult{}, false
	}
	for _, r := range s.Results {
		if r.Name == name {
			return r, true
		}
	}
	return ProbeResult{}, false
}

// ChangeEvent records one state transition between two consecutive snapshots.
type ChangeEvent struct {
	Name string    `json:"name"`
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Diff returns one event per target whose state changed from prev to cur,
// in cur's result order. A nil prev makes cur the baseline: no events.
// Targets present in only one snapshot produce no event, and changes in
// latency, attempts or status code are not transitions.
func Diff(prev, cur *Snapshot) []ChangeEvent {
	if prev == nil || cur == nil {
		return nil
	}
	var events []ChangeEvent
	for _, r := range cur.Results {
		old, ok := prev.Result(r.Name)
		if !ok || old.State == r.State {
			continue
		}
		events = append(events, ChangeEvent{
			Name: r.Name,
			From: old.State,
			To:   r.State,
			At:   cur.TakenAt,
		})
	}
	return events
}
