// Package eventlog reads and writes episode traces as JSONL, one decision
// event per line, for offline analysis of batch simulations.
package eventlog

import (
	"sort"
	"time"
)

// Event is one decision made during an episode.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Session       string    `json:"session"`
	Tick          int       `json:"tick"`
	Col           int       `json:"col"`
	Row           int       `json:"row"`
	Gold          int       `json:"gold"`
	Action        string    `json:"action"`
	Reward        float64   `json:"reward"`
	BridgeAttempt bool      `json:"bridge_attempt,omitempty"`
	BridgeSuccess bool      `json:"bridge_success,omitempty"`
}

// Trace is the ordered sequence of events for one session.
type Trace struct {
	Session string
	Events  []Event
}

// Log is a collection of episode traces.
type Log struct {
	Events []Event
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Add appends an event.
func (l *Log) Add(e Event) {
	l.Events = append(l.Events, e)
}

// Traces groups events by session, each trace ordered by tick, traces
// ordered by first appearance.
func (l *Log) Traces() []Trace {
	bySession := make(map[string]*Trace)
	var order []string

	for _, e := range l.Events {
		tr, ok := bySession[e.Session]
		if !ok {
			tr = &Trace{Session: e.Session}
			bySession[e.Session] = tr
			order = append(order, e.Session)
		}
		tr.Events = append(tr.Events, e)
	}

	traces := make([]Trace, 0, len(order))
	for _, sid := range order {
		tr := bySession[sid]
		sort.SliceStable(tr.Events, func(i, j int) bool {
			return tr.Events[i].Tick < tr.Events[j].Tick
		})
		traces = append(traces, *tr)
	}
	return traces
}
