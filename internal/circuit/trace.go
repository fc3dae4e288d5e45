package circuit

import (
	"errors"
	"slices"

	"github.com/roach88/digisim/internal/canonical"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/signal"
)

// TraceEvent is an applied event with nets and components named.
type TraceEvent struct {
	Seq      uint64      `json:"seq"`
	Time     signal.Time `json:"time"`
	Net      string      `json:"net"`
	Value    string      `json:"value"`
	Origin   string      `json:"origin"`
	Pin      string      `json:"pin,omitempty"`
	Resolved string      `json:"resolved"`
	Changed  bool        `json:"changed"`
}

// Trace is the observable outcome of a run: every applied event in order,
// the final net values and how the run ended.
type Trace struct {
	Circuit   string            `json:"circuit"`
	Events    []TraceEvent      `json:"events"`
	Final     map[string]string `json:"final"`
	State     string            `json:"state"`
	Time      signal.Time       `json:"time"`
	ErrorCode string            `json:"error_code,omitempty"`
}

// Canonical returns the trace as a canonical JSON value.
func (t Trace) Canonical() map[string]any {
	events := make([]any, len(t.Events))
	for i, ev := range t.Events {
		obj := map[string]any{
			"seq":      ev.Seq,
			"time":     uint64(ev.Time),
			"net":      ev.Net,
			"value":    ev.Value,
			"origin":   ev.Origin,
			"resolved": ev.Resolved,
			"changed":  ev.Changed,
		}
		if ev.Pin != "" {
			obj["pin"] = ev.Pin
		}
		events[i] = obj
	}
	final := t.Final
	if final == nil {
		final = map[string]string{}
	}
	out := map[string]any{
		"circuit": t.Circuit,
		"events":  events,
		"final":   final,
		"state":   t.State,
		"time":    uint64(t.Time),
	}
	if t.ErrorCode != "" {
		out["error_code"] = t.ErrorCode
	}
	return out
}

// Digest returns the content digest of the trace. Two runs of the same
// circuit with the same stimulus have the same digest.
func (t Trace) Digest() (string, error) {
	return canonical.TraceDigest(t.Canonical())
}

// Changes returns the changed events on the named net, in order.
func (t Trace) Changes(net string) []TraceEvent {
	var out []TraceEvent
	for _, ev := range t.Events {
		if ev.Net == net && ev.Changed {
			out = append(out, ev)
		}
	}
	return out
}

// ValueAt returns the resolved value of the named net after every event
// up to and including time at. The second result is false when the net
// never changed by then.
func (t Trace) ValueAt(net string, at signal.Time) (string, bool) {
	value, ok := "", false
	for _, ev := range t.Events {
		if ev.Time > at {
			break
		}
		if ev.Net == net && ev.Changed {
			value, ok = ev.Resolved, true
		}
	}
	return value, ok
}

// Event names the nets and components of an applied event.
func (c *Circuit) Event(a engine.Applied) TraceEvent {
	return TraceEvent{
		Seq:      a.Event.Seq,
		Time:     a.Event.Time,
		Net:      c.NetName(a.Event.Net),
		Value:    a.Event.Value.String(),
		Origin:   c.ComponentName(a.Event.Origin),
		Pin:      a.Event.Pin,
		Resolved: a.Resolved.String(),
		Changed:  a.Changed,
	}
}

// Trace assembles the trace of a finished run from its applied events and
// the current engine state. runErr is the error Run returned, if any.
func (c *Circuit) Trace(events []TraceEvent, runErr error) Trace {
	tr := Trace{
		Circuit: c.Spec.Name,
		Events:  slices.Clone(events),
		Final:   c.Values(),
		State:   c.Engine.State().String(),
		Time:    c.Engine.CurrentTime(),
	}
	if tr.Events == nil {
		tr.Events = []TraceEvent{}
	}
	var simErr *engine.SimulationError
	var quotaErr *engine.EventsExceededError
	switch {
	case errors.As(runErr, &simErr):
		tr.ErrorCode = string(simErr.Code)
	case errors.As(runErr, &quotaErr):
		tr.ErrorCode = string(engine.ErrCodeOscillation)
	case runErr != nil:
		tr.ErrorCode = "ERROR"
	}
	return tr
}

// Tracer collects the applied events of a circuit's engine.
type Tracer struct {
	c      *Circuit
	events []TraceEvent
}

// NewTracer returns a tracer subscribed to the circuit's engine.
func (c *Circuit) NewTracer() *Tracer {
	t := &Tracer{c: c}
	c.Engine.Subscribe(t)
	return t
}

// Observe implements engine.Observer.
func (t *Tracer) Observe(a engine.Applied) {
	t.events = append(t.events, t.c.Event(a))
}

// Events returns the events collected so far.
func (t *Tracer) Events() []TraceEvent {
	return slices.Clone(t.events)
}

// Trace snapshots the run. runErr is the error Run returned, if any.
func (t *Tracer) Trace(runErr error) Trace {
	return t.c.Trace(t.events, runErr)
}

// Reset drops the collected events.
func (t *Tracer) Reset() {
	t.events = nil
}
