package engine

import (
	"container/heap"
	"fmt"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/netlist"
	"github.com/roach88/digisim/internal/signal"
)

// SimulatorEvent is a pending value change on a net.
//
// Origin is the component that produced the value, or component.External.
// Pin is the origin's driving pin when the value is a pin contribution, and
// empty for external contributions. Injected marks a value set from
// outside on a pin of a component.Injector.
type SimulatorEvent struct {
	Time     signal.Time
	Net      netlist.NetID
	Value    signal.Signal
	Origin   component.ID
	Pin      string
	Injected bool
	Seq      uint64
}

// String formats the event for logs and test failures.
func (ev SimulatorEvent) String() string {
	src := ev.Origin.String()
	if ev.Pin != "" {
		src += "." + ev.Pin
	}
	return fmt.Sprintf("@%d #%d %s <- %s (%s)", ev.Time, ev.Seq, ev.Net, ev.Value, src)
}

func before(a, b SimulatorEvent) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.Seq < b.Seq
}

type eventHeap []SimulatorEvent

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return before(h[i], h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(SimulatorEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = SimulatorEvent{}
	*h = old[:n-1]
	return ev
}

// EventQueue is a min-priority queue of events ordered by time, then by
// sequence number. Sequence numbers are assigned by Schedule, so events due
// at the same time pop in scheduling order.
//
// Not safe for concurrent use.
type EventQueue struct {
	h   eventHeap
	seq uint64
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{h: make(eventHeap, 0, 64)}
}

// Schedule stamps ev with the next sequence number and inserts it.
// Returns the stamped event.
func (q *EventQueue) Schedule(ev SimulatorEvent) SimulatorEvent {
	q.seq++
	ev.Seq = q.seq
	heap.Push(&q.h, ev)
	return ev
}

// PopNext removes and returns the earliest event.
func (q *EventQueue) PopNext() (SimulatorEvent, bool) {
	if len(q.h) == 0 {
		return SimulatorEvent{}, false
	}
	return heap.Pop(&q.h).(SimulatorEvent), true
}

// PeekTime returns the due time of the earliest event.
func (q *EventQueue) PeekTime() (signal.Time, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].Time, true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.h) }

// Clear drops every pending event and restarts sequence numbering.
func (q *EventQueue) Clear() {
	clear(q.h)
	q.h = q.h[:0]
	q.seq = 0
}
