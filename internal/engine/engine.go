package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/netlist"
	"github.com/roach88/digisim/internal/signal"
)

// Bound limits one call to Run. Zero fields fall back to the engine
// configuration, so a zero MaxTime means the configured horizon and not
// time 0. To stop a run before anything past time 0 is processed, build the
// engine with WithMaxTime(0).
type Bound struct {
	MaxEvents uint64
	MaxTime   signal.Time
}

// Engine owns a netlist, its components and the event queue.
//
// Thread-safety: an Engine must be used from one goroutine. Observers run
// on that goroutine.
type Engine struct {
	cfg Config
	log *slog.Logger

	nl         *netlist.Netlist
	components map[component.ID]component.Component
	ids        *Sequencer
	queue      *EventQueue

	now       signal.Time
	state     State
	stop      bool
	failure   *SimulationError
	deltas    *deltaGuard
	history   *history
	stats     Stats
	observers []Observer
}

// New creates an engine with an empty netlist.
func New(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Observers = slices.Clone(cfg.Observers)

	return &Engine{
		cfg:        cfg,
		log:        cfg.Logger,
		nl:         netlist.New(),
		components: make(map[component.ID]component.Component),
		ids:        NewSequencer(),
		queue:      NewEventQueue(),
		deltas:     newDeltaGuard(cfg.MaxDeltas),
		history:    newHistory(cfg.History),
		observers:  slices.Clone(cfg.Observers),
	}
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Netlist gives read access to connectivity. Callers must not mutate it
// directly; use CreateNet, Connect and Disconnect.
func (e *Engine) Netlist() *netlist.Netlist { return e.nl }

// Subscribe adds an observer. Observers are notified in subscription order.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Register assigns the next id to c and takes ownership of it.
func (e *Engine) Register(c component.Component) (component.ID, error) {
	id := component.ID(e.ids.Current() + 1)
	if err := component.Bind(c, id); err != nil {
		return component.External, err
	}
	if err := e.nl.AddComponent(id, c.Pins()); err != nil {
		return component.External, err
	}
	e.ids.Next()
	e.components[id] = c
	e.log.Debug("component registered", "component", id.String(), "kind", c.Kind(), "label", c.Label())
	return id, nil
}

// Component returns a registered component.
func (e *Engine) Component(id component.ID) (component.Component, bool) {
	c, ok := e.components[id]
	return c, ok
}

// Components returns every component id in ascending order.
func (e *Engine) Components() []component.ID {
	ids := make([]component.ID, 0, len(e.components))
	for id := range e.components {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CreateNet allocates a net of width w.
func (e *Engine) CreateNet(w signal.Width) (netlist.NetID, error) {
	return e.nl.CreateNet(w)
}

// Connect attaches a component pin to a net.
func (e *Engine) Connect(id component.ID, pin string, net netlist.NetID) error {
	return e.nl.Connect(id, pin, net)
}

// Disconnect detaches a component pin and drops its contribution. The net
// is resolved again at once and a change is delivered to its listeners, so
// their outputs are scheduled as for any other change. Events the pin had
// already queued are dropped when they come up.
func (e *Engine) Disconnect(id component.ID, pin string) {
	net, ok := e.nl.NetOf(id, pin)
	e.nl.Disconnect(id, pin)
	if !ok {
		return
	}
	v, changed, err := e.nl.Resolve(net)
	if err != nil || !changed {
		return
	}
	e.log.Debug("pin disconnected", "component", id.String(), "pin", pin, "net", net.String(), "value", v.String())
	e.propagate(net, v)
}

// CurrentTime returns the time of the last processed event.
func (e *Engine) CurrentTime() signal.Time { return e.now }

// State returns the run state.
func (e *Engine) State() State { return e.state }

// Stats returns the work counters.
func (e *Engine) Stats() Stats { return e.stats }

// Pending returns the number of queued events.
func (e *Engine) Pending() int { return e.queue.Len() }

// Err returns the oscillation error that put the engine in the Oscillating
// state, or nil.
func (e *Engine) Err() error {
	if e.failure == nil {
		return nil
	}
	return e.failure
}

// NetValue returns the resolved value of net.
func (e *Engine) NetValue(net netlist.NetID) (signal.Signal, error) {
	return e.nl.Value(net)
}

// ComponentState returns the internal state of a component implementing
// component.Stater, or a map of pin name to pin value otherwise.
func (e *Engine) ComponentState(id component.ID) (any, error) {
	c, ok := e.components[id]
	if !ok {
		return nil, &netlist.Error{Code: netlist.ErrCodeComponentNotFound, Component: id}
	}
	if s, ok := c.(component.Stater); ok {
		return s.State(), nil
	}
	pins := make(map[string]signal.Signal, c.Pins().Len())
	for _, p := range c.Pins().All() {
		pins[p.Name()] = p.Value()
	}
	return pins, nil
}

// ScheduleSignalChange queues a value change of net at time t.
//
// If origin is a registered component implementing component.Injector
// with a driving pin on net that accepts outside values, the value is
// injected on that pin, as when a user toggles an input. Any other origin
// gives an external contribution keyed by origin, which persists alongside
// the component drivers of the net and never replaces what a component
// pin drives.
func (e *Engine) ScheduleSignalChange(t signal.Time, net netlist.NetID, v signal.Signal, origin component.ID) error {
	if t < e.now {
		return &SimulationError{
			Code:    ErrCodeScheduleInPast,
			Message: fmt.Sprintf("cannot schedule at %d before current time %d", t, e.now),
			Time:    e.now,
			Net:     net,
		}
	}
	w := e.nl.Width(net)
	if w == 0 {
		return &SimulationError{Code: ErrCodeInvalidEvent, Message: "no such net", Time: e.now, Net: net}
	}
	if v.Width() != w {
		return &SimulationError{
			Code:    ErrCodeInvalidEvent,
			Message: fmt.Sprintf("value %q has width %d, net has width %d", v, v.Width(), w),
			Time:    e.now,
			Net:     net,
		}
	}

	ev := SimulatorEvent{Time: t, Net: net, Value: v, Origin: origin}
	if inj, ok := e.components[origin].(component.Injector); ok {
		for _, ep := range e.nl.DriversOf(net) {
			if ep.Component == origin && inj.Injectable(ep.Pin) {
				ev.Pin = ep.Pin
				ev.Injected = true
				break
			}
		}
	}
	e.schedule(ev)
	return nil
}

// schedule queues ev. The state is left alone: a run starts when Step or
// Run takes the first event.
func (e *Engine) schedule(ev SimulatorEvent) {
	e.queue.Schedule(ev)
	e.stats.Scheduled++
}

// Stop asks a running Run to return after the current event. Intended for
// observers; has no effect outside Run or Step.
func (e *Engine) Stop() {
	e.stop = true
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	e.log.Debug("engine state", "from", e.state.String(), "to", s.String(), "time", uint64(e.now))
	e.state = s
}

// Step processes one event and returns the new state. With no event
// pending it returns Idle. In the Oscillating state it does nothing.
func (e *Engine) Step() State {
	if e.state == Oscillating {
		return e.state
	}
	ev, ok := e.queue.PopNext()
	if !ok {
		e.setState(Idle)
		return e.state
	}
	e.setState(Running)

	if ev.Time > e.now {
		e.now = ev.Time
		e.deltas.Advance()
	}
	e.stats.Events++

	applied := Applied{Event: ev}
	if err := e.nl.Contribute(ev.Net, netlist.Endpoint{Component: ev.Origin, Pin: ev.Pin}, ev.Value); err != nil {
		// Events are validated when scheduled; only a pin disconnected
		// since then can get here.
		e.log.Warn("event dropped", "event", ev.String(), "error", err)
		applied.Resolved, _ = e.nl.Value(ev.Net)
	} else {
		if ev.Injected {
			e.components[ev.Origin].(component.Injector).Inject(ev.Pin, ev.Value)
		}
		applied.Resolved, applied.Changed, _ = e.nl.Resolve(ev.Net)
	}

	if applied.Changed {
		if e.deltas.Record(ev.Net) {
			e.failure = newDeltaOscillation(e.now, e.stats.Events, ev.Net, e.cfg.MaxDeltas, e.history.Records())
			e.log.Error("oscillation detected", "net", ev.Net.String(), "time", uint64(e.now), "changes", e.deltas.Count(ev.Net))
			e.setState(Oscillating)
			e.notify(applied)
			return e.state
		}
		applied.Updates = e.propagate(ev.Net, applied.Resolved)
	}

	e.notify(applied)

	switch {
	case e.stop:
		e.stop = false
		if e.queue.Len() > 0 {
			e.setState(Suspended)
		} else {
			e.setState(Idle)
		}
	case e.queue.Len() == 0:
		e.setState(Idle)
	}
	return e.state
}

// propagate delivers v to the listeners of net and updates their
// components in ascending id order.
func (e *Engine) propagate(net netlist.NetID, v signal.Signal) []UpdateRecord {
	listeners := e.nl.ListenersOf(net)
	var dirty []component.ID
	for _, ep := range listeners {
		c := e.components[ep.Component]
		c.Pins().Must(ep.Pin).Observe(v)
		// Listeners are sorted by component id, so duplicates are adjacent.
		if n := len(dirty); n == 0 || dirty[n-1] != ep.Component {
			dirty = append(dirty, ep.Component)
		}
	}

	records := make([]UpdateRecord, 0, len(dirty))
	for _, id := range dirty {
		records = append(records, e.update(e.components[id]))
	}
	return records
}

// update runs one component and schedules an event for each output pin
// whose driven value changed. A failed update restores the previous
// outputs.
func (e *Engine) update(c component.Component) UpdateRecord {
	outs := c.Pins().Outputs()
	prev := make([]signal.Signal, len(outs))
	for i, p := range outs {
		prev[i] = p.Driven()
	}

	res := c.Update(e.now)
	e.stats.Updates++
	rec := UpdateRecord{Time: e.now, Component: c.ID(), Label: c.Label(), Status: res.Status}

	switch res.Status {
	case component.StatusError:
		for i, p := range outs {
			p.Drive(prev[i])
		}
		e.stats.UpdateErrors++
		if res.Err != nil {
			rec.Err = res.Err.Error()
		}
		e.log.Warn("component update failed",
			"component", c.ID().String(),
			"kind", c.Kind(),
			"time", uint64(e.now),
			"error", rec.Err,
		)
	case component.StatusChanged:
		at := e.now.Add(c.PropagationDelay())
		for i, p := range outs {
			if p.Driven() == prev[i] {
				continue
			}
			net, ok := e.nl.NetOf(c.ID(), p.Name())
			if !ok {
				continue
			}
			e.schedule(SimulatorEvent{Time: at, Net: net, Value: p.Driven(), Origin: c.ID(), Pin: p.Name()})
		}
	}

	e.history.Add(rec)
	return rec
}

func (e *Engine) notify(a Applied) {
	for _, o := range e.observers {
		o.Observe(a)
	}
}

// Run processes events until the queue drains, the bound is reached, Stop
// is called or ctx is done.
//
// It returns nil when the circuit settles (state Idle) or was stopped
// (state Suspended). It returns a SimulationError with ErrCodeOscillation
// when the event quota or the delta guard trips (state Oscillating, sticky
// until Reset), and one with ErrCodeTimeHorizon when the next event is past
// the time bound (state Suspended; a later Run with a larger bound resumes).
func (e *Engine) Run(ctx context.Context, b Bound) error {
	if e.state == Oscillating {
		return e.failure
	}
	maxEvents := b.MaxEvents
	if maxEvents == 0 {
		maxEvents = e.cfg.MaxEvents
	}
	maxTime := b.MaxTime
	if maxTime == 0 {
		maxTime = e.cfg.MaxTime
	}
	quota := newEventQuota(maxEvents)
	e.stop = false

	for {
		if err := ctx.Err(); err != nil {
			if e.queue.Len() > 0 {
				e.setState(Suspended)
			}
			return err
		}

		t, ok := e.queue.PeekTime()
		if !ok {
			e.setState(Idle)
			return nil
		}
		if t > maxTime {
			e.setState(Suspended)
			return &SimulationError{
				Code:    ErrCodeTimeHorizon,
				Message: fmt.Sprintf("next event at %d is past the time bound %d", t, maxTime),
				Time:    e.now,
				Events:  quota.Current(),
			}
		}
		if err := quota.Check(); err != nil {
			ee := err.(*EventsExceededError)
			e.failure = newQuotaOscillation(e.now, ee, e.history.Records())
			e.log.Error("oscillation detected", "time", uint64(e.now), "events", ee.Events, "pending", e.queue.Len())
			e.setState(Oscillating)
			return e.failure
		}

		switch e.Step() {
		case Oscillating:
			return e.failure
		case Suspended:
			return nil
		}
	}
}

// Prime updates every component once, in ascending id order, after the
// input pins have observed their nets, and schedules the resulting output
// changes. Call it after building a circuit or after Reset so that
// constants and other source components drive their nets.
func (e *Engine) Prime() {
	for _, net := range e.nl.Nets() {
		v, _ := e.nl.Value(net)
		for _, ep := range e.nl.ListenersOf(net) {
			e.components[ep.Component].Pins().Must(ep.Pin).Observe(v)
		}
	}
	for _, id := range e.Components() {
		e.update(e.components[id])
	}
}

// Reset returns the engine to its initial state: empty queue, every net and
// pin Unknown, every component reset, time 0, state Idle. Calling it twice
// is the same as calling it once.
func (e *Engine) Reset() {
	e.queue.Clear()
	e.nl.Reset()
	for _, id := range e.Components() {
		e.components[id].Reset()
	}
	e.now = 0
	e.stop = false
	e.failure = nil
	e.deltas.Advance()
	e.history.Clear()
	e.stats = Stats{}
	e.state = Idle
	e.log.Debug("engine reset")
}
