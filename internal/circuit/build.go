package circuit

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/library"
	"github.com/roach88/digisim/internal/netlist"
	"github.com/roach88/digisim/internal/signal"
)

// Circuit is a Spec built into an engine.
type Circuit struct {
	Spec   *Spec
	Engine *engine.Engine

	nets      map[string]netlist.NetID
	netNames  map[netlist.NetID]string
	comps     map[string]component.ID
	compNames map[component.ID]string
}

// Build validates spec and instantiates it in e, which must be empty.
// Components are registered in declaration order, then nets are created,
// then pins are connected, and finally the engine is primed.
func Build(spec *Spec, e *engine.Engine) (*Circuit, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c := &Circuit{
		Spec:      spec,
		Engine:    e,
		nets:      make(map[string]netlist.NetID, len(spec.Nets)),
		netNames:  make(map[netlist.NetID]string, len(spec.Nets)),
		comps:     make(map[string]component.ID, len(spec.Components)),
		compNames: make(map[component.ID]string, len(spec.Components)),
	}

	for _, cs := range spec.Components {
		comp, err := library.New(cs.Kind, cs.Params())
		if err != nil {
			return nil, err
		}
		id, err := e.Register(comp)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", cs.Name, err)
		}
		c.comps[cs.Name] = id
		c.compNames[id] = cs.Name
	}

	for _, ns := range spec.Nets {
		id, err := e.CreateNet(ns.Width)
		if err != nil {
			return nil, fmt.Errorf("net %q: %w", ns.Name, err)
		}
		c.nets[ns.Name] = id
		c.netNames[id] = ns.Name
	}

	for _, cs := range spec.Components {
		id := c.comps[cs.Name]
		for _, pin := range cs.PinNames() {
			if err := e.Connect(id, pin, c.nets[cs.Pins[pin]]); err != nil {
				return nil, fmt.Errorf("component %q pin %q to net %q: %w", cs.Name, pin, cs.Pins[pin], err)
			}
		}
	}

	e.Prime()
	return c, nil
}

// Net returns the id of the named net.
func (c *Circuit) Net(name string) (netlist.NetID, bool) {
	id, ok := c.nets[name]
	return id, ok
}

// NetName returns the name of net id, or its id string if unnamed.
func (c *Circuit) NetName(id netlist.NetID) string {
	if n, ok := c.netNames[id]; ok {
		return n
	}
	return id.String()
}

// NetNames returns the net names in declaration order.
func (c *Circuit) NetNames() []string {
	out := make([]string, len(c.Spec.Nets))
	for i, n := range c.Spec.Nets {
		out[i] = n.Name
	}
	return out
}

// Component returns the id of the named component.
func (c *Circuit) Component(name string) (component.ID, bool) {
	id, ok := c.comps[name]
	return id, ok
}

// ComponentName returns the name of component id. External is "external".
func (c *Circuit) ComponentName(id component.ID) string {
	if n, ok := c.compNames[id]; ok {
		return n
	}
	return id.String()
}

// Value returns the resolved value of the named net.
func (c *Circuit) Value(name string) (signal.Signal, error) {
	id, ok := c.nets[name]
	if !ok {
		return signal.Signal{}, fmt.Errorf("unknown net %q", name)
	}
	return c.Engine.NetValue(id)
}

// Values returns every net value by name.
func (c *Circuit) Values() map[string]string {
	out := make(map[string]string, len(c.nets))
	for name, id := range c.nets {
		v, _ := c.Engine.NetValue(id)
		out[name] = v.String()
	}
	return out
}

// Reset resets the engine and primes it again.
func (c *Circuit) Reset() {
	c.Engine.Reset()
	c.Engine.Prime()
}

// Stimulus is a value change requested by name.
type Stimulus struct {
	At     signal.Time
	Net    string
	Value  string // MSB first, e.g. "1", "0101"
	Origin string // component name; empty for an external driver
}

// String formats the stimulus as net=value@at, the syntax ParseStimulus
// accepts.
func (s Stimulus) String() string {
	out := fmt.Sprintf("%s=%s@%d", s.Net, s.Value, s.At)
	if s.Origin != "" {
		out += " (" + s.Origin + ")"
	}
	return out
}

// ParseStimulus parses "net=value@time". The time defaults to 0.
func ParseStimulus(s string) (Stimulus, error) {
	net, rest, ok := strings.Cut(s, "=")
	if !ok || net == "" {
		return Stimulus{}, fmt.Errorf("stimulus %q: want net=value[@time]", s)
	}
	value, at, hasAt := strings.Cut(rest, "@")
	st := Stimulus{Net: net, Value: value}
	if hasAt {
		t, err := strconv.ParseUint(at, 10, 64)
		if err != nil {
			return Stimulus{}, fmt.Errorf("stimulus %q: bad time %q", s, at)
		}
		st.At = signal.Time(t)
	}
	if _, err := signal.Parse(value); err != nil {
		return Stimulus{}, fmt.Errorf("stimulus %q: %w", s, err)
	}
	return st, nil
}

// Apply schedules the stimulus. An origin naming an input component that
// drives the net injects the value on that input's pin. Without an origin,
// a net driven by an input is driven through that input. Anything else,
// including an origin naming a gate, gives an external contribution that
// resolves against the net's drivers.
func (c *Circuit) Apply(s Stimulus) error {
	net, ok := c.nets[s.Net]
	if !ok {
		return fmt.Errorf("stimulus %s: unknown net %q", s, s.Net)
	}
	v, err := signal.Parse(s.Value)
	if err != nil {
		return fmt.Errorf("stimulus %s: %w", s, err)
	}
	origin := component.External
	if s.Origin == "" {
		if name, ok := c.InputFor(s.Net); ok {
			origin = c.comps[name]
		}
	} else {
		if origin, ok = c.comps[s.Origin]; !ok {
			return fmt.Errorf("stimulus %s: unknown component %q", s, s.Origin)
		}
	}
	if err := c.Engine.ScheduleSignalChange(s.At, net, v, origin); err != nil {
		return fmt.Errorf("stimulus %s: %w", s, err)
	}
	return nil
}

// ApplyAll schedules stimuli in time order. Stimuli at the same time keep
// their relative order.
func (c *Circuit) ApplyAll(stimuli []Stimulus) error {
	sorted := slices.Clone(stimuli)
	slices.SortStableFunc(sorted, func(a, b Stimulus) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	for _, s := range sorted {
		if err := c.Apply(s); err != nil {
			return err
		}
	}
	return nil
}

// InputFor returns the name of the first component driving net through a
// pin that accepts outside values, such as an input. Stimuli on such a net
// are applied with that component as origin.
func (c *Circuit) InputFor(netName string) (string, bool) {
	id, ok := c.nets[netName]
	if !ok {
		return "", false
	}
	for _, ep := range c.Engine.Netlist().DriversOf(id) {
		comp, _ := c.Engine.Component(ep.Component)
		if inj, ok := comp.(component.Injector); ok && inj.Injectable(ep.Pin) {
			return c.compNames[ep.Component], true
		}
	}
	return "", false
}
