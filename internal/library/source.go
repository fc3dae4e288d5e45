package library

import (
	"fmt"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// Kind names of source and sink components.
const (
	KindInput = "input"
	KindConst = "const"
	KindProbe = "probe"
)

// Input is an externally driven pin, the component a user toggles.
//
// Its "out" pin is bidirectional: values scheduled with the input as origin
// are injected as its contribution to the net, and the pin observes the
// resolved result, which State returns.
type Input struct {
	*component.Base
}

// NewInput returns an input of width w.
func NewInput(label string, w signal.Width) (*Input, error) {
	b, err := component.NewBase(KindInput, label, 0, component.Bidi(pOut, w))
	if err != nil {
		return nil, err
	}
	return &Input{b}, nil
}

// Update never drives anything; inputs change only through stimulus.
func (in *Input) Update(signal.Time) component.UpdateResult {
	return component.NoChange
}

// Injectable implements component.Injector for the "out" pin.
func (in *Input) Injectable(pin string) bool { return pin == pOut }

// Inject drives v on the "out" pin.
func (in *Input) Inject(pin string, v signal.Signal) {
	in.Pins().Must(pin).Drive(v)
}

// State returns the resolved value of the input's net.
func (in *Input) State() any {
	return in.Pins().Must(pOut).Value()
}

// Constant drives a fixed value.
type Constant struct {
	*component.Base
	value signal.Signal
}

// NewConstant returns a component driving v with no delay.
func NewConstant(label string, v signal.Signal) (*Constant, error) {
	b, err := component.NewBase(KindConst, label, 0, component.Out(pOut, v.Width()))
	if err != nil {
		return nil, err
	}
	return &Constant{Base: b, value: v}, nil
}

func newConstFromParams(p Params) (component.Component, error) {
	if p.Value == "" {
		return nil, fmt.Errorf("missing value")
	}
	v, err := signal.Parse(p.Value)
	if err != nil {
		return nil, err
	}
	if p.Width != 0 && p.Width != v.Width() {
		return nil, fmt.Errorf("value %q has width %d, want %d", p.Value, v.Width(), p.Width)
	}
	return NewConstant(p.Label, v)
}

// Update drives the constant value.
func (c *Constant) Update(signal.Time) component.UpdateResult {
	return component.Set(c.Pins().Must(pOut), c.value)
}

// State returns the constant value.
func (c *Constant) State() any { return c.value }

// Probe observes a net and remembers the last value it saw and how many
// times it changed.
type Probe struct {
	*component.Base
	last    signal.Signal
	changes int
	at      signal.Time
}

// NewProbe returns a probe of width w.
func NewProbe(label string, w signal.Width) (*Probe, error) {
	b, err := component.NewBase(KindProbe, label, 0, component.In(pIn, w))
	if err != nil {
		return nil, err
	}
	return &Probe{Base: b, last: signal.Undefined(w)}, nil
}

// Update records the observed value.
func (p *Probe) Update(now signal.Time) component.UpdateResult {
	v := p.Pins().Must(pIn).Value()
	if v != p.last {
		p.last = v
		p.changes++
		p.at = now
	}
	return component.NoChange
}

// Reset forgets the recorded value.
func (p *Probe) Reset() {
	p.Base.Reset()
	p.last = signal.Undefined(p.Pins().Must(pIn).Width())
	p.changes = 0
	p.at = 0
}

// ProbeState is the state of a Probe.
type ProbeState struct {
	Last    signal.Signal `json:"last"`
	Changes int           `json:"changes"`
	At      signal.Time   `json:"at"`
}

// State returns a ProbeState.
func (p *Probe) State() any {
	return ProbeState{Last: p.last, Changes: p.changes, At: p.at}
}
