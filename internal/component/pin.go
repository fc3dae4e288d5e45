package component

import (
	"fmt"

	"github.com/roach88/digisim/internal/signal"
)

// Direction is the direction of a pin as seen from its component.
type Direction uint8

const (
	// Input pins observe the resolved value of their net.
	Input Direction = iota + 1
	// Output pins drive their net.
	Output
	// InOut pins both drive and observe their net.
	InOut
)

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case InOut:
		return "inout"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Drives reports whether a pin with direction d contributes to its net.
func (d Direction) Drives() bool { return d == Output || d == InOut }

// Listens reports whether a pin with direction d observes its net.
func (d Direction) Listens() bool { return d == Input || d == InOut }

// Pin is a named, fixed-width connection point of a component.
//
// A pin holds two values: the value its component drives (outputs only) and
// the value it observes (the resolved net value, inputs only). Value returns
// whichever one is meaningful for the pin direction.
type Pin struct {
	name   string
	dir    Direction
	width  signal.Width
	seen   signal.Signal
	driven signal.Signal
}

// Name returns the pin name, unique within its component.
func (p *Pin) Name() string { return p.name }

// Direction returns the pin direction.
func (p *Pin) Direction() Direction { return p.dir }

// Width returns the pin width.
func (p *Pin) Width() signal.Width { return p.width }

// Value returns the driven value for output pins and the observed value for
// input and bidirectional pins.
func (p *Pin) Value() signal.Signal {
	if p.dir == Output {
		return p.driven
	}
	return p.seen
}

// Driven returns the value the component asserts on this pin. Input pins
// always return all Unknown.
func (p *Pin) Driven() signal.Signal { return p.driven }

// Drive sets the value asserted on an output or bidirectional pin. It must
// only be called by the owning component, from Update or Reset.
func (p *Pin) Drive(v signal.Signal) {
	if !p.dir.Drives() {
		panic(fmt.Sprintf("component: drive on input pin %q", p.name))
	}
	if v.Width() != p.width {
		panic(fmt.Sprintf("component: pin %q width %d, got value of width %d", p.name, p.width, v.Width()))
	}
	p.driven = v
}

// Observe stores the resolved value of the net attached to the pin. Called by
// the engine before Update.
func (p *Pin) Observe(v signal.Signal) {
	if v.Width() != p.width {
		panic(fmt.Sprintf("component: pin %q width %d, got value of width %d", p.name, p.width, v.Width()))
	}
	p.seen = v
}

func (p *Pin) reset() {
	p.seen = signal.Undefined(p.width)
	p.driven = signal.Undefined(p.width)
}

// PinSpec declares a pin.
type PinSpec struct {
	Name      string
	Direction Direction
	Width     signal.Width
}

// In declares an input pin.
func In(name string, w signal.Width) PinSpec { return PinSpec{name, Input, w} }

// Out declares an output pin.
func Out(name string, w signal.Width) PinSpec { return PinSpec{name, Output, w} }

// Bidi declares a bidirectional pin.
func Bidi(name string, w signal.Width) PinSpec { return PinSpec{name, InOut, w} }

// Pins is the ordered pin set of a component. Iteration order is declaration
// order.
type Pins struct {
	order  []*Pin
	byName map[string]*Pin
}

// NewPins builds a pin set. Pin names must be unique and non-empty, widths
// valid and directions set.
func NewPins(specs ...PinSpec) (*Pins, error) {
	ps := &Pins{byName: make(map[string]*Pin, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("empty pin name")
		}
		if _, dup := ps.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate pin name %q", s.Name)
		}
		if !s.Width.Valid() {
			return nil, fmt.Errorf("pin %q: invalid width %d", s.Name, s.Width)
		}
		if s.Direction < Input || s.Direction > InOut {
			return nil, fmt.Errorf("pin %q: invalid direction %d", s.Name, s.Direction)
		}
		p := &Pin{name: s.Name, dir: s.Direction, width: s.Width}
		p.reset()
		ps.order = append(ps.order, p)
		ps.byName[s.Name] = p
	}
	return ps, nil
}

// Get returns the named pin.
func (ps *Pins) Get(name string) (*Pin, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Must returns the named pin and panics if it does not exist. Components use
// it on their own, statically known, pin names.
func (ps *Pins) Must(name string) *Pin {
	p, ok := ps.byName[name]
	if !ok {
		panic("component: pin " + name + " does not exist")
	}
	return p
}

// All returns the pins in declaration order.
func (ps *Pins) All() []*Pin {
	out := make([]*Pin, len(ps.order))
	copy(out, ps.order)
	return out
}

// Len returns the number of pins.
func (ps *Pins) Len() int { return len(ps.order) }

// Reset sets every pin, input and output, to Unknown.
func (ps *Pins) Reset() {
	for _, p := range ps.order {
		p.reset()
	}
}

// Outputs returns the driving pins (Output and InOut) in declaration order.
func (ps *Pins) Outputs() []*Pin {
	var out []*Pin
	for _, p := range ps.order {
		if p.dir.Drives() {
			out = append(out, p)
		}
	}
	return out
}
