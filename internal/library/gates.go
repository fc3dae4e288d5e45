package library

import (
	"fmt"
	"strconv"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// Kind names of logic gates.
const (
	KindBuffer = "buffer"
	KindNot    = "not"
	KindAnd    = "and"
	KindOr     = "or"
	KindNand   = "nand"
	KindNor    = "nor"
	KindXor    = "xor"
	KindXnor   = "xnor"
)

// Buffer copies its input to its output after a delay.
type Buffer struct {
	*component.Base
}

// NewBuffer returns a buffer of width w.
func NewBuffer(label string, w signal.Width, delay signal.Delay) (*Buffer, error) {
	b, err := component.NewBase(KindBuffer, label, delay, component.In(pIn, w), component.Out(pOut, w))
	if err != nil {
		return nil, err
	}
	return &Buffer{b}, nil
}

// Update copies in to out.
func (g *Buffer) Update(signal.Time) component.UpdateResult {
	p := g.Pins()
	return component.Set(p.Must(pOut), p.Must(pIn).Value())
}

// Not is a bitwise inverter. Unless a delay is given its delay equals its
// width.
type Not struct {
	*component.Base
}

// NewNot returns an inverter of width w.
func NewNot(label string, w signal.Width, delay signal.Delay) (*Not, error) {
	b, err := component.NewBase(KindNot, label, delay, component.In(pIn, w), component.Out(pOut, w))
	if err != nil {
		return nil, err
	}
	return &Not{b}, nil
}

// Update drives the inverse of in.
func (g *Not) Update(signal.Time) component.UpdateResult {
	p := g.Pins()
	return component.Set(p.Must(pOut), signal.Map(p.Must(pIn).Value(), signal.Not))
}

// Gate is an n-input bitwise gate with inputs in0..in<n-1>.
type Gate struct {
	*component.Base
	fold   func(a, b signal.Value) signal.Value
	invert bool
	inputs []*component.Pin
	out    *component.Pin
}

// MaxInputs bounds the inputs of a gate.
const MaxInputs = 32

// InputPin returns the name of gate input i.
func InputPin(i int) string { return pIn + strconv.Itoa(i) }

// NewGate returns an n-input gate of the given kind (and, or, nand, nor, xor
// or xnor).
func NewGate(kind, label string, w signal.Width, n int, delay signal.Delay) (*Gate, error) {
	g := &Gate{}
	switch kind {
	case KindAnd:
		g.fold = signal.And
	case KindNand:
		g.fold, g.invert = signal.And, true
	case KindOr:
		g.fold = signal.Or
	case KindNor:
		g.fold, g.invert = signal.Or, true
	case KindXor:
		g.fold = signal.Xor
	case KindXnor:
		g.fold, g.invert = signal.Xor, true
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
	if n < 2 || n > MaxInputs {
		return nil, fmt.Errorf("gate needs 2 to %d inputs, got %d", MaxInputs, n)
	}

	specs := make([]component.PinSpec, 0, n+1)
	for i := range n {
		specs = append(specs, component.In(InputPin(i), w))
	}
	specs = append(specs, component.Out(pOut, w))
	b, err := component.NewBase(kind, label, delay, specs...)
	if err != nil {
		return nil, err
	}
	g.Base = b
	for i := range n {
		g.inputs = append(g.inputs, b.Pins().Must(InputPin(i)))
	}
	g.out = b.Pins().Must(pOut)
	return g, nil
}

func gateConstructor(kind string) Constructor {
	return func(p Params) (component.Component, error) {
		n := p.Inputs
		if n == 0 {
			n = 2
		}
		return NewGate(kind, p.Label, p.width(), n, p.delay(DefaultDelay))
	}
}

// Update folds the inputs bit by bit.
func (g *Gate) Update(signal.Time) component.UpdateResult {
	v := g.inputs[0].Value()
	for _, in := range g.inputs[1:] {
		v = signal.Zip(v, in.Value(), g.fold)
	}
	if g.invert {
		v = signal.Map(v, signal.Not)
	}
	return component.Set(g.out, v)
}
