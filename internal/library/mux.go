package library

import (
	"fmt"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// KindMux is the kind name of Mux.
const KindMux = "mux"

// MaxSelect bounds the select width of a multiplexer.
const MaxSelect signal.Width = 5

// Mux forwards one of its 2^k data inputs, chosen by the k-bit sel input.
//
// An undefined select drives an all-Unknown output, or all-Error when the
// select carries an Error.
type Mux struct {
	*component.Base
	sel    *component.Pin
	inputs []*component.Pin
	out    *component.Pin
}

// NewMux returns a multiplexer of data width w and select width k.
func NewMux(label string, w, k signal.Width, delay signal.Delay) (*Mux, error) {
	if k < 1 || k > MaxSelect {
		return nil, fmt.Errorf("select width must be 1 to %d, got %d", MaxSelect, k)
	}
	n := 1 << k
	specs := []component.PinSpec{component.In(pSel, k)}
	for i := range n {
		specs = append(specs, component.In(InputPin(i), w))
	}
	specs = append(specs, component.Out(pOut, w))

	b, err := component.NewBase(KindMux, label, delay, specs...)
	if err != nil {
		return nil, err
	}
	m := &Mux{Base: b, sel: b.Pins().Must(pSel), out: b.Pins().Must(pOut)}
	for i := range n {
		m.inputs = append(m.inputs, b.Pins().Must(InputPin(i)))
	}
	return m, nil
}

func newMuxFromParams(p Params) (component.Component, error) {
	k := p.Select
	if k == 0 {
		k = 1
	}
	return NewMux(p.Label, p.width(), k, p.delay(DefaultDelay))
}

// Update forwards the selected input.
func (m *Mux) Update(signal.Time) component.UpdateResult {
	sel := m.sel.Value()
	i, err := sel.ToUint64()
	if err != nil {
		return component.Set(m.out, undefinedLike(m.out.Width(), sel))
	}
	return component.Set(m.out, m.inputs[i].Value())
}

// undefinedLike returns the all-Error signal of width w if any of the
// operands carries an Error, and the all-Unknown one otherwise.
func undefinedLike(w signal.Width, operands ...signal.Signal) signal.Signal {
	for _, s := range operands {
		if s.HasError() {
			return signal.Fill(w, signal.Error)
		}
	}
	return signal.Undefined(w)
}
