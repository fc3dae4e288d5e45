package library

import (
	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// KindDFF is the kind name of DFlipFlop.
const KindDFF = "dff"

// DFlipFlop stores d on each rising edge of clk (a Low to High transition)
// and drives the stored value on q and its inverse on qn.
type DFlipFlop struct {
	*component.Base
	d, clk, q, qn *component.Pin
	stored        signal.Signal
	lastClk       signal.Value
}

// NewDFlipFlop returns a flip-flop of width w.
func NewDFlipFlop(label string, w signal.Width, delay signal.Delay) (*DFlipFlop, error) {
	b, err := component.NewBase(KindDFF, label, delay,
		component.In(pD, w), component.In(pClk, 1),
		component.Out(pQ, w), component.Out(pQn, w))
	if err != nil {
		return nil, err
	}
	p := b.Pins()
	return &DFlipFlop{
		Base: b,
		d:    p.Must(pD), clk: p.Must(pClk), q: p.Must(pQ), qn: p.Must(pQn),
		stored: signal.Undefined(w),
	}, nil
}

// Update latches d on a rising clock edge.
func (f *DFlipFlop) Update(signal.Time) component.UpdateResult {
	clk := f.clk.Value().At(0)
	if f.lastClk == signal.Low && clk == signal.High {
		f.stored = f.d.Value()
	}
	f.lastClk = clk
	return component.Merge(
		component.Set(f.q, f.stored),
		component.Set(f.qn, signal.Map(f.stored, signal.Not)),
	)
}

// Reset clears the stored value.
func (f *DFlipFlop) Reset() {
	f.Base.Reset()
	f.stored = signal.Undefined(f.d.Width())
	f.lastClk = signal.Unknown
}

// State returns the stored value.
func (f *DFlipFlop) State() any { return f.stored }
