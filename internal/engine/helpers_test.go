package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/netlist"
	"github.com/roach88/digisim/internal/signal"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(opts ...Option) *Engine {
	return New(append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// and2 is a one-bit two-input AND gate with a delay of 1.
type and2 struct{ *component.Base }

func newAnd2(t *testing.T) *and2 {
	t.Helper()
	b, err := component.NewBase("and", "", 1,
		component.In("a", 1), component.In("b", 1), component.Out("y", 1))
	require.NoError(t, err)
	return &and2{b}
}

func (g *and2) Update(signal.Time) component.UpdateResult {
	p := g.Pins()
	y := signal.And(p.Must("a").Value().At(0), p.Must("b").Value().At(0))
	return component.Set(p.Must("y"), signal.Bit(y))
}

// inverter is a one-bit NOT gate with a configurable delay.
type inverter struct{ *component.Base }

func newInverter(t *testing.T, delay signal.Delay) *inverter {
	t.Helper()
	b, err := component.NewBase("not", "", delay, component.In("in", 1), component.Out("out", 1))
	require.NoError(t, err)
	return &inverter{b}
}

func (g *inverter) Update(signal.Time) component.UpdateResult {
	p := g.Pins()
	return component.Set(p.Must("out"), signal.Bit(signal.Not(p.Must("in").Value().At(0))))
}

// The output can be preset from outside, which is how the ring tests kick
// an oscillator.
func (g *inverter) Injectable(pin string) bool { return pin == "out" }

func (g *inverter) Inject(pin string, v signal.Signal) { g.Pins().Must(pin).Drive(v) }

// source drives a fixed value once primed.
type source struct {
	*component.Base
	v signal.Value
}

func newSource(t *testing.T, v signal.Value) *source {
	t.Helper()
	b, err := component.NewBase("const", "", 0, component.Out("out", 1))
	require.NoError(t, err)
	return &source{Base: b, v: v}
}

func (s *source) Update(signal.Time) component.UpdateResult {
	return component.Set(s.Pins().Must("out"), signal.Bit(s.v))
}

// faulty drives its output high and then reports a failure.
type faulty struct{ *component.Base }

func newFaulty(t *testing.T) *faulty {
	t.Helper()
	b, err := component.NewBase("faulty", "", 1, component.In("in", 1), component.Out("out", 1))
	require.NoError(t, err)
	return &faulty{b}
}

func (f *faulty) Update(signal.Time) component.UpdateResult {
	f.Pins().Must("out").Drive(signal.Bit(signal.High))
	return component.Failf("cannot compute")
}

// latch exposes internal state.
type latch struct {
	*component.Base
	stored signal.Value
}

func (l *latch) Update(signal.Time) component.UpdateResult { return component.NoChange }
func (l *latch) State() any                                 { return l.stored }

func mustRegister(t *testing.T, e *Engine, c component.Component) component.ID {
	t.Helper()
	id, err := e.Register(c)
	require.NoError(t, err)
	return id
}

func mustNet(t *testing.T, e *Engine, w signal.Width) netlist.NetID {
	t.Helper()
	n, err := e.CreateNet(w)
	require.NoError(t, err)
	return n
}

func mustConnect(t *testing.T, e *Engine, id component.ID, pin string, n netlist.NetID) {
	t.Helper()
	require.NoError(t, e.Connect(id, pin, n))
}

func value(t *testing.T, e *Engine, n netlist.NetID) signal.Signal {
	t.Helper()
	v, err := e.NetValue(n)
	require.NoError(t, err)
	return v
}

var (
	hi = signal.Bit(signal.High)
	lo = signal.Bit(signal.Low)
	xx = signal.Bit(signal.Unknown)
)

// traceOf records every applied event as a string.
func traceOf(e *Engine) *[]string {
	var out []string
	e.Subscribe(ObserverFunc(func(a Applied) {
		out = append(out, a.Event.String()+" => "+a.Resolved.String())
	}))
	return &out
}

// andCircuit builds a, b -> AND -> y.
func andCircuit(t *testing.T, e *Engine) (a, b, y netlist.NetID) {
	t.Helper()
	g := mustRegister(t, e, newAnd2(t))
	a, b, y = mustNet(t, e, 1), mustNet(t, e, 1), mustNet(t, e, 1)
	mustConnect(t, e, g, "a", a)
	mustConnect(t, e, g, "b", b)
	mustConnect(t, e, g, "y", y)
	return a, b, y
}

// ring builds an inverter whose output feeds its own input.
func ring(t *testing.T, e *Engine, delay signal.Delay) (component.ID, netlist.NetID) {
	t.Helper()
	inv := mustRegister(t, e, newInverter(t, delay))
	n := mustNet(t, e, 1)
	mustConnect(t, e, inv, "in", n)
	mustConnect(t, e, inv, "out", n)
	return inv, n
}
