package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/signal"
	"github.com/roach88/digisim/internal/testutil"
)

// drive sets input pins of c and runs one update.
func drive(t *testing.T, c component.Component, in map[string]string) component.UpdateResult {
	t.Helper()
	for name, v := range in {
		c.Pins().Must(name).Observe(signal.MustParse(v))
	}
	return c.Update(0)
}

func out(c component.Component, pin string) string {
	return c.Pins().Must(pin).Driven().String()
}

func TestGates_TruthTables(t *testing.T) {
	tests := []struct {
		kind string
		want [4]string // a,b = 00, 01, 10, 11
	}{
		{KindAnd, [4]string{"0", "0", "0", "1"}},
		{KindOr, [4]string{"0", "1", "1", "1"}},
		{KindNand, [4]string{"1", "1", "1", "0"}},
		{KindNor, [4]string{"1", "0", "0", "0"}},
		{KindXor, [4]string{"0", "1", "1", "0"}},
		{KindXnor, [4]string{"1", "0", "0", "1"}},
	}
	inputs := [4][2]string{{"0", "0"}, {"0", "1"}, {"1", "0"}, {"1", "1"}}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			g, err := New(tt.kind, Params{})
			require.NoError(t, err)
			assert.Equal(t, DefaultDelay, g.PropagationDelay())
			for i, in := range inputs {
				drive(t, g, map[string]string{"in0": in[0], "in1": in[1]})
				assert.Equal(t, tt.want[i], out(g, pOut), "inputs %v", in)
			}
		})
	}
}

func TestGates_FourValued(t *testing.T) {
	and, err := NewGate(KindAnd, "", 1, 3, 1)
	require.NoError(t, err)

	drive(t, and, map[string]string{"in0": "0", "in1": "x", "in2": "1"})
	assert.Equal(t, "0", out(and, pOut), "a Low input dominates Unknown")

	drive(t, and, map[string]string{"in0": "1", "in1": "x", "in2": "1"})
	assert.Equal(t, "x", out(and, pOut))

	drive(t, and, map[string]string{"in0": "0", "in1": "E", "in2": "1"})
	assert.Equal(t, "E", out(and, pOut), "Error propagates")

	or, err := NewGate(KindOr, "", 1, 2, 1)
	require.NoError(t, err)
	drive(t, or, map[string]string{"in0": "1", "in1": "x"})
	assert.Equal(t, "1", out(or, pOut))

	xor, err := NewGate(KindXor, "", 1, 2, 1)
	require.NoError(t, err)
	drive(t, xor, map[string]string{"in0": "1", "in1": "x"})
	assert.Equal(t, "x", out(xor, pOut))
}

func TestGates_Bus(t *testing.T) {
	g, err := New(KindXor, Params{Width: 4, Inputs: 3})
	require.NoError(t, err)
	res := drive(t, g, map[string]string{"in0": "1100", "in1": "1010", "in2": "0001"})
	assert.Equal(t, component.Changed, res)
	assert.Equal(t, "0111", out(g, pOut))

	res = drive(t, g, map[string]string{"in0": "1100", "in1": "1010", "in2": "0001"})
	assert.Equal(t, component.NoChange, res, "same inputs, same output")
}

func TestGate_InputCount(t *testing.T) {
	_, err := New(KindAnd, Params{Inputs: 1})
	assert.Error(t, err)
	_, err = New(KindAnd, Params{Inputs: MaxInputs + 1})
	assert.Error(t, err)
	_, err = NewGate("nope", "", 1, 2, 1)
	assert.True(t, IsUnknownKind(err))
}

func TestNot_DelayDefaultsToWidth(t *testing.T) {
	n, err := New(KindNot, Params{Width: 8})
	require.NoError(t, err)
	assert.Equal(t, signal.Delay(8), n.PropagationDelay())

	for _, d := range []signal.Delay{0, 1, 3} {
		given, err := New(KindNot, Params{Width: 8, Delay: Delay(d)})
		require.NoError(t, err)
		assert.Equal(t, d, given.PropagationDelay(), "explicit delay %d", d)
	}

	drive(t, n, map[string]string{pIn: "1010_xE01"})
	assert.Equal(t, "0101xE10", out(n, pOut))
}

func TestBuffer(t *testing.T) {
	b, err := New(KindBuffer, Params{Width: 2, Delay: Delay(5)})
	require.NoError(t, err)
	assert.Equal(t, signal.Delay(5), b.PropagationDelay())
	drive(t, b, map[string]string{pIn: "1x"})
	assert.Equal(t, "1x", out(b, pOut))
}

func TestConstant(t *testing.T) {
	c, err := New(KindConst, Params{Value: "101"})
	require.NoError(t, err)
	assert.Equal(t, component.Changed, c.Update(0))
	assert.Equal(t, "101", out(c, pOut))
	assert.Equal(t, component.NoChange, c.Update(1))
	assert.Equal(t, signal.Delay(0), c.PropagationDelay())

	_, err = New(KindConst, Params{})
	assert.Error(t, err)
	_, err = New(KindConst, Params{Value: "10", Width: 3})
	assert.Error(t, err)
}

func TestMux(t *testing.T) {
	m, err := New(KindMux, Params{Width: 2, Select: 2})
	require.NoError(t, err)
	in := map[string]string{"in0": "00", "in1": "01", "in2": "10", "in3": "11"}

	for sel, want := range map[string]string{"00": "00", "01": "01", "10": "10", "11": "11"} {
		in[pSel] = sel
		drive(t, m, in)
		assert.Equal(t, want, out(m, pOut), "sel %s", sel)
	}

	in[pSel] = "x1"
	drive(t, m, in)
	assert.Equal(t, "xx", out(m, pOut))

	in[pSel] = "E1"
	drive(t, m, in)
	assert.Equal(t, "EE", out(m, pOut))

	_, err = NewMux("", 1, MaxSelect+1, 1)
	assert.Error(t, err)
}

func TestAdder(t *testing.T) {
	a, err := New(KindAdder, Params{Width: 4})
	require.NoError(t, err)

	drive(t, a, map[string]string{pA: "0011", pB: "0101", pCin: "0"})
	assert.Equal(t, "1000", out(a, pSum))
	assert.Equal(t, "0", out(a, pCout))

	drive(t, a, map[string]string{pA: "1111", pB: "0001", pCin: "1"})
	assert.Equal(t, "0001", out(a, pSum))
	assert.Equal(t, "1", out(a, pCout))

	drive(t, a, map[string]string{pA: "0001", pB: "0001", pCin: "x"})
	assert.Equal(t, "0010", out(a, pSum), "unknown carry in counts as 0")

	drive(t, a, map[string]string{pA: "00x1", pB: "0001", pCin: "0"})
	assert.Equal(t, "xxxx", out(a, pSum))
	assert.Equal(t, "x", out(a, pCout))
}

func TestAdder_FullWidth(t *testing.T) {
	a, err := NewAdder("", 64, 1)
	require.NoError(t, err)
	ones, _ := signal.FromUint64(64, ^uint64(0))
	one, _ := signal.FromUint64(64, 1)
	a.Pins().Must(pA).Observe(ones)
	a.Pins().Must(pB).Observe(one)
	a.Update(0)

	sum, err := a.Pins().Must(pSum).Driven().ToUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), sum)
	assert.Equal(t, "1", out(a, pCout))
}

func TestDivider(t *testing.T) {
	d, err := New(KindDivider, Params{Width: 4})
	require.NoError(t, err)

	drive(t, d, map[string]string{pA: "1101", pB: "0100"})
	assert.Equal(t, "0011", out(d, pQ))
	assert.Equal(t, "0001", out(d, pR))

	res := drive(t, d, map[string]string{pA: "1101", pB: "0000"})
	assert.Equal(t, component.StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrDivideByZero)

	drive(t, d, map[string]string{pA: "1101", pB: "0x00"})
	assert.Equal(t, "xxxx", out(d, pQ))
}

func TestDFlipFlop(t *testing.T) {
	f, err := New(KindDFF, Params{Width: 2})
	require.NoError(t, err)
	st := f.(component.Stater)

	drive(t, f, map[string]string{pD: "10", pClk: "1"})
	assert.Equal(t, "xx", out(f, pQ), "no edge from Unknown")

	drive(t, f, map[string]string{pD: "10", pClk: "0"})
	drive(t, f, map[string]string{pD: "10", pClk: "1"})
	assert.Equal(t, "10", out(f, pQ))
	assert.Equal(t, "01", out(f, pQn))
	assert.Equal(t, signal.MustParse("10"), st.State())

	drive(t, f, map[string]string{pD: "11", pClk: "1"})
	assert.Equal(t, "10", out(f, pQ), "level does not latch")

	drive(t, f, map[string]string{pD: "11", pClk: "0"})
	assert.Equal(t, "10", out(f, pQ), "falling edge does not latch")

	f.Reset()
	assert.Equal(t, signal.MustParse("xx"), st.State())
	assert.Equal(t, "xx", out(f, pQ))
}

func TestInput_Injects(t *testing.T) {
	c, err := New(KindInput, Params{Width: 2})
	require.NoError(t, err)
	inj, ok := c.(component.Injector)
	require.True(t, ok)
	assert.True(t, inj.Injectable(pOut))
	assert.False(t, inj.Injectable("in"))

	inj.Inject(pOut, signal.MustParse("10"))
	assert.Equal(t, "10", out(c, pOut))
	assert.Equal(t, component.NoChange, c.Update(0))

	// Gates never take outside values.
	g, err := New(KindAnd, Params{Width: 1, Inputs: 2})
	require.NoError(t, err)
	_, ok = g.(component.Injector)
	assert.False(t, ok)
}

func TestProbe(t *testing.T) {
	p, err := NewProbe("watch", 1)
	require.NoError(t, err)
	p.Pins().Must(pIn).Observe(signal.Bit(signal.High))
	assert.Equal(t, component.NoChange, p.Update(3))
	assert.Equal(t, ProbeState{Last: signal.Bit(signal.High), Changes: 1, At: 3}, p.State())

	p.Reset()
	assert.Equal(t, ProbeState{Last: signal.Bit(signal.Unknown)}, p.State())
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("flux-capacitor", Params{})
	require.Error(t, err)
	assert.True(t, IsUnknownKind(err))
	assert.Contains(t, err.Error(), "and")
	assert.True(t, IsKind(KindMux))
	assert.False(t, IsKind("flux-capacitor"))
}

func TestNew_EveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		p := Params{Label: "x"}
		if kind == KindConst {
			p.Value = "1"
		}
		c, err := New(kind, p)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, c.Kind())
		assert.Equal(t, "x", c.Label())
	}
}

func newEngine() *engine.Engine {
	return testutil.QuietEngine()
}

// A DFF whose qn feeds d divides the clock by two.
func TestDFlipFlop_ToggleInEngine(t *testing.T) {
	e := newEngine()
	ff, err := NewDFlipFlop("ff", 1, 1)
	require.NoError(t, err)
	clkIn, err := NewInput("clk", 1)
	require.NoError(t, err)

	ffID, err := e.Register(ff)
	require.NoError(t, err)
	clkID, err := e.Register(clkIn)
	require.NoError(t, err)

	clk, _ := e.CreateNet(1)
	fb, _ := e.CreateNet(1)
	q, _ := e.CreateNet(1)
	require.NoError(t, e.Connect(clkID, pOut, clk))
	require.NoError(t, e.Connect(ffID, pClk, clk))
	require.NoError(t, e.Connect(ffID, pQn, fb))
	require.NoError(t, e.Connect(ffID, pD, fb))
	require.NoError(t, e.Connect(ffID, pQ, q))

	// Give the loop a defined starting value through an external driver.
	require.NoError(t, e.ScheduleSignalChange(0, fb, signal.Bit(signal.Low), component.External))
	ctx := context.Background()

	var got []string
	for i := range 4 {
		at := signal.Time(10 * (i + 1))
		require.NoError(t, e.ScheduleSignalChange(at, clk, signal.Bit(signal.Low), clkID))
		require.NoError(t, e.ScheduleSignalChange(at+5, clk, signal.Bit(signal.High), clkID))
		require.NoError(t, e.Run(ctx, engine.Bound{}))
		v, _ := e.NetValue(q)
		got = append(got, v.String())
		if i == 0 {
			// Release the external driver once the flip-flop drives fb.
			require.NoError(t, e.ScheduleSignalChange(e.CurrentTime(), fb, signal.Bit(signal.Unknown), component.External))
		}
	}
	assert.Equal(t, []string{"0", "1", "0", "1"}, got)

	st, err := e.ComponentState(clkID)
	require.NoError(t, err)
	assert.Equal(t, signal.Bit(signal.High), st)
}
