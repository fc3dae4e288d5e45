package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

func gatePins(t *testing.T, w signal.Width) *component.Pins {
	t.Helper()
	ps, err := component.NewPins(
		component.In("a", w),
		component.In("b", w),
		component.Out("y", w),
	)
	require.NoError(t, err)
	return ps
}

func TestCreateNet(t *testing.T) {
	nl := New()

	id, err := nl.CreateNet(4)
	require.NoError(t, err)
	assert.Equal(t, NetID(1), id)
	assert.Equal(t, signal.Width(4), nl.Width(id))

	v, err := nl.Value(id)
	require.NoError(t, err)
	assert.Equal(t, "xxxx", v.String())

	id2, err := nl.CreateNet(1)
	require.NoError(t, err)
	assert.Equal(t, NetID(2), id2)
	assert.Equal(t, []NetID{1, 2}, nl.Nets())
}

func TestCreateNet_InvalidWidth(t *testing.T) {
	nl := New()
	for _, w := range []signal.Width{0, 65} {
		_, err := nl.CreateNet(w)
		require.Error(t, err)
		var ne *Error
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, ErrCodeInvalidWidth, ne.Code)
	}
	assert.Equal(t, 0, nl.Len())
}

func TestConnect_DriversAndListeners(t *testing.T) {
	nl := New()
	require.NoError(t, nl.AddComponent(2, gatePins(t, 1)))
	require.NoError(t, nl.AddComponent(1, gatePins(t, 1)))
	n, err := nl.CreateNet(1)
	require.NoError(t, err)

	require.NoError(t, nl.Connect(2, "y", n))
	require.NoError(t, nl.Connect(2, "a", n))
	require.NoError(t, nl.Connect(1, "b", n))
	require.NoError(t, nl.Connect(1, "a", n))

	assert.Equal(t, []Endpoint{{2, "y"}}, nl.DriversOf(n))
	assert.Equal(t, []Endpoint{{1, "a"}, {1, "b"}, {2, "a"}}, nl.ListenersOf(n))

	got, ok := nl.NetOf(1, "b")
	assert.True(t, ok)
	assert.Equal(t, n, got)

	_, ok = nl.NetOf(1, "y")
	assert.False(t, ok)
}

func TestConnect_Errors(t *testing.T) {
	nl := New()
	require.NoError(t, nl.AddComponent(1, gatePins(t, 1)))
	n1, _ := nl.CreateNet(1)
	n2, _ := nl.CreateNet(1)
	wide, _ := nl.CreateNet(8)

	err := nl.Connect(1, "q", n1)
	assert.True(t, IsPinNotFound(err), "got %v", err)

	err = nl.Connect(1, "a", wide)
	assert.True(t, IsWidthMismatch(err), "got %v", err)

	require.NoError(t, nl.Connect(1, "a", n1))
	err = nl.Connect(1, "a", n2)
	assert.True(t, IsAlreadyConnected(err), "got %v", err)
	assert.Contains(t, err.Error(), "n1")

	err = nl.Connect(9, "a", n1)
	assert.True(t, hasCode(err, ErrCodeComponentNotFound), "got %v", err)

	err = nl.Connect(1, "b", 42)
	assert.True(t, hasCode(err, ErrCodeNetNotFound), "got %v", err)

	// A failed connect leaves the pin free.
	require.NoError(t, nl.Connect(1, "b", n2))
}

func TestAddComponent_Duplicate(t *testing.T) {
	nl := New()
	require.NoError(t, nl.AddComponent(1, gatePins(t, 1)))
	err := nl.AddComponent(1, gatePins(t, 1))
	assert.True(t, hasCode(err, ErrCodeDuplicateComponent))
}

func TestDisconnect(t *testing.T) {
	nl := New()
	require.NoError(t, nl.AddComponent(1, gatePins(t, 1)))
	n, _ := nl.CreateNet(1)
	require.NoError(t, nl.Connect(1, "y", n))
	require.NoError(t, nl.Contribute(n, Endpoint{1, "y"}, signal.Bit(signal.High)))
	v, changed, err := nl.Resolve(n)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, signal.Bit(signal.High), v)

	nl.Disconnect(1, "y")
	nl.Disconnect(1, "y") // no-op
	assert.Empty(t, nl.DriversOf(n))

	v, changed, err = nl.Resolve(n)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, signal.Bit(signal.Unknown), v)

	// The pin can be reattached.
	require.NoError(t, nl.Connect(1, "y", n))
}

func TestResolve_MultipleDrivers(t *testing.T) {
	tests := []struct {
		name string
		a, b signal.Value
		want signal.Value
	}{
		{"both high", signal.High, signal.High, signal.High},
		{"unknown is transparent", signal.Unknown, signal.Low, signal.Low},
		{"conflict", signal.High, signal.Low, signal.Error},
		{"error absorbs", signal.Error, signal.Unknown, signal.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := New()
			n, _ := nl.CreateNet(1)
			for _, id := range []component.ID{1, 2} {
				require.NoError(t, nl.AddComponent(id, gatePins(t, 1)))
				require.NoError(t, nl.Connect(id, "y", n))
			}
			require.NoError(t, nl.Contribute(n, Endpoint{1, "y"}, signal.Bit(tt.a)))
			require.NoError(t, nl.Contribute(n, Endpoint{2, "y"}, signal.Bit(tt.b)))
			v, _, err := nl.Resolve(n)
			require.NoError(t, err)
			assert.Equal(t, signal.Bit(tt.want), v)
		})
	}
}

func TestResolve_Unchanged(t *testing.T) {
	nl := New()
	n, _ := nl.CreateNet(2)
	ep := Endpoint{component.External, ""}

	require.NoError(t, nl.Contribute(n, ep, signal.MustParse("10")))
	_, changed, _ := nl.Resolve(n)
	assert.True(t, changed)

	require.NoError(t, nl.Contribute(n, ep, signal.MustParse("10")))
	_, changed, _ = nl.Resolve(n)
	assert.False(t, changed)
}

func TestContribute_WidthMismatch(t *testing.T) {
	nl := New()
	n, _ := nl.CreateNet(2)
	err := nl.Contribute(n, Endpoint{component.External, ""}, signal.Bit(signal.High))
	assert.True(t, IsWidthMismatch(err))
}

func TestContribute_NotAttached(t *testing.T) {
	nl := New()
	require.NoError(t, nl.AddComponent(1, gatePins(t, 1)))
	n, _ := nl.CreateNet(1)
	other, _ := nl.CreateNet(1)

	err := nl.Contribute(n, Endpoint{1, "y"}, signal.Bit(signal.High))
	assert.True(t, IsNotAttached(err), "got %v", err)

	require.NoError(t, nl.Connect(1, "y", other))
	err = nl.Contribute(n, Endpoint{1, "y"}, signal.Bit(signal.High))
	assert.True(t, IsNotAttached(err), "pin on another net: got %v", err)

	// A disconnected pin cannot bring its contribution back.
	require.NoError(t, nl.Contribute(other, Endpoint{1, "y"}, signal.Bit(signal.High)))
	nl.Disconnect(1, "y")
	err = nl.Contribute(other, Endpoint{1, "y"}, signal.Bit(signal.High))
	assert.True(t, IsNotAttached(err), "got %v", err)
	v, _, err := nl.Resolve(other)
	require.NoError(t, err)
	assert.Equal(t, signal.Bit(signal.Unknown), v)
}

func TestReset(t *testing.T) {
	nl := New()
	n, _ := nl.CreateNet(1)
	require.NoError(t, nl.Contribute(n, Endpoint{component.External, ""}, signal.Bit(signal.High)))
	_, _, _ = nl.Resolve(n)

	nl.Reset()
	v, _ := nl.Value(n)
	assert.Equal(t, signal.Bit(signal.Unknown), v)

	_, changed, _ := nl.Resolve(n)
	assert.False(t, changed)
}
