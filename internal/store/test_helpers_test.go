package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quiet() engine.Option {
	return engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func and2Spec() *circuit.Spec {
	return &circuit.Spec{
		Name: "and2",
		Nets: []circuit.NetSpec{{Name: "a", Width: 1}, {Name: "b", Width: 1}, {Name: "y", Width: 1}},
		Components: []circuit.ComponentSpec{
			{Name: "in_a", Kind: "input", Pins: map[string]string{"out": "a"}},
			{Name: "in_b", Kind: "input", Pins: map[string]string{"out": "b"}},
			{Name: "g1", Kind: "and", Pins: map[string]string{"in0": "a", "in1": "b", "out": "y"}},
		},
	}
}

// ringSpec is a NAND fed back on itself. ringStimuli settle n high and
// then enable the loop, which oscillates from time 2 on.
func ringSpec() *circuit.Spec {
	return &circuit.Spec{
		Name: "ring",
		Nets: []circuit.NetSpec{{Name: "en", Width: 1}, {Name: "n", Width: 1}},
		Components: []circuit.ComponentSpec{
			{Name: "in_en", Kind: "input", Pins: map[string]string{"out": "en"}},
			{Name: "g", Kind: "nand", Pins: map[string]string{"in0": "en", "in1": "n", "out": "n"}},
		},
	}
}

var ringStimuli = []circuit.Stimulus{
	{At: 0, Net: "en", Value: "0"},
	{At: 2, Net: "en", Value: "1"},
}

// recordRun builds spec, records a run of stimuli under b and returns the
// stored run.
func recordRun(t *testing.T, s *Store, id string, spec *circuit.Spec, b engine.Bound, stimuli []circuit.Stimulus) (Run, circuit.Trace) {
	t.Helper()
	ctx := context.Background()

	c, err := circuit.Build(spec, engine.New(quiet()))
	require.NoError(t, err)
	rec, err := NewRecorder(s, id, c, b, stimuli)
	require.NoError(t, err)
	require.NoError(t, c.ApplyAll(stimuli))

	run, trace, err := rec.Finish(ctx, c.Engine.Run(ctx, b))
	require.NoError(t, err)
	return run, trace
}

var andStimuli = []circuit.Stimulus{
	{At: 0, Net: "a", Value: "1"},
	{At: 0, Net: "b", Value: "1"},
	{At: 5, Net: "a", Value: "0"},
}
