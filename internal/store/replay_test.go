package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
)

func TestReplay_Deterministic(t *testing.T) {
	s := createTestStore(t)
	run, trace := recordRun(t, s, "run-1", and2Spec(), engine.Bound{}, andStimuli)

	res, err := s.Replay(context.Background(), "run-1", quiet())
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Equal(t, run.Digest, res.Recorded)
	assert.Equal(t, run.Digest, res.Replayed)
	assert.Equal(t, -1, res.Divergence)
	assert.Equal(t, trace, res.Trace)
}

func TestReplay_UsesStoredBound(t *testing.T) {
	s := createTestStore(t)
	recordRun(t, s, "ring", ringSpec(), engine.Bound{MaxEvents: 7}, ringStimuli)

	res, err := s.Replay(context.Background(), "ring", quiet())
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Equal(t, "OSCILLATION", res.Trace.ErrorCode)
	assert.Len(t, res.Trace.Events, 7)
}

func TestReplay_DetectsTamperedLog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	recordRun(t, s, "run-1", and2Spec(), engine.Bound{}, andStimuli)

	_, err := s.db.Exec(`UPDATE events SET resolved = 'x' WHERE run_id = 'run-1' AND net = 'y'`)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE runs SET digest = 'tampered' WHERE id = 'run-1'`)
	require.NoError(t, err)

	res, err := s.Replay(ctx, "run-1", quiet())
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Equal(t, "tampered", res.Recorded)

	ys, err := s.ReadEvents(ctx, "run-1", "y")
	require.NoError(t, err)
	require.NotEmpty(t, ys)
	assert.Equal(t, res.Trace.Events[res.Divergence].Seq, ys[0].Seq)
}

func TestReplay_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Replay(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDivergence(t *testing.T) {
	a := []circuit.TraceEvent{{Seq: 1}, {Seq: 2}}
	assert.Equal(t, 1, divergence(a, []circuit.TraceEvent{{Seq: 1}, {Seq: 3}}))
	assert.Equal(t, 1, divergence(a, a[:1]))
	assert.Equal(t, 2, divergence(a, a))
}
