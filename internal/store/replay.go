package store

import (
	"context"
	"fmt"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
)

// ReplayResult compares a recorded run with a fresh run of the same
// circuit and stimulus.
type ReplayResult struct {
	RunID    string        `json:"run_id"`
	Recorded string        `json:"recorded"`
	Replayed string        `json:"replayed"`
	Match    bool          `json:"match"`
	Trace    circuit.Trace `json:"-"`

	// Divergence is the index of the first event that differs, or -1.
	// When the events agree but the digests don't, it is the event count.
	Divergence int `json:"divergence"`
}

// Replay rebuilds a recorded run from its stored description, applies the
// stored stimulus under the stored bound and compares trace digests.
// Engine options such as a logger are passed through to the new engine.
func (s *Store) Replay(ctx context.Context, runID string, opts ...engine.Option) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	spec, err := circuit.ParseSpecJSON(run.Spec)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
	}
	stimuli, err := s.ReadStimuli(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
	}

	c, err := circuit.Build(spec, engine.New(opts...))
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
	}
	tracer := c.NewTracer()
	if err := c.ApplyAll(stimuli); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
	}
	runErr := c.Engine.Run(ctx, run.Bound())
	trace := tracer.Trace(runErr)

	digest, err := trace.Digest()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
	}
	res := ReplayResult{
		RunID:      runID,
		Recorded:   run.Digest,
		Replayed:   digest,
		Match:      digest == run.Digest,
		Trace:      trace,
		Divergence: -1,
	}
	if !res.Match {
		recorded, err := s.ReadEvents(ctx, runID, "")
		if err != nil {
			return ReplayResult{}, fmt.Errorf("replay %q: %w", runID, err)
		}
		res.Divergence = divergence(recorded, trace.Events)
	}
	return res, nil
}

func divergence(a, b []circuit.TraceEvent) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
