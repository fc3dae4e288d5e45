package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/signal"
)

// Run is a recorded simulation run.
type Run struct {
	ID        string      `json:"id"`
	Seq       int64       `json:"seq"`
	Circuit   string      `json:"circuit"`
	SpecHash  string      `json:"spec_hash"`
	Spec      []byte      `json:"-"` // canonical JSON of the circuit description
	MaxEvents uint64      `json:"max_events,omitempty"`
	MaxTime   signal.Time `json:"max_time,omitempty"`
	State     string      `json:"state"`
	FinalTime signal.Time `json:"final_time"`
	Events    uint64      `json:"events"`
	ErrorCode string      `json:"error_code,omitempty"`
	Error     string      `json:"error,omitempty"`
	Digest    string      `json:"digest"`
}

// Bound returns the run bound the run was started with.
func (r Run) Bound() engine.Bound {
	return engine.Bound{MaxEvents: r.MaxEvents, MaxTime: r.MaxTime}
}

// DigestMismatchError reports a second write of a run id with a different
// trace.
type DigestMismatchError struct {
	RunID    string
	Stored   string
	Incoming string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("run %q already recorded with digest %s, got %s", e.RunID, e.Stored, e.Incoming)
}

// WriteRun inserts a run with its stimulus and trace in one transaction.
// run.Seq is assigned by the store; run.Digest, State, FinalTime, Events
// and ErrorCode are taken from the trace.
//
// Writing the same run id again with the same trace is a no-op. A different
// trace under an existing id returns *DigestMismatchError.
func (s *Store) WriteRun(ctx context.Context, run Run, stimuli []circuit.Stimulus, trace circuit.Trace) (Run, error) {
	digest, err := trace.Digest()
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	run.Digest = digest
	run.State = trace.State
	run.FinalTime = trace.Time
	run.Events = uint64(len(trace.Events))
	run.ErrorCode = trace.ErrorCode

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT digest FROM runs WHERE id = ?`, run.ID).Scan(&stored)
	switch {
	case err == nil:
		if stored != digest {
			return Run{}, &DigestMismatchError{RunID: run.ID, Stored: stored, Incoming: digest}
		}
		// The pool holds a single connection; release it before reading.
		tx.Rollback()
		return s.ReadRun(ctx, run.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	// WHERE true disambiguates the upsert clause after INSERT ... SELECT.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, circuit, spec_hash, spec, max_events, max_time, state, final_time, events, error_code, error, digest)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM runs WHERE true
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Circuit,
		run.SpecHash,
		string(run.Spec),
		int64(run.MaxEvents),
		int64(run.MaxTime),
		run.State,
		int64(run.FinalTime),
		int64(run.Events),
		run.ErrorCode,
		run.Error,
		run.Digest,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	for i, st := range stimuli {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stimuli (run_id, idx, at, net, value, origin)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, i, int64(st.At), st.Net, st.Value, st.Origin)
		if err != nil {
			return Run{}, fmt.Errorf("write stimulus %d: %w", i, err)
		}
	}

	for _, ev := range trace.Events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (run_id, seq, time, net, value, origin, pin, resolved, changed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, int64(ev.Seq), int64(ev.Time), ev.Net, ev.Value, ev.Origin, ev.Pin, ev.Resolved, ev.Changed)
		if err != nil {
			return Run{}, fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
	}

	for net, value := range trace.Final {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO final_values (run_id, net, value)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, net, value)
		if err != nil {
			return Run{}, fmt.Errorf("write final value of %q: %w", net, err)
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: read seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// Recorder is an engine observer that buffers the applied events of one
// run and writes the run when it finishes.
type Recorder struct {
	store   *Store
	c       *circuit.Circuit
	run     Run
	stimuli []circuit.Stimulus
	events  []circuit.TraceEvent
}

// NewRecorder subscribes a recorder for run id to the circuit's engine.
// stimuli and b are stored with the run so it can be replayed.
func NewRecorder(s *Store, id string, c *circuit.Circuit, b engine.Bound, stimuli []circuit.Stimulus) (*Recorder, error) {
	spec, err := c.Spec.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("record run %q: %w", id, err)
	}
	hash, err := c.Spec.Hash()
	if err != nil {
		return nil, fmt.Errorf("record run %q: %w", id, err)
	}
	r := &Recorder{
		store: s,
		c:     c,
		run: Run{
			ID:        id,
			Circuit:   c.Spec.Name,
			SpecHash:  hash,
			Spec:      spec,
			MaxEvents: b.MaxEvents,
			MaxTime:   b.MaxTime,
		},
		stimuli: stimuli,
	}
	c.Engine.Subscribe(r)
	return r, nil
}

// ID returns the run id.
func (r *Recorder) ID() string { return r.run.ID }

// Observe implements engine.Observer.
func (r *Recorder) Observe(a engine.Applied) {
	r.events = append(r.events, r.c.Event(a))
}

// Finish writes the run. runErr is the error Run returned, if any; its
// message is stored with the run.
func (r *Recorder) Finish(ctx context.Context, runErr error) (Run, circuit.Trace, error) {
	run := r.run
	if runErr != nil {
		run.Error = runErr.Error()
	}
	trace := r.c.Trace(r.events, runErr)
	run, err := r.store.WriteRun(ctx, run, r.stimuli, trace)
	if err != nil {
		return Run{}, trace, err
	}
	return run, trace, nil
}
