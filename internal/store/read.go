package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/signal"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, circuit, spec_hash, spec, max_events, max_time, state, final_time, events, error_code, error, digest`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r                                        Run
		spec                                     string
		maxEvents, maxTime, finalTime, numEvents int64
	)
	err := row.Scan(&r.ID, &r.Seq, &r.Circuit, &r.SpecHash, &spec, &maxEvents, &maxTime,
		&r.State, &finalTime, &numEvents, &r.ErrorCode, &r.Error, &r.Digest)
	if err != nil {
		return Run{}, err
	}
	r.Spec = []byte(spec)
	r.MaxEvents = uint64(maxEvents)
	r.MaxTime = signal.Time(uint64(maxTime))
	r.FinalTime = signal.Time(uint64(finalTime))
	r.Events = uint64(numEvents)
	return r, nil
}

// ReadRun returns the run with the given id, or an error wrapping
// ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return r, nil
}

// ListRuns returns every run in recording order.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadStimuli returns the stimulus of a run in the order it was given.
func (s *Store) ReadStimuli(ctx context.Context, runID string) ([]circuit.Stimulus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT at, net, value, origin
		FROM stimuli
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stimuli: %w", err)
	}
	defer rows.Close()

	stimuli := []circuit.Stimulus{}
	for rows.Next() {
		var (
			st circuit.Stimulus
			at int64
		)
		if err := rows.Scan(&at, &st.Net, &st.Value, &st.Origin); err != nil {
			return nil, fmt.Errorf("scan stimulus: %w", err)
		}
		st.At = signal.Time(uint64(at))
		stimuli = append(stimuli, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stimuli: %w", err)
	}
	return stimuli, nil
}

// ReadEvents returns the applied events of a run in processing order.
// A non-empty net restricts the result to that net.
func (s *Store) ReadEvents(ctx context.Context, runID, net string) ([]circuit.TraceEvent, error) {
	query := `
		SELECT seq, time, net, value, origin, pin, resolved, changed
		FROM events
		WHERE run_id = ?`
	args := []any{runID}
	if net != "" {
		query += ` AND net = ?`
		args = append(args, net)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []circuit.TraceEvent{}
	for rows.Next() {
		var (
			ev        circuit.TraceEvent
			seq, time int64
		)
		if err := rows.Scan(&seq, &time, &ev.Net, &ev.Value, &ev.Origin, &ev.Pin, &ev.Resolved, &ev.Changed); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Seq = uint64(seq)
		ev.Time = signal.Time(uint64(time))
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadFinalValues returns the net values of a run when it finished.
func (s *Store) ReadFinalValues(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT net, value FROM final_values WHERE run_id = ? ORDER BY net ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query final values: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var net, value string
		if err := rows.Scan(&net, &value); err != nil {
			return nil, fmt.Errorf("scan final value: %w", err)
		}
		values[net] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate final values: %w", err)
	}
	return values, nil
}

// ReadTrace reassembles the trace of a recorded run. Its digest equals the
// digest stored with the run.
func (s *Store) ReadTrace(ctx context.Context, runID string) (circuit.Trace, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return circuit.Trace{}, err
	}
	events, err := s.ReadEvents(ctx, runID, "")
	if err != nil {
		return circuit.Trace{}, err
	}
	final, err := s.ReadFinalValues(ctx, runID)
	if err != nil {
		return circuit.Trace{}, err
	}
	return circuit.Trace{
		Circuit:   run.Circuit,
		Events:    events,
		Final:     final,
		State:     run.State,
		Time:      run.FinalTime,
		ErrorCode: run.ErrorCode,
	}, nil
}
