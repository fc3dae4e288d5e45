package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/compiler"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/store"
	"github.com/roach88/digisim/internal/testutil"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass indicates overall test success.
	// True if the run ended as expected and every assertion holds.
	Pass bool `json:"pass"`

	// RunID is the id the run was recorded under, if a store is attached.
	RunID string `json:"run_id,omitempty"`

	// Trace contains every applied event and the final net values.
	Trace circuit.Trace `json:"trace"`

	// Digest is the trace digest.
	Digest string `json:"digest"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// FinalValues returns the net values when the run ended.
func (r *Result) FinalValues() map[string]string {
	return r.Trace.Final
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness runs scenarios. Each scenario gets a fresh engine.
type Harness struct {
	logger *slog.Logger
	store  *store.Store
	runIDs engine.RunIDGenerator
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to engines. The default discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStore records every run in s.
func WithStore(s *store.Store) Option {
	return func(h *Harness) { h.store = s }
}

// WithRunIDGenerator sets the run id source for scenarios without a run_id.
// The default is a fixed "test-run-default", which keeps recorded logs
// reproducible.
func WithRunIDGenerator(g engine.RunIDGenerator) Option {
	return func(h *Harness) { h.runIDs = g }
}

// New returns a harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile the circuit and build it in a fresh engine
// 2. Apply the stimulus in time order
// 3. Run under the scenario bound
// 4. Check the expectation and evaluate assertions
//
// An error is returned only when the scenario cannot be executed: a
// circuit that does not compile or build, or a stimulus naming an unknown
// net. Failed expectations are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	spec, err := compiler.Load(scenario.Circuit)
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit: %w", err)
	}

	c, err := circuit.Build(spec, engine.New(engine.WithLogger(h.logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to build circuit: %w", err)
	}

	stimuli := make([]circuit.Stimulus, len(scenario.Stimulus))
	for i, st := range scenario.Stimulus {
		stimuli[i] = st.Circuit()
	}
	bound := scenario.Bound.Engine()

	var (
		tracer *circuit.Tracer
		rec    *store.Recorder
	)
	if h.store != nil {
		rec, err = store.NewRecorder(h.store, h.runID(scenario), c, bound, stimuli)
		if err != nil {
			return nil, err
		}
	} else {
		tracer = c.NewTracer()
	}

	if err := c.ApplyAll(stimuli); err != nil {
		return nil, fmt.Errorf("failed to apply stimulus: %w", err)
	}

	runErr := c.Engine.Run(ctx, bound)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return nil, runErr
	}

	result := &Result{Pass: true, Errors: []string{}}
	if rec != nil {
		run, trace, err := rec.Finish(ctx, runErr)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		result.RunID = run.ID
		result.Trace = trace
	} else {
		result.Trace = tracer.Trace(runErr)
	}

	result.Digest, err = result.Trace.Digest()
	if err != nil {
		return nil, err
	}

	for _, msg := range checkExpect(scenario.Expect, result.Trace, runErr) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"events", len(result.Trace.Events),
		"state", result.Trace.State,
	)

	return result, nil
}

func (h *Harness) runID(scenario *Scenario) string {
	if scenario.RunID != "" || h.runIDs == nil {
		return testutil.NewFixedRunIDGenerator(scenario.RunID).Generate()
	}
	return h.runIDs.Generate()
}

// checkExpect compares how the run ended with the expectation. Without an
// expectation the run must end without error.
func checkExpect(exp *Expect, trace circuit.Trace, runErr error) []string {
	var errs []string
	if exp == nil {
		if runErr != nil {
			errs = append(errs, fmt.Sprintf("unexpected run error: %v", runErr))
		}
		return errs
	}

	if trace.ErrorCode != exp.Error {
		switch {
		case exp.Error == "":
			errs = append(errs, fmt.Sprintf("unexpected run error: %v", runErr))
		case runErr == nil:
			errs = append(errs, fmt.Sprintf("expected error %s, run ended without error", exp.Error))
		default:
			errs = append(errs, fmt.Sprintf("expected error %s, got %v", exp.Error, runErr))
		}
	}
	if exp.State != "" && trace.State != exp.State {
		errs = append(errs, fmt.Sprintf("expected state %s, got %s", exp.State, trace.State))
	}
	if exp.Events != nil && uint64(len(trace.Events)) != *exp.Events {
		errs = append(errs, fmt.Sprintf("expected %d events, got %d", *exp.Events, len(trace.Events)))
	}
	if exp.Time != nil && uint64(trace.Time) != *exp.Time {
		errs = append(errs, fmt.Sprintf("expected final time %d, got %d", *exp.Time, trace.Time))
	}
	return errs
}
