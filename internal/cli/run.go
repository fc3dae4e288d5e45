package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/harness"
	"github.com/roach88/digisim/internal/signal"
	"github.com/roach88/digisim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string   // optional run log
	Stimulus  string   // YAML stimulus file
	Set       []string // net=value@time, repeatable
	MaxEvents uint64
	MaxTime   uint64
	RunID     string

	runIDs engine.RunIDGenerator
}

// RunResult summarizes a finished run.
type RunResult struct {
	RunID     string            `json:"run_id,omitempty"`
	Circuit   string            `json:"circuit"`
	State     string            `json:"state"`
	Time      uint64            `json:"time"`
	Events    int               `json:"events"`
	ErrorCode string            `json:"error_code,omitempty"`
	Error     string            `json:"error,omitempty"`
	Digest    string            `json:"digest"`
	Final     map[string]string `json:"final"`

	nets []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, runIDs: engine.UUIDv7Generator{}}
	return newRunCommand(opts)
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <circuit>",
		Short: "Simulate a circuit under stimulus",
		Long: `Build a circuit, apply stimulus and run the simulation until it settles.

Stimulus comes from a YAML file (--stimulus) and from repeated --set flags
written as net=value@time, e.g. --set a=1@0 --set bus=01x0@5. Values are
written MSB first. A net driven by an input component is driven through it.

The run stops when no events remain, when an event lies past --max-time
(state suspended, TIME_HORIZON), or when the circuit does not settle within
--max-events events (state oscillating, OSCILLATION).

With --db the run is recorded and can be inspected with "digisim trace"
and checked with "digisim replay".

Exit codes:
  0 - Run settled
  1 - Run stopped on a simulation error
  2 - Command error (bad circuit, bad stimulus, database error, etc.)

Examples:
  digisim run ./and2.cue --set a=1 --set b=1
  digisim run ./ring3 --set en=1 --max-time 50 --db ./runs.db
  digisim run ./adder4.cue --stimulus ./stim.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Stimulus, "stimulus", "", "YAML stimulus file")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "stimulus as net=value[@time] (repeatable)")
	cmd.Flags().Uint64Var(&opts.MaxEvents, "max-events", 0, "event quota of the run (default engine quota)")
	cmd.Flags().Uint64Var(&opts.MaxTime, "max-time", 0, "time horizon of the run (default none)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "id of the recorded run (default a new UUIDv7)")

	return cmd
}

func runSimulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	spec, err := LoadCircuit(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputRunError(formatter, loadErr.Code, loadErr.Error())
		}
		return outputRunError(formatter, ErrCodeGeneric, err.Error())
	}

	stimuli, err := collectStimuli(opts)
	if err != nil {
		return outputRunError(formatter, ErrCodeStimulus, err.Error())
	}

	c, err := circuit.Build(spec, engine.New(engine.WithLogger(logger)))
	if err != nil {
		return outputRunError(formatter, ErrCodeCircuit, err.Error())
	}
	logger.Info("circuit built", "circuit", spec.Name, "nets", len(spec.Nets), "components", len(spec.Components))

	bound := engine.Bound{MaxEvents: opts.MaxEvents, MaxTime: signal.Time(opts.MaxTime)}

	var (
		tracer *circuit.Tracer
		rec    *store.Recorder
	)
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return outputRunError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		id := opts.RunID
		if id == "" {
			id = opts.runIDs.Generate()
		}
		rec, err = store.NewRecorder(st, id, c, bound, stimuli)
		if err != nil {
			return outputRunError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to start recording: %v", err))
		}
	} else {
		tracer = c.NewTracer()
	}

	if err := c.ApplyAll(stimuli); err != nil {
		return outputRunError(formatter, ErrCodeStimulus, err.Error())
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("simulation starting", "circuit", spec.Name, "stimuli", len(stimuli))
	runErr := c.Engine.Run(ctx, bound)
	if errors.Is(runErr, context.Canceled) {
		logger.Info("received signal, run interrupted", "time", c.Engine.CurrentTime())
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}

	var trace circuit.Trace
	result := RunResult{nets: c.NetNames()}
	if rec != nil {
		var run store.Run
		run, trace, err = rec.Finish(ctx, runErr)
		if err != nil {
			return outputRunError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to record run: %v", err))
		}
		result.RunID = run.ID
		formatter.RunID = run.ID
		logger.Info("run recorded", "run_id", run.ID, "seq", run.Seq)
	} else {
		trace = tracer.Trace(runErr)
	}

	result.Circuit = trace.Circuit
	result.State = trace.State
	result.Time = uint64(trace.Time)
	result.Events = len(trace.Events)
	result.ErrorCode = trace.ErrorCode
	result.Final = trace.Final
	if runErr != nil {
		result.Error = runErr.Error()
	}
	if result.Digest, err = trace.Digest(); err != nil {
		return outputRunError(formatter, ErrCodeGeneric, err.Error())
	}

	logger.Info("simulation stopped", "state", result.State, "time", result.Time, "events", result.Events)
	return outputRunResult(formatter, result)
}

// collectStimuli reads the stimulus file, then appends the --set values.
func collectStimuli(opts *RunOptions) ([]circuit.Stimulus, error) {
	var stimuli []circuit.Stimulus
	if opts.Stimulus != "" {
		fromFile, err := harness.LoadStimulus(opts.Stimulus)
		if err != nil {
			return nil, err
		}
		stimuli = append(stimuli, fromFile...)
	}
	for _, s := range opts.Set {
		st, err := circuit.ParseStimulus(s)
		if err != nil {
			return nil, err
		}
		stimuli = append(stimuli, st)
	}
	return stimuli, nil
}

func outputRunResult(formatter *OutputFormatter, result RunResult) error {
	if formatter.Format == "json" {
		if result.ErrorCode != "" {
			if err := formatter.Failure(result, result.ErrorCode, result.Error); err != nil {
				return err
			}
			return NewExitError(ExitFailure, result.Error)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Circuit: %s\n", result.Circuit)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run:     %s\n", result.RunID)
	}
	fmt.Fprintf(w, "State:   %s\n", result.State)
	fmt.Fprintf(w, "Time:    %d\n", result.Time)
	fmt.Fprintf(w, "Events:  %d\n", result.Events)
	fmt.Fprintf(w, "Digest:  %s\n", result.Digest)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Final values:")
	for _, net := range result.nets {
		fmt.Fprintf(w, "  %s = %s\n", net, result.Final[net])
	}

	if result.ErrorCode != "" {
		fmt.Fprintln(w)
		_ = formatter.Failure(result, result.ErrorCode, result.Error)
		return NewExitError(ExitFailure, result.Error)
	}
	return nil
}

// outputRunError reports an error that kept the run from starting or being
// recorded (exit code 2).
func outputRunError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
