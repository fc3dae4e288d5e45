package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/digisim/internal/circuit"
	"github.com/roach88/digisim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - lists runs when empty
	Net      string // optional - filter to one net
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      store.Run            `json:"run"`
	Stimulus []string             `json:"stimulus"`
	Timeline []circuit.TraceEvent `json:"timeline"`
	Final    map[string]string    `json:"final"`
	Stats    TraceStats           `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Changes     int `json:"changes"`
	Nets        int `json:"nets"` // distinct nets in the timeline
}

// RunList is the output of trace without --run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded timeline of a run",
		Long: `Show a recorded run from the run log.

The output includes:
- Run: circuit, bound, final state, time and digest
- Stimulus: the values applied before the run
- Timeline: every applied event in order, with the component that drove it
- Final values of all nets

Without --run the recorded runs are listed.

Examples:
  digisim trace --db ./runs.db
  digisim trace --db ./runs.db --run 0192b7c4-...
  digisim trace --db ./runs.db --run 0192b7c4-... --net y
  digisim trace --db ./runs.db --run 0192b7c4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace")
	cmd.Flags().StringVar(&opts.Net, "net", "", "filter the timeline to one net")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return outputRunList(formatter, runs)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	final, err := st.ReadFinalValues(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read final values", err)
	}
	if opts.Net != "" {
		if _, ok := final[opts.Net]; !ok {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("circuit %s has no net %q", run.Circuit, opts.Net), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown net %q", opts.Net))
		}
	}

	events, err := st.ReadEvents(ctx, run.ID, opts.Net)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	stimuli, err := st.ReadStimuli(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stimulus", err)
	}

	result := TraceResult{
		Run:      run,
		Stimulus: make([]string, len(stimuli)),
		Timeline: events,
		Final:    final,
		Stats:    computeTraceStats(events),
	}
	for i, s := range stimuli {
		result.Stimulus[i] = s.String()
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(formatter, result)
}

func computeTraceStats(events []circuit.TraceEvent) TraceStats {
	nets := make(map[string]bool)
	stats := TraceStats{TotalEvents: len(events)}
	for _, ev := range events {
		nets[ev.Net] = true
		if ev.Changed {
			stats.Changes++
		}
	}
	stats.Nets = len(nets)
	return stats
}

func outputRunList(formatter *OutputFormatter, runs []store.Run) error {
	if formatter.Format == "json" {
		return formatter.Success(RunList{Runs: runs})
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%4d  %s  %-12s %-11s t=%-6d events=%d", r.Seq, r.ID, r.Circuit, r.State, r.FinalTime, r.Events)
		if r.ErrorCode != "" {
			fmt.Fprintf(w, "  %s", r.ErrorCode)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer
	run := result.Run

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Circuit: %s (%s)\n", run.Circuit, run.SpecHash)
	fmt.Fprintf(w, "State: %s at t=%d", run.State, run.FinalTime)
	if run.ErrorCode != "" {
		fmt.Fprintf(w, " [%s]", run.ErrorCode)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Digest: %s\n", run.Digest)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Stimulus:")
	for _, s := range result.Stimulus {
		fmt.Fprintf(w, "  %s\n", s)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	for _, ev := range result.Timeline {
		driver := ev.Origin
		if ev.Pin != "" {
			driver += "." + ev.Pin
		}
		fmt.Fprintf(w, "  #%-4d @%-6d %s <- %s (%s)", ev.Seq, ev.Time, ev.Net, ev.Value, driver)
		if !ev.Changed {
			fmt.Fprint(w, " no change")
		} else if ev.Resolved != ev.Value {
			fmt.Fprintf(w, " resolved %s", ev.Resolved)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Final values:")
	nets := make([]string, 0, len(result.Final))
	for net := range result.Final {
		nets = append(nets, net)
	}
	sort.Strings(nets)
	for _, net := range nets {
		fmt.Fprintf(w, "  %s = %s\n", net, result.Final[net])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Stats: %d events, %d changes, %d nets\n",
		result.Stats.TotalEvents, result.Stats.Changes, result.Stats.Nets)
	return nil
}
