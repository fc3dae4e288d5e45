package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/digisim/internal/engine"
	"github.com/roach88/digisim/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplaySummary holds the overall replay result.
type ReplaySummary struct {
	Runs             []store.ReplayResult `json:"runs"`
	TotalRuns        int                  `json:"total_runs"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Replay recorded runs to verify determinism.

Each run is rebuilt from the circuit description stored with it, the stored
stimulus is applied under the stored bound, and the digest of the new trace
is compared with the recorded one. A mismatch reports the first event at
which the traces diverge.

Exit codes:
  0 - All runs replay identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  digisim replay --db ./runs.db
  digisim replay --db ./runs.db --run 0192b7c4-...
  digisim replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	// Get run ids to process
	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			runIDs = append(runIDs, r.ID)
		}
	}

	summary := ReplaySummary{
		Runs:             make([]store.ReplayResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}

	for _, id := range runIDs {
		formatter.VerboseLog("Replaying run %s", id)
		result, err := st.Replay(ctx, id, engine.WithLogger(logger))
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", id), err)
		}

		summary.Runs = append(summary.Runs, result)
		if !result.Match {
			summary.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		if !summary.AllDeterministic {
			if err := formatter.Failure(summary, "E_NONDETERMINISTIC", "replay differs from the recorded run"); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(summary)
	}

	return outputReplayText(formatter, summary)
}

func outputReplayText(formatter *OutputFormatter, summary ReplaySummary) error {
	w := formatter.Writer

	if summary.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	for _, r := range summary.Runs {
		if r.Match {
			fmt.Fprintf(w, "✓ %s  %s\n", r.RunID, r.Recorded)
			continue
		}
		fmt.Fprintf(w, "✗ %s  diverges at event %d\n", r.RunID, r.Divergence)
		fmt.Fprintf(w, "  recorded %s\n", r.Recorded)
		fmt.Fprintf(w, "  replayed %s\n", r.Replayed)
	}

	fmt.Fprintln(w)
	if !summary.AllDeterministic {
		fmt.Fprintln(w, "✗ Determinism verification failed")
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	fmt.Fprintf(w, "✓ %d run(s) replayed deterministically\n", summary.TotalRuns)
	return nil
}
