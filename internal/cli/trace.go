package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Signal   string // optional - filter to one signal
}

// TraceRun is the journal header of a run.
type TraceRun struct {
	ID                string `json:"id"`
	Scenario          string `json:"scenario"`
	Graph             string `json:"graph"`
	Status            string `json:"status"`
	EngineVersion     string `json:"engine_version"`
	DescriptorVersion string `json:"descriptor_version"`
}

// TraceEntry is one recorded observation.
type TraceEntry struct {
	Seq    int64  `json:"seq"`
	Signal string `json:"signal"`
	Type   string `json:"type"`
	Value  any    `json:"value"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run          TraceRun     `json:"run"`
	Observations []TraceEntry `json:"observations"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show what a recorded run observed",
		Long: `Read a run from the journal written by 'rill run --db' and print every
observation in sequence order. Without a run ID, list recorded runs.

Examples:
  rill trace --db ./rill.db
  rill trace 0192f0c4-7b1e-7cc2-9a51-3f1d2e8c4a10 --db ./rill.db
  rill trace 0192f0c4-7b1e-7cc2-9a51-3f1d2e8c4a10 --db ./rill.db --signal sum`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListRuns(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")
	cmd.Flags().StringVar(&opts.Signal, "signal", "", "only show observations of this signal")

	return cmd
}

func openJournal(opts *TraceOptions, formatter *OutputFormatter) (*store.Store, error) {
	cfg, err := opts.settings()
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeUsage, "failed to load config", err)
	}
	path := opts.Database
	if path == "" {
		path = cfg.DB
	}
	if path == "" {
		return nil, formatter.Fail(ExitCommandError, ErrCodeUsage, "--db is required", nil)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
	}
	return st, nil
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := openJournal(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to read run", err)
	}

	observations, err := st.ReadObservations(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to read observations", err)
	}

	result := TraceResult{
		Run:          traceRun(run),
		Observations: []TraceEntry{},
	}
	for _, obs := range observations {
		if opts.Signal != "" && obs.Signal != opts.Signal {
			continue
		}
		result.Observations = append(result.Observations, TraceEntry{
			Seq:    obs.Seq,
			Signal: obs.Signal,
			Type:   obs.Value.Type().String(),
			Value:  ir.Native(obs.Value),
		})
	}
	formatter.VerboseLog("Read %d observation(s) for run %s", len(observations), runID)

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Run %s: %s [%s]\n", run.ID, run.Scenario, run.Status)
		fmt.Fprintf(w, "Graph: %s (engine %s, descriptor v%s)\n",
			run.Graph, run.EngineVersion, run.DescriptorVersion)
		if len(result.Observations) == 0 {
			fmt.Fprintln(w, "No observations.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tSIGNAL\tTYPE\tVALUE")
		for _, e := range result.Observations {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.Signal, e.Type, formatNative(e.Value))
		}
		tw.Flush()
	})
}

func runListRuns(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	st, err := openJournal(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to list runs", err)
	}

	out := make([]TraceRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, traceRun(run))
	}
	return formatter.Success(out, func(w io.Writer) {
		if len(out) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSCENARIO\tSTATUS")
		for _, r := range out {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Scenario, r.Status)
		}
		tw.Flush()
	})
}

func traceRun(run store.Run) TraceRun {
	return TraceRun{
		ID:                run.ID,
		Scenario:          run.Scenario,
		Graph:             run.Graph,
		Status:            string(run.Status),
		EngineVersion:     run.EngineVersion,
		DescriptorVersion: run.DescriptorVersion,
	}
}
