package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rill/internal/harness"
	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Timeout  time.Duration

	// RunIDs overrides the run ID generator (for testing).
	// If nil, the harness uses UUIDv7.
	RunIDs harness.RunIDGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	RunID    string           `json:"run_id"`
	Scenario string           `json:"scenario"`
	Pass     bool             `json:"pass"`
	Signals  map[string][]any `json:"signals"`
	Errors   []string         `json:"errors,omitempty"`
	Journal  string           `json:"journal,omitempty"`
	order    []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario against a fresh engine",
		Long: `Execute a YAML scenario: compile its graph, start an engine worker,
perform the listed registrations and sends, and compare what each
listener observed with the scenario's expectations.

With --db (or db in the config file) the run and its observations are
recorded in a SQLite journal readable with 'rill trace'.

Exits 1 if any expectation fails.

Examples:
  rill run ./scenarios/prestart.yaml
  rill run ./scenarios/prestart.yaml --db ./rill.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (created if missing)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "wait for each expected value (default 2s)")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.settings()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "failed to load config", err)
	}
	logger, err := opts.logger(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, "failed to configure logging", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
	}

	harnessOpts := []harness.Option{harness.WithLogger(logger)}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout, _ = cfg.Timeout()
	}
	if timeout > 0 {
		harnessOpts = append(harnessOpts, harness.WithTimeout(timeout))
	}
	if opts.RunIDs != nil {
		harnessOpts = append(harnessOpts, harness.WithRunIDs(opts.RunIDs))
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath != "" {
		logger.Debug("opening journal", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		harnessOpts = append(harnessOpts, harness.WithJournal(st))
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter.VerboseLog("Running scenario %s (%d steps)", scenario.Name, len(scenario.Steps))
	result, err := harness.Run(ctx, scenario, harnessOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, "scenario could not be executed", err)
	}

	out := newRunResult(scenario, result)
	out.Journal = dbPath

	if !result.Pass {
		_ = formatter.Failure(ErrCodeExpectation,
			fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors)),
			out, out.writeText)
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return formatter.Success(out, out.writeText)
}

func newRunResult(scenario *harness.Scenario, result *harness.Result) *RunResult {
	out := &RunResult{
		RunID:    result.RunID,
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Signals:  make(map[string][]any),
		Errors:   result.Errors,
	}
	for _, step := range scenario.Steps {
		if step.Listen == "" {
			continue
		}
		if _, seen := out.Signals[step.Listen]; seen {
			continue
		}
		out.order = append(out.order, step.Listen)
		out.Signals[step.Listen] = []any{}
	}
	for _, obs := range result.Observations {
		out.Signals[obs.Signal] = append(out.Signals[obs.Signal], ir.Native(obs.Value))
	}
	return out
}

func (r *RunResult) writeText(w io.Writer) {
	status := "PASS"
	if !r.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (run %s)\n", status, r.Scenario, r.RunID)
	for _, label := range r.order {
		fmt.Fprintf(w, "  %s: %s\n", label, formatNatives(r.Signals[label]))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	if r.Journal != "" {
		fmt.Fprintf(w, "Recorded in %s\n", r.Journal)
	}
}
