package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/compiler"
	"github.com/roach88/verifly/internal/ir"
	"github.com/roach88/verifly/internal/metrics"
	"github.com/roach88/verifly/internal/store"
	"github.com/roach88/verifly/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Group    string
	Database string // optional - record the invocation
	FailAt   string // optional - inject a failure at this flag
	Metrics  bool   // print Prometheus metrics after the run

	// Tokens allows overriding the invocation token generator (for testing).
	// If nil, defaults to trace.UUIDv7Generator.
	Tokens trace.TokenGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	Invocation trace.Invocation `json:"invocation"`
	Trace      []string         `json:"trace"`
	Steps      int              `json:"steps"`
	Recorded   bool             `json:"recorded"`
	Metrics    string           `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <specs-dir>",
		Short: "Invoke a declared group once",
		Long: `Build the merged group with the given identity and invoke it once
around an action that records "action".

Every callback records its flag (before_<name>, after_<name>). With --db
the invocation and its steps are written to a SQLite trace store, which
"verifly trace" reads. --fail-at makes the body recording that flag fail.

Examples:
  verifly run ./specs --group save
  verifly run ./specs --group save --db ./verifly.db
  verifly run ./specs --group save --fail-at before_audit --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroup(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "identity of the group to invoke (required)")
	_ = cmd.MarkFlagRequired("group")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().StringVar(&opts.FailAt, "fail-at", "", "flag whose body fails (e.g. before_audit, action)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runGroup(opts *RunOptions, specsDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(cmd.ErrOrStderr())

	loaded, err := loadForCommand(specsDir)
	if err != nil {
		return err
	}
	spec, ok := compiler.Find(loaded.Merged, opts.Group)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("group %q not found in %s", opts.Group, specsDir))
	}
	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash spec", err)
	}

	// Continue seq numbering after what the store already holds
	clock := trace.NewClock()
	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read database", err)
		}
		clock = trace.NewClockAt(maxSeq)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = trace.UUIDv7Generator{}
	}
	rec := trace.NewRecorder(tokens, clock)

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up metrics", err)
	}

	program, err := compiler.BuildProgram(spec,
		compiler.WithFailAt(opts.FailAt),
		compiler.WithLogger(logger),
		compiler.WithHooks(callback.ChainHooks(rec.Hooks(), collector.Hooks())),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to build group %q", spec.Identity), err)
	}

	logger.Debug("invoking group", "group", spec.Identity, "invocation_id", rec.Token(), "labels", spec.Label)
	tape, runErr := program.Run()
	inv := rec.Finish(spec.Identity, specHash, runErr)
	collector.ObserveInvocation(inv)

	steps := rec.Steps()
	result := RunResult{
		Invocation: inv,
		Trace:      tape.Flags(),
		Steps:      len(steps),
	}

	if st != nil {
		if err := st.WriteInvocation(ctx, inv, steps); err != nil {
			return WrapExitError(ExitCommandError, "failed to record invocation", err)
		}
		result.Recorded = true
		logger.Info("invocation recorded", "db", opts.Database, "invocation_id", inv.ID, "seq", inv.Seq)
	}

	if opts.Metrics {
		var buf bytes.Buffer
		if err := metrics.WriteText(&buf, registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		result.Metrics = buf.String()
	}

	if err := outputRunResult(formatter, result); err != nil {
		return err
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("invocation %s failed", inv.ID), runErr)
	}
	return nil
}

func outputRunResult(formatter *OutputFormatter, result RunResult) error {
	inv := result.Invocation

	if formatter.IsJSON() {
		if inv.Status == trace.StatusFailed {
			return formatter.Failure("E200", inv.Error, result)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if inv.Status == trace.StatusFailed {
		fmt.Fprintf(w, "✗ %s failed: %s\n", inv.GroupIdentity, inv.Error)
	} else {
		fmt.Fprintf(w, "✓ %s invoked\n", inv.GroupIdentity)
	}
	fmt.Fprintf(w, "  invocation: %s\n", inv.ID)
	fmt.Fprintf(w, "  order:      %s\n", strings.Join(inv.ResolvedOrder, ", "))
	fmt.Fprintf(w, "  trace:      %s\n", strings.Join(result.Trace, ", "))
	if result.Recorded {
		fmt.Fprintf(w, "  recorded:   %d step(s), seq %d\n", result.Steps, inv.Seq)
	}
	if result.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Metrics)
	}
	return nil
}
