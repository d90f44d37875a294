package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/verifly/internal/store"
	"github.com/roach88/verifly/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	Invocation string // show one invocation with its steps
	Group      string // optional - filter listing to one group identity
}

// TraceEntry is one recorded invocation, with its steps when shown in detail.
type TraceEntry struct {
	Invocation trace.Invocation `json:"invocation"`
	Steps      []trace.Step     `json:"steps,omitempty"`
}

// TraceResult holds the trace command output.
type TraceResult struct {
	Invocations []TraceEntry `json:"invocations"`
	Stats       TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the listed invocations.
type TraceStats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
	Steps  int `json:"steps"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded invocations",
		Long: `Show invocations recorded by "verifly run --db".

With --invocation, prints that invocation and every step in seq order:
which callback entered or left, and the error it returned. Otherwise
lists invocations, optionally filtered by --group.

Examples:
  verifly trace --db ./verifly.db
  verifly trace --db ./verifly.db --group save
  verifly trace --db ./verifly.db --invocation 0190c3e2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Invocation, "invocation", "", "invocation id to show in detail")
	cmd.Flags().StringVar(&opts.Group, "group", "", "filter to one group identity")
	cmd.MarkFlagsMutuallyExclusive("invocation", "group")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var result TraceResult
	if opts.Invocation != "" {
		inv, err := st.ReadInvocation(ctx, opts.Invocation)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("invocation not found: %s", opts.Invocation))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read invocation", err)
		}
		steps, err := st.ReadSteps(ctx, inv.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read steps", err)
		}
		result.Invocations = []TraceEntry{{Invocation: inv, Steps: steps}}
	} else {
		invs, err := st.ListInvocations(ctx, opts.Group)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list invocations", err)
		}
		result.Invocations = make([]TraceEntry, 0, len(invs))
		for _, inv := range invs {
			steps, err := st.ReadSteps(ctx, inv.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read steps", err)
			}
			// Steps are counted, not listed
			result.Invocations = append(result.Invocations, TraceEntry{Invocation: inv})
			result.Stats.Steps += len(steps)
		}
	}

	for _, e := range result.Invocations {
		result.Stats.Total++
		if e.Invocation.Status == trace.StatusFailed {
			result.Stats.Failed++
		} else {
			result.Stats.OK++
		}
		result.Stats.Steps += len(e.Steps)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if len(result.Invocations) == 0 {
		fmt.Fprintln(w, "No invocations recorded.")
		return nil
	}

	fmt.Fprintln(w, "=== Invocations ===")
	for _, e := range result.Invocations {
		inv := e.Invocation
		fmt.Fprintf(w, "  [%d] %s %s %s\n", inv.Seq, truncateID(inv.ID), inv.GroupIdentity, inv.Status)
		if verbose || len(e.Steps) > 0 {
			fmt.Fprintf(w, "       Order: %s\n", strings.Join(inv.ResolvedOrder, ", "))
		}
		if inv.Error != "" {
			fmt.Fprintf(w, "       Error: %s\n", inv.Error)
		}
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", inv.ID)
		}
	}

	for _, e := range result.Invocations {
		if len(e.Steps) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Steps ===")
		for _, s := range e.Steps {
			formatStep(w, s)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Invocations: %d\n", result.Stats.Total)
	fmt.Fprintf(w, "  OK:          %d\n", result.Stats.OK)
	fmt.Fprintf(w, "  Failed:      %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Steps:       %d\n", result.Stats.Steps)
	return nil
}

// formatStep prints one step, e.g. "[3] enter before audit".
func formatStep(w io.Writer, s trace.Step) {
	label := s.Kind
	if s.Name != "" {
		label = s.Position + " " + s.Name
	}
	fmt.Fprintf(w, "  [%d] %-5s %s\n", s.Seq, s.Phase, label)
	if s.Error != "" {
		fmt.Fprintf(w, "       Error: %s\n", s.Error)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
