package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/verifly/internal/callback"
	"github.com/roach88/verifly/internal/compiler"
	"github.com/roach88/verifly/internal/ir"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Group string // optional - resolve a single identity
}

// ResolvedCallback is one entry of a resolved order.
type ResolvedCallback struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// ResolvedGroup is the resolution of one merged group.
type ResolvedGroup struct {
	Identity  string             `json:"identity"`
	Labels    string             `json:"labels"`
	SpecHash  string             `json:"spec_hash"`
	OrderHash string             `json:"order_hash,omitempty"`
	Order     []ResolvedCallback `json:"order"`
	Cycles    [][]string         `json:"cycles,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <specs-dir>",
		Short: "Print the resolved callback order",
		Long: `Merge group declarations by identity and print the execution order
of each merged group.

Examples:
  verifly resolve ./specs
  verifly resolve ./specs --group save --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "resolve only this identity")

	return cmd
}

func runResolve(opts *ResolveOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := loadForCommand(specsDir)
	if err != nil {
		return err
	}

	specs := loaded.Merged
	if opts.Group != "" {
		spec, ok := compiler.Find(specs, opts.Group)
		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("group %q not found in %s", opts.Group, specsDir))
		}
		specs = []ir.GroupSpec{spec}
	}

	results := make([]ResolvedGroup, 0, len(specs))
	failed := 0
	for _, spec := range specs {
		rg, err := resolveGroup(spec)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("group %q", spec.Identity), err)
		}
		if rg.Error != "" {
			failed++
		}
		results = append(results, rg)
	}

	if formatter.IsJSON() {
		if failed > 0 {
			if err := formatter.Failure(string(callback.ErrCodeCyclicConstraint), fmt.Sprintf("%d group(s) failed to resolve", failed), results); err != nil {
				return err
			}
		} else if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		outputResolveText(formatter, results)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d group(s) failed to resolve", failed))
	}
	return nil
}

// resolveGroup builds and resolves spec. A cycle is reported in the
// result; an error means spec could not be built at all.
func resolveGroup(spec ir.GroupSpec) (ResolvedGroup, error) {
	rg := ResolvedGroup{
		Identity: spec.Identity,
		Labels:   spec.Label,
		Order:    []ResolvedCallback{},
	}

	hash, err := ir.SpecHash(spec)
	if err != nil {
		return rg, err
	}
	rg.SpecHash = hash

	g, err := compiler.Build(spec)
	if err != nil {
		return rg, err
	}

	ordered, err := g.Resolve()
	if err != nil {
		rg.Error = err.Error()
		var ce *callback.CycleError
		if errors.As(err, &ce) {
			rg.Cycles = ce.Cycles
		}
		return rg, nil
	}

	names := make([]string, len(ordered))
	for i, cb := range ordered {
		names[i] = cb.Name()
		rg.Order = append(rg.Order, ResolvedCallback{Name: cb.Name(), Position: cb.Position().String()})
	}
	if rg.OrderHash, err = ir.OrderHash(names); err != nil {
		return rg, err
	}
	return rg, nil
}

func outputResolveText(formatter *OutputFormatter, results []ResolvedGroup) {
	w := formatter.Writer
	for i, rg := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", rg.Identity, rg.Labels)
		if rg.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n", rg.Error)
			continue
		}
		for j, cb := range rg.Order {
			fmt.Fprintf(w, "  %d. %-8s %s\n", j+1, cb.Position, cb.Name)
		}
		formatter.VerboseLog("%s spec_hash=%s order_hash=%s", rg.Identity, rg.SpecHash, rg.OrderHash)
	}
}
