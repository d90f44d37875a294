package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/verifly/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                        `json:"valid"`
	Groups     int                         `json:"groups"`
	Identities int                         `json:"identities"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate group declarations",
		Long: `Validate the CUE group declarations in a directory.

Checks every declaration (names, positions, constraint lists), then merges
declarations by identity and resolves each merged group, reporting
constraint cycles. Nothing is invoked.

Exit codes:
  0 - All specs valid
  1 - Validation errors found
  2 - Command error (directory not found, CUE does not load)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)

	// Nothing loaded at all (directory not found, no files, CUE errors)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   loadErr.Field,
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr),
			})
		}
	}
	validationErrors = append(validationErrors, validateAll(loadResult, formatter)...)

	result := ValidationResult{
		Valid:      len(validationErrors) == 0,
		Groups:     len(loadResult.Groups),
		Identities: len(loadResult.Merged),
		Errors:     validationErrors,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateAll checks each declaration, then resolves each merged group
// whose declarations are all valid.
func validateAll(loaded *LoadResult, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError
	invalid := make(map[string]bool)

	for _, spec := range loaded.Groups {
		formatter.VerboseLog("Validating group: %s", spec.Label)
		for _, verr := range compiler.Validate(spec) {
			verr.Field = "group." + spec.Label + "." + verr.Field
			allErrors = append(allErrors, verr)
			invalid[spec.Identity] = true
		}
	}

	for _, merged := range loaded.Merged {
		if invalid[merged.Identity] {
			continue
		}
		formatter.VerboseLog("Resolving identity: %s", merged.Identity)
		if _, verr := compiler.CheckOrder(merged); verr != nil {
			allErrors = append(allErrors, *verr)
		}
	}

	return allErrors
}

func lineOf(err *LoadError) int {
	if err.Pos.IsValid() {
		return err.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d group(s), %d identit(ies))\n", result.Groups, result.Identities)
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.IsJSON() {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return exitErr
}
