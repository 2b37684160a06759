package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fetchview/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Entities    int                        `json:"entities"`
	Embeddables int                        `json:"embeddables"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate an entity schema",
		Long: `Validate an entity schema without analysing it.

<schema> is a directory of CUE files, a single .cue file or a .yaml file.
Reports every structural problem found: dangling relations, inheritance
mismatches, recursive embeddables and colliding view names. Relation
cycles are legal and are listed by the cycles command instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	res, loadErrs := compiler.LoadSchema(path, compiler.LoadModeCollectAll)
	if res == nil {
		code, msg := loadErrorCode(loadErrs[0])
		return formatter.Fail(ExitCommandError, code, msg, nil)
	}
	formatter.VerboseLog("Found %d schema file(s) in %s", res.FileCount, path)

	var errs []compiler.ValidationError
	for _, err := range loadErrs {
		code, msg := loadErrorCode(err)
		errs = append(errs, compiler.ValidationError{Field: "load", Message: msg, Code: code})
	}
	errs = append(errs, compiler.ValidateGraph(res.Graph)...)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	result := ValidationResult{
		Valid:       true,
		Entities:    len(res.Graph.Entities()),
		Embeddables: len(res.Graph.Embeddables()),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d entities, %d embeddables\n", result.Entities, result.Embeddables)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	return failure
}
