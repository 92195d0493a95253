package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/schema"
)

// FileViolations groups the violations found in one notebook.
type FileViolations struct {
	Path       string             `json:"path"`
	Violations []schema.Violation `json:"violations"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileViolations `json:"files,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <notebook>...",
		Short: "Check notebook lineage records against the schema",
		Long: `Check every lc_notebook_meme and lc_cell_meme record against the
lineage schema: identity shape, link and history types, root_cells.

Exit codes:
  0 - All records valid
  1 - One or more violations
  2 - A notebook could not be read`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	validator, err := schema.New()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "compile schema", err)
	}

	var failed []FileViolations
	total := 0
	for _, path := range paths {
		doc, err := notebook.ParseFile(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("read %s", path), err)
		}
		f.VerboseLog("Validating %s (%d cells)", path, len(doc.Cells))

		if vs := validator.Validate(doc); len(vs) > 0 {
			failed = append(failed, FileViolations{Path: path, Violations: vs})
			total += len(vs)
		}
	}

	if len(failed) > 0 {
		return outputValidationErrors(f, failed, total)
	}
	if opts.Format == "json" {
		return f.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(f.Writer, "\u2713 All lineage records valid")
	return nil
}

// outputValidationErrors outputs every violation, grouped by file.
func outputValidationErrors(f *OutputFormatter, files []FileViolations, total int) error {
	first := files[0].Violations[0]

	if f.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Files: files},
			Error: &CLIError{
				Code:    ErrCodeValidationFailed,
				Message: first.Error(),
			},
		}
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "\u2717 Validation failed")
		for _, file := range files {
			fmt.Fprintf(f.Writer, "\n%s\n", file.Path)
			for _, v := range file.Violations {
				fmt.Fprintf(f.Writer, "  %s %s: %s\n", v.Code, v.Path, v.Message)
			}
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("%s: validation failed with %d violation(s)", ErrCodeValidationFailed, total))
}
